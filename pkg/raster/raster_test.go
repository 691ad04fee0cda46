package raster

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw/clawtest"
	"github.com/matzehuels/amrraster/pkg/errors"
)

const nodata = -9999.0

// memSource serves frames from memory and counts reads.
type memSource struct {
	frames map[int]*amr.Frame
	reads  []int
}

func (m *memSource) ReadFrame(frame int) (*amr.Frame, error) {
	m.reads = append(m.reads, frame)
	f, ok := m.frames[frame]
	if !ok {
		return nil, errors.MissingFrame(frame, nil)
	}
	return f, nil
}

// threeFrames is one 4x4 unit-cell level-1 patch at the origin at times 0, 10, 20.
func threeFrames() *memSource {
	m := &memSource{frames: map[int]*amr.Frame{}}
	for k, tm := range []float64{0, 10, 20} {
		m.frames[k] = &amr.Frame{Index: k, Time: tm, Patches: []amr.Patch{
			clawtest.Patch(1, 1, 4, 4, 0, 0, 1, clawtest.Constant(float64(k))),
		}}
	}
	return m
}

// =============================================================================
// Extent and Grid
// =============================================================================

func TestExtentValidate(t *testing.T) {
	tests := []struct {
		name string
		e    Extent
		ok   bool
	}{
		{"valid", Extent{0, 0, 4, 4}, true},
		{"zero width", Extent{1, 0, 1, 4}, false},
		{"inverted height", Extent{0, 4, 4, 0}, false},
		{"nan", Extent{math.NaN(), 0, 4, 4}, false},
		{"inf", Extent{0, 0, math.Inf(1), 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidExtent) {
				t.Errorf("Validate() = %v, want INVALID_EXTENT", err)
			}
		})
	}
}

func TestParseExtent(t *testing.T) {
	e, err := ParseExtent([]float64{-1, -2, 3, 4})
	if err != nil {
		t.Fatalf("ParseExtent: %v", err)
	}
	if want := (Extent{-1, -2, 3, 4}); e != want {
		t.Errorf("ParseExtent = %+v, want %+v", e, want)
	}
	if _, err := ParseExtent([]float64{1, 2, 3}); !errors.Is(err, errors.ErrCodeInvalidExtent) {
		t.Errorf("ParseExtent(3 values) = %v, want INVALID_EXTENT", err)
	}
}

func TestExtentPad(t *testing.T) {
	got := Extent{0, 0, 10, 20}.Pad(0.1)
	if want := (Extent{-1, -2, 11, 22}); got != want {
		t.Errorf("Pad(0.1) = %+v, want %+v", got, want)
	}
}

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name       string
		e          Extent
		dx, dy     float64
		cols, rows int
	}{
		{"exact", Extent{0, 0, 4, 4}, 1, 1, 4, 4},
		{"partial cell rounds up", Extent{0, 0, 4.5, 2}, 1, 1, 5, 2},
		{"floating noise", Extent{0, 0, 0.3, 0.3}, 0.1, 0.1, 3, 3},
		{"anisotropic", Extent{0, 0, 4, 4}, 0.5, 2, 8, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.e, tt.dx, tt.dy)
			if err != nil {
				t.Fatalf("NewGrid: %v", err)
			}
			if g.NCols != tt.cols || g.NRows != tt.rows {
				t.Errorf("dims = %dx%d, want %dx%d", g.NCols, g.NRows, tt.cols, tt.rows)
			}
		})
	}

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewGrid(Extent{0, 0, 1, 1}, d, 1); !errors.Is(err, errors.ErrCodeInvalidResolution) {
			t.Errorf("NewGrid(dx=%g) = %v, want INVALID_RESOLUTION", d, err)
		}
	}
	oversized := []struct {
		name   string
		e      Extent
		dx, dy float64
	}{
		{"product overflows int", Extent{0, 0, 1e7, 1e7}, 1e-6, 1e-6},
		{"one cell over the limit", Extent{0, 0, MaxCells + 1, 1}, 1, 1},
		{"tiny cells", Extent{0, 0, 1, 1}, math.SmallestNonzeroFloat64, 1},
	}
	for _, tt := range oversized {
		t.Run(tt.name, func(t *testing.T) {
			if g, err := NewGrid(tt.e, tt.dx, tt.dy); !errors.Is(err, errors.ErrCodeInvalidResolution) {
				t.Errorf("NewGrid() = %+v, %v, want INVALID_RESOLUTION", g, err)
			}
		})
	}

	if _, err := NewGrid(Extent{0, 0, MaxCells, 1}, 1, 1); err != nil {
		t.Errorf("NewGrid at the limit: %v", err)
	}
}

func TestGridCoordinates(t *testing.T) {
	g, err := NewGrid(Extent{10, 20, 12, 23}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{10.5, 11.5}, g.Xs()); diff != "" {
		t.Errorf("Xs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{20.5, 21.5, 22.5}, g.Ys()); diff != "" {
		t.Errorf("Ys mismatch (-want +got):\n%s", diff)
	}
	if g.Index(1, 2) != 5 {
		t.Errorf("Index(1, 2) = %d, want 5", g.Index(1, 2))
	}
}

// =============================================================================
// ResolveExtent
// =============================================================================

func TestResolveExtentScenario(t *testing.T) {
	src := threeFrames()
	g, err := ResolveExtent(context.Background(), src, ResolveRequest{Bg: 0, Ed: 3, Level: 1})
	if err != nil {
		t.Fatalf("ResolveExtent: %v", err)
	}
	want := &Grid{Extent: Extent{0, 0, 4, 4}, DX: 1, DY: 1, NCols: 4, NRows: 4}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, src.reads); diff != "" {
		t.Errorf("read order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveExtentDeterministic(t *testing.T) {
	src := &memSource{frames: map[int]*amr.Frame{
		0: {Index: 0, Patches: []amr.Patch{
			clawtest.Patch(3, 2, 2, 2, 1, 1, 0.25, nil),
			clawtest.Patch(1, 1, 4, 4, 0, 0, 1, nil),
			clawtest.Patch(2, 2, 3, 2, 2, 2, 0.25, nil),
		}},
		1: {Index: 1, Time: 1, Patches: []amr.Patch{
			clawtest.Patch(5, 2, 4, 4, -1, 3, 0.25, nil),
		}},
	}}
	req := ResolveRequest{Bg: 0, Ed: 2, Level: amr.Finest}
	first, err := ResolveExtent(context.Background(), src, req)
	if err != nil {
		t.Fatalf("ResolveExtent: %v", err)
	}
	second, err := ResolveExtent(context.Background(), src, req)
	if err != nil {
		t.Fatalf("ResolveExtent: %v", err)
	}
	if *first != *second {
		t.Errorf("ResolveExtent not deterministic: %+v vs %+v", first, second)
	}
	want := Extent{XMin: -1, YMin: 1, XMax: 2.75, YMax: 4}
	if first.Extent != want {
		t.Errorf("Extent = %+v, want %+v", first.Extent, want)
	}
	if first.DX != 0.25 || first.DY != 0.25 {
		t.Errorf("resolution = (%g, %g), want (0.25, 0.25)", first.DX, first.DY)
	}
}

func TestResolveExtentFirstFinestWins(t *testing.T) {
	p1 := clawtest.Patch(1, 1, 2, 2, 0, 0, 0.5, nil)
	p1.DY = 0.7
	p2 := clawtest.Patch(2, 1, 2, 2, 0, 0, 0.5, nil)
	p2.DY = 0.9
	src := &memSource{frames: map[int]*amr.Frame{0: {Patches: []amr.Patch{p2, p1}}}}

	res, err := Scan(context.Background(), src, ResolveRequest{Ed: 1, Level: 1})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// Select orders by ID, so patch 1 is encountered first.
	if res.DY != 0.7 {
		t.Errorf("DY = %g, want 0.7 from the first encountered patch", res.DY)
	}
}

func TestResolveExtentOverrides(t *testing.T) {
	ext := Extent{-5, -5, 5, 5}

	t.Run("both overrides skip scanning", func(t *testing.T) {
		src := threeFrames()
		g, err := ResolveExtent(context.Background(), src, ResolveRequest{Ed: 3, Level: 7, Extent: &ext, Resolution: 2})
		if err != nil {
			t.Fatalf("ResolveExtent: %v", err)
		}
		if len(src.reads) != 0 {
			t.Errorf("frames read = %v, want none", src.reads)
		}
		if g.NCols != 5 || g.NRows != 5 {
			t.Errorf("dims = %dx%d, want 5x5", g.NCols, g.NRows)
		}
	})

	t.Run("extent only keeps scanned resolution", func(t *testing.T) {
		g, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 3, Level: 1, Extent: &ext})
		if err != nil {
			t.Fatalf("ResolveExtent: %v", err)
		}
		if g.Extent != ext || g.DX != 1 {
			t.Errorf("grid = %+v, want extent %+v at dx 1", g, ext)
		}
	})

	t.Run("resolution only keeps scanned extent", func(t *testing.T) {
		g, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 3, Level: 1, Resolution: 0.5})
		if err != nil {
			t.Fatalf("ResolveExtent: %v", err)
		}
		if g.Extent != (Extent{0, 0, 4, 4}) || g.NCols != 8 {
			t.Errorf("grid = %+v, want 8x8 over (0,0,4,4)", g)
		}
	})

	t.Run("degenerate extent", func(t *testing.T) {
		bad := Extent{1, 1, 1, 2}
		_, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 3, Extent: &bad})
		if !errors.Is(err, errors.ErrCodeInvalidExtent) {
			t.Errorf("error = %v, want INVALID_EXTENT", err)
		}
	})

	t.Run("negative resolution", func(t *testing.T) {
		_, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 3, Resolution: -1})
		if !errors.Is(err, errors.ErrCodeInvalidResolution) {
			t.Errorf("error = %v, want INVALID_RESOLUTION", err)
		}
	})
}

func TestResolveExtentErrors(t *testing.T) {
	t.Run("empty range", func(t *testing.T) {
		src := threeFrames()
		_, err := ResolveExtent(context.Background(), src, ResolveRequest{Bg: 2, Ed: 2})
		if !errors.Is(err, errors.ErrCodeEmptyRange) {
			t.Errorf("error = %v, want EMPTY_RANGE", err)
		}
		if len(src.reads) != 0 {
			t.Errorf("frames read = %v, want none", src.reads)
		}
	})

	t.Run("frames without patches", func(t *testing.T) {
		src := &memSource{frames: map[int]*amr.Frame{0: {}, 1: {Index: 1, Time: 1}}}
		_, err := ResolveExtent(context.Background(), src, ResolveRequest{Ed: 2})
		if !errors.Is(err, errors.ErrCodeEmptyRange) {
			t.Errorf("error = %v, want EMPTY_RANGE", err)
		}
	})

	t.Run("level absent on first frame", func(t *testing.T) {
		_, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 3, Level: 3})
		if !errors.Is(err, errors.ErrCodeLevelNotFound) {
			t.Fatalf("error = %v, want LEVEL_NOT_FOUND", err)
		}
		if frame, _ := errors.FrameOf(err); frame != 0 {
			t.Errorf("frame = %d, want 0", frame)
		}
	})

	t.Run("missing frame", func(t *testing.T) {
		_, err := ResolveExtent(context.Background(), threeFrames(), ResolveRequest{Ed: 4, Level: 1})
		if !errors.Is(err, errors.ErrCodeMissingFrame) {
			t.Errorf("error = %v, want MISSING_FRAME", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ResolveExtent(ctx, threeFrames(), ResolveRequest{Ed: 3}); err != context.Canceled {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

// =============================================================================
// Rasterize
// =============================================================================

func TestRasterizeSameResolution(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 4, 4}, 1, 1)
	p := clawtest.Patch(1, 1, 4, 4, 0, 0, 1, func(i, j int) float64 { return float64(10*j + i) })
	rf := Rasterize(g, 2, 10, []amr.Patch{p}, nodata)

	if rf.Index != 2 || rf.Time != 10 || rf.NoData != nodata {
		t.Errorf("frame tags = (%d, %g, %g), want (2, 10, %g)", rf.Index, rf.Time, rf.NoData, nodata)
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if got, want := rf.At(c, r), float64(10*r+c); got != want {
				t.Errorf("cell (%d, %d) = %g, want %g", c, r, got, want)
			}
		}
	}
}

func TestRasterizeNearestNeighbour(t *testing.T) {
	// Coarse patch onto a finer grid: each patch cell feeds 2x2 output cells.
	g, _ := NewGrid(Extent{0, 0, 2, 2}, 0.5, 0.5)
	p := clawtest.Patch(1, 1, 2, 2, 0, 0, 1, func(i, j int) float64 { return float64(1 + 2*j + i) })
	rf := Rasterize(g, 0, 0, []amr.Patch{p}, nodata)
	want := []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}
	if diff := cmp.Diff(want, rf.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	// Fine patch onto a coarser grid: no averaging, the cell containing the centre wins.
	g2, _ := NewGrid(Extent{0, 0, 2, 2}, 1, 1)
	fine := clawtest.Patch(1, 2, 4, 4, 0, 0, 0.5, func(i, j int) float64 { return float64(4*j + i) })
	rf2 := Rasterize(g2, 0, 0, []amr.Patch{fine}, nodata)
	if diff := cmp.Diff([]float64{5, 7, 13, 15}, rf2.Data); diff != "" {
		t.Errorf("downsampled data mismatch (-want +got):\n%s", diff)
	}
}

func TestRasterizeUncoveredIsNoData(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 4, 2}, 1, 1)
	p := clawtest.Patch(1, 2, 2, 2, 0, 0, 1, clawtest.Constant(3))
	rf := Rasterize(g, 0, 0, []amr.Patch{p}, nodata)
	want := []float64{3, 3, nodata, nodata, 3, 3, nodata, nodata}
	if diff := cmp.Diff(want, rf.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestRasterizeOverlapFirstPatchWins(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 3, 1}, 1, 1)
	a := clawtest.Patch(1, 1, 2, 1, 0, 0, 1, clawtest.Constant(1))
	b := clawtest.Patch(2, 1, 2, 1, 1, 0, 1, clawtest.Constant(2))

	rf := Rasterize(g, 0, 0, []amr.Patch{a, b}, nodata)
	if diff := cmp.Diff([]float64{1, 1, 2}, rf.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	// Through Select the solver's file order does not matter.
	sel, err := amr.Select(&amr.Frame{Patches: []amr.Patch{b, a}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	rf2 := Rasterize(g, 0, 0, sel, nodata)
	if diff := cmp.Diff(rf.Data, rf2.Data); diff != "" {
		t.Errorf("order dependence (-first +second):\n%s", diff)
	}
}

// Every output cell is nodata or the value of the patch containing its centre.
func TestRasterizeCellsComeFromContainingPatch(t *testing.T) {
	patches := []amr.Patch{
		clawtest.Patch(1, 2, 5, 3, 0.1, 0.2, 0.3, func(i, j int) float64 { return 100 + float64(10*j+i) }),
		clawtest.Patch(2, 2, 4, 6, 2.0, 0.5, 0.3, func(i, j int) float64 { return 200 + float64(10*j+i) }),
	}
	g, _ := NewGrid(Extent{-0.5, -0.5, 3.5, 3.0}, 0.17, 0.23)
	rf := Rasterize(g, 0, 0, patches, nodata)

	for r := 0; r < g.NRows; r++ {
		for c := 0; c < g.NCols; c++ {
			x, y := g.X(c), g.Y(r)
			want := nodata
			for i := range patches {
				p := &patches[i]
				if p.Bounds().Contains(x, y) {
					want = p.At(min(int((x-p.X0)/p.DX), p.NX-1), min(int((y-p.Y0)/p.DY), p.NY-1))
					break
				}
			}
			if got := rf.At(c, r); got != want {
				t.Fatalf("cell (%d, %d) at (%g, %g) = %g, want %g", c, r, x, y, got, want)
			}
		}
	}
}

// =============================================================================
// MaskDry
// =============================================================================

func TestMaskDryThreshold(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 4, 1}, 1, 1)
	rf := &Frame{Grid: g, NoData: nodata, Data: []float64{0.005, 0.01, 0.5, nodata}}

	masked, err := MaskDry(rf, 0.01)
	if err != nil {
		t.Fatalf("MaskDry: %v", err)
	}
	want := []float64{nodata, 0.01, 0.5, nodata}
	if diff := cmp.Diff(want, masked.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if rf.Data[0] != 0.005 {
		t.Error("MaskDry modified its input")
	}
}

func TestMaskDryIdempotent(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 3, 3}, 1, 1)
	rf := &Frame{Grid: g, NoData: nodata, Data: []float64{0, 1e-4, 0.2, 3, nodata, 0.001, 0.0009, 7, 0.05}}
	for _, tol := range []float64{0, 0.001, 0.005, 1} {
		t.Run(fmt.Sprint(tol), func(t *testing.T) {
			once, err := MaskDry(rf, tol)
			if err != nil {
				t.Fatal(err)
			}
			twice, err := MaskDry(once, tol)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(once.Data, twice.Data); diff != "" {
				t.Errorf("MaskDry not idempotent (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestMaskDryNaNNoData(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 2, 1}, 1, 1)
	rf := &Frame{Grid: g, NoData: math.NaN(), Data: []float64{0.001, 2}}
	masked, err := MaskDry(rf, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(masked.Data[0]) || masked.Data[1] != 2 {
		t.Errorf("data = %v, want [NaN 2]", masked.Data)
	}
}

func TestMaskDryInvalidTolerance(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 1, 1}, 1, 1)
	rf := NewFrame(g, 0, 0, nodata)
	for _, tol := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if _, err := MaskDry(rf, tol); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("MaskDry(tol=%g) = %v, want INVALID_INPUT", tol, err)
		}
	}
}

// =============================================================================
// Summarize
// =============================================================================

func TestSummarize(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 2, 2}, 0.5, 2)
	rf := &Frame{Grid: g, NoData: nodata, Data: []float64{1, 2, 3, nodata}}
	s := Summarize(rf)
	want := Summary{Cells: 4, Valid: 3, Min: 1, Max: 3, Mean: 2, StdDev: 1, Volume: 6}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	empty := Summarize(NewFrame(g, 0, 0, nodata))
	if empty.Valid != 0 || empty.Min != 0 || empty.Max != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestRange(t *testing.T) {
	g, _ := NewGrid(Extent{0, 0, 2, 1}, 1, 1)
	a := &Frame{Grid: g, NoData: nodata, Data: []float64{0.5, nodata}}
	b := &Frame{Grid: g, NoData: nodata, Data: []float64{nodata, nodata}}
	c := &Frame{Grid: g, NoData: nodata, Data: []float64{2.5, 0.1}}

	lo, hi, ok := Range(a, b, c)
	if !ok || lo != 0.1 || hi != 2.5 {
		t.Errorf("Range = (%g, %g, %v), want (0.1, 2.5, true)", lo, hi, ok)
	}
	if _, _, ok := Range(b); ok {
		t.Error("Range over empty frames reported ok")
	}
}
