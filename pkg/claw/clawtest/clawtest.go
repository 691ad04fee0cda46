// Package clawtest writes Clawpack output directories for tests.
package clawtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw"
)

// Options control how frames are encoded.
type Options struct {
	Format claw.Format // default ascii
	MEqn   int         // default 4 (h, hu, hv, eta); the patch value is equation 0
	NGhost int         // default 2; negative writes no ghost cells
}

func (o Options) withDefaults() Options {
	if o.Format == 0 {
		o.Format = claw.FormatASCII
	}
	if o.MEqn == 0 {
		o.MEqn = 4
	}
	switch {
	case o.NGhost == 0:
		o.NGhost = 2
	case o.NGhost < 0:
		o.NGhost = 0
	}
	return o
}

// Patch builds a square-cell patch whose values come from fn(i, j).
func Patch(id, level, nx, ny int, x0, y0, d float64, fn func(i, j int) float64) amr.Patch {
	values := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if fn != nil {
				values[j*nx+i] = fn(i, j)
			}
		}
	}
	return amr.Patch{ID: id, Level: level, NX: nx, NY: ny, X0: x0, Y0: y0, DX: d, DY: d, Values: values}
}

// Constant returns a value function that always yields v.
func Constant(v float64) func(i, j int) float64 {
	return func(int, int) float64 { return v }
}

// WriteFrame writes the files of f into dir.
func WriteFrame(t testing.TB, dir string, f *amr.Frame, opts Options) {
	t.Helper()
	opts = opts.withDefaults()

	var th bytes.Buffer
	fmt.Fprintf(&th, "%18.8e    time\n", f.Time)
	fmt.Fprintf(&th, "%18d    meqn\n", opts.MEqn)
	fmt.Fprintf(&th, "%18d    ngrids\n", len(f.Patches))
	fmt.Fprintf(&th, "%18d    naux\n", 3)
	fmt.Fprintf(&th, "%18d    ndim\n", 2)
	fmt.Fprintf(&th, "%18d    nghost\n", opts.NGhost)
	fmt.Fprintf(&th, "%18s    format\n", opts.Format)
	write(t, filepath.Join(dir, claw.TimeFile(f.Index)), th.Bytes())

	var q, b bytes.Buffer
	for k := range f.Patches {
		p := &f.Patches[k]
		writePatchHeader(&q, p)
		switch opts.Format {
		case claw.FormatASCII:
			for j := 0; j < p.NY; j++ {
				for i := 0; i < p.NX; i++ {
					fmt.Fprintf(&q, "%26.16e", p.At(i, j))
					for m := 1; m < opts.MEqn; m++ {
						fmt.Fprintf(&q, "%26.16e", 0.0)
					}
					q.WriteByte('\n')
				}
				q.WriteByte('\n')
			}
		default:
			writeBinaryPatch(&b, p, opts)
		}
	}
	write(t, filepath.Join(dir, claw.PatchFile(f.Index)), q.Bytes())
	if opts.Format != claw.FormatASCII {
		write(t, filepath.Join(dir, claw.BinaryFile(f.Index)), b.Bytes())
	}
}

func writePatchHeader(q *bytes.Buffer, p *amr.Patch) {
	fmt.Fprintf(q, "%6d                 grid_number\n", p.ID)
	fmt.Fprintf(q, "%6d                 AMR_level\n", p.Level)
	fmt.Fprintf(q, "%6d                 mx\n", p.NX)
	fmt.Fprintf(q, "%6d                 my\n", p.NY)
	fmt.Fprintf(q, "%26.16e    xlow\n", p.X0)
	fmt.Fprintf(q, "%26.16e    ylow\n", p.Y0)
	fmt.Fprintf(q, "%26.16e    dx\n", p.DX)
	fmt.Fprintf(q, "%26.16e    dy\n", p.DY)
	q.WriteByte('\n')
}

// writeBinaryPatch writes q(meqn, 1-g:mx+g, 1-g:my+g) in Fortran order.
// Ghost cells and the other equations hold -1 so that decoding mistakes show.
func writeBinaryPatch(b *bytes.Buffer, p *amr.Patch, opts Options) {
	g := opts.NGhost
	for j := -g; j < p.NY+g; j++ {
		for i := -g; i < p.NX+g; i++ {
			for m := 0; m < opts.MEqn; m++ {
				v := -1.0
				if m == 0 && i >= 0 && i < p.NX && j >= 0 && j < p.NY {
					v = p.At(i, j)
				}
				if opts.Format == claw.FormatBinary32 {
					_ = binary.Write(b, binary.LittleEndian, math.Float32bits(float32(v)))
				} else {
					_ = binary.Write(b, binary.LittleEndian, math.Float64bits(v))
				}
			}
		}
	}
}

// RunData describes the metadata files to write.
type RunData struct {
	FrameCount   int     // frames written, including the initial one
	MaxLevels    int     // amr_levels_max; 0 skips amr.data
	DryTolerance float64 // negative skips geoclaw.data
}

// WriteRunData writes claw.data, amr.data and geoclaw.data into dir.
func WriteRunData(t testing.TB, dir string, rd RunData) {
	t.Helper()
	text := fmt.Sprintf(`# Generated by clawtest
2                    =: num_dim
0.0 0.0              =: lower
4.0 4.0              =: upper
1                    =: output_style
%d                   =: num_output_times
T                    =: output_t0
`, rd.FrameCount-1)
	write(t, filepath.Join(dir, "claw.data"), []byte(text))

	if rd.MaxLevels > 0 {
		write(t, filepath.Join(dir, "amr.data"), []byte(fmt.Sprintf("%d =: amr_levels_max\n", rd.MaxLevels)))
	}
	if rd.DryTolerance >= 0 {
		write(t, filepath.Join(dir, "geoclaw.data"), []byte(fmt.Sprintf(
			"9.81 =: gravity\n%e =: dry_tolerance\n", rd.DryTolerance)))
	}
}

// WriteSeries writes frames 0..len(times)-1, each with one n x n level-1 patch
// of unit cells at the origin whose values come from fn(frame, i, j).
func WriteSeries(t testing.TB, dir string, times []float64, n int, fn func(frame, i, j int) float64) {
	t.Helper()
	for k, tm := range times {
		frame := k
		p := Patch(1, 1, n, n, 0, 0, 1, func(i, j int) float64 { return fn(frame, i, j) })
		WriteFrame(t, dir, &amr.Frame{Index: k, Time: tm, Patches: []amr.Patch{p}}, Options{})
	}
}

func write(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
