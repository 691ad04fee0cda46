package claw_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw"
	"github.com/matzehuels/amrraster/pkg/claw/clawtest"
	"github.com/matzehuels/amrraster/pkg/errors"
)

// twoLevelFrame has a coarse 4x4 level-1 patch and a 4x4 level-2 patch
// refining its lower-left quarter.
func twoLevelFrame(index int) *amr.Frame {
	return &amr.Frame{
		Index: index,
		Time:  12.5,
		Patches: []amr.Patch{
			clawtest.Patch(1, 1, 4, 4, 0, 0, 1, func(i, j int) float64 { return float64(j*4 + i) }),
			clawtest.Patch(2, 2, 4, 4, 0, 0, 0.5, func(i, j int) float64 { return 100 + float64(j*4+i)/4 }),
		},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts clawtest.Options
		dec  claw.Decoder
	}{
		{"ascii", clawtest.Options{Format: claw.FormatASCII}, claw.ASCIIDecoder{}},
		{"binary64", clawtest.Options{Format: claw.FormatBinary64}, claw.BinaryDecoder{}},
		{"binary32", clawtest.Options{Format: claw.FormatBinary32}, claw.BinaryDecoder{}},
		{"binary64 no ghosts", clawtest.Options{Format: claw.FormatBinary64, NGhost: -1}, claw.BinaryDecoder{}},
		{"auto ascii", clawtest.Options{Format: claw.FormatASCII}, claw.AutoDecoder{}},
		{"auto binary", clawtest.Options{Format: claw.FormatBinary64, MEqn: 1}, claw.AutoDecoder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			want := twoLevelFrame(3)
			clawtest.WriteFrame(t, dir, want, tt.opts)

			got, err := claw.NewReader(dir, tt.dec).ReadFrame(3)
			if err != nil {
				t.Fatalf("ReadFrame: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("frame mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeField(t *testing.T) {
	dir := t.TempDir()
	clawtest.WriteFrame(t, dir, twoLevelFrame(0), clawtest.Options{Format: claw.FormatBinary64})

	// Equation 1 (hu) is filled with -1 by the fixture writer.
	f, err := claw.NewReader(dir, claw.BinaryDecoder{Field: 1}).ReadFrame(0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	for _, v := range f.Patches[0].Values {
		if v != -1 {
			t.Fatalf("field 1 value = %g, want -1", v)
		}
	}

	_, err = claw.NewReader(dir, claw.BinaryDecoder{Field: 4}).ReadFrame(0)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("out of range field error = %v, want INVALID_INPUT", err)
	}
}

func TestReadFrameMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := claw.NewReader(dir, nil).ReadFrame(5)
	if !errors.Is(err, errors.ErrCodeMissingFrame) {
		t.Fatalf("error = %v, want MISSING_FRAME", err)
	}
	if frame, ok := errors.FrameOf(err); !ok || frame != 5 {
		t.Errorf("FrameOf() = %d, %v, want 5, true", frame, ok)
	}

	// Binary header present but value file gone.
	clawtest.WriteFrame(t, dir, twoLevelFrame(6), clawtest.Options{Format: claw.FormatBinary64})
	if err := os.Remove(filepath.Join(dir, claw.BinaryFile(6))); err != nil {
		t.Fatal(err)
	}
	if _, err := claw.NewReader(dir, nil).ReadFrame(6); !errors.Is(err, errors.ErrCodeMissingFrame) {
		t.Errorf("missing fort.b error = %v, want MISSING_FRAME", err)
	}
}

func TestReadFrameNegativeIndex(t *testing.T) {
	if _, err := claw.NewReader(t.TempDir(), nil).ReadFrame(-1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestReadFrameCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		format claw.Format
		mangle func(t *testing.T, dir string)
	}{
		{
			name:   "ascii truncated",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				truncate(t, filepath.Join(dir, claw.PatchFile(0)), 40)
			},
		},
		{
			name:   "ascii trailing data",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				appendTo(t, filepath.Join(dir, claw.PatchFile(0)), "1.0 2.0 3.0 4.0\n")
			},
		},
		{
			name:   "ascii wrong value count",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.TimeFile(0)), "4    meqn", "3    meqn")
			},
		},
		{
			name:   "binary truncated",
			format: claw.FormatBinary64,
			mangle: func(t *testing.T, dir string) {
				truncate(t, filepath.Join(dir, claw.BinaryFile(0)), 8)
			},
		},
		{
			name:   "binary trailing bytes",
			format: claw.FormatBinary64,
			mangle: func(t *testing.T, dir string) {
				appendTo(t, filepath.Join(dir, claw.BinaryFile(0)), "12345678")
			},
		},
		{
			name:   "ascii dimensions beyond the data",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				setDims(t, dir, "1000000000")
			},
		},
		{
			name:   "ascii dimensions overflow",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				setDims(t, dir, "4000000000")
			},
		},
		{
			name:   "binary dimensions overflow the block size",
			format: claw.FormatBinary64,
			mangle: func(t *testing.T, dir string) {
				setDims(t, dir, "1299999996")
			},
		},
		{
			name:   "binary ghost count out of range",
			format: claw.FormatBinary64,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.TimeFile(0)), "2    nghost", "4611686018427387904    nghost")
			},
		},
		{
			name:   "time file declares too many grids",
			format: claw.FormatBinary64,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.TimeFile(0)), "2    ngrids", "9000000000000000000    ngrids")
			},
		},
		{
			name:   "header entry out of order",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.PatchFile(0)), "AMR_level", "mx_level")
			},
		},
		{
			name:   "time file without time",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.TimeFile(0)), "time", "tyme")
			},
		},
		{
			name:   "zero cell size",
			format: claw.FormatASCII,
			mangle: func(t *testing.T, dir string) {
				replaceIn(t, filepath.Join(dir, claw.PatchFile(0)), "5.0000000000000000e-01    dx", "0.0000000000000000e+00    dx")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			clawtest.WriteFrame(t, dir, twoLevelFrame(0), clawtest.Options{Format: tt.format})
			tt.mangle(t, dir)

			_, err := claw.NewReader(dir, nil).ReadFrame(0)
			if !errors.Is(err, errors.ErrCodeCorruptFrame) {
				t.Fatalf("error = %v, want CORRUPT_FRAME", err)
			}
			if frame, ok := errors.FrameOf(err); !ok || frame != 0 {
				t.Errorf("FrameOf() = %d, %v, want 0, true", frame, ok)
			}
		})
	}
}

func TestReadFrameHeaderNumericFormat(t *testing.T) {
	dir := t.TempDir()
	content := "0.5 time\n1 meqn\n0 ngrids\n0 naux\n2 ndim\n2 nghost\n3 format\n"
	if err := os.WriteFile(filepath.Join(dir, claw.TimeFile(1)), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fh, err := claw.ReadFrameHeader(dir, 1)
	if err != nil {
		t.Fatalf("ReadFrameHeader: %v", err)
	}
	want := claw.FrameHeader{Time: 0.5, MEqn: 1, NDim: 2, NGhost: 2, Format: claw.FormatBinary64}
	if diff := cmp.Diff(want, fh); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
}

func truncate(t *testing.T, path string, drop int) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-drop], 0o644); err != nil {
		t.Fatal(err)
	}
}

func appendTo(t *testing.T, path, extra string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(extra); err != nil {
		t.Fatal(err)
	}
}

// setDims rewrites the dimensions of the first patch of frame 0.
func setDims(t *testing.T, dir, n string) {
	t.Helper()
	path := filepath.Join(dir, claw.PatchFile(0))
	replaceIn(t, path, "     4                 mx", n+"                 mx")
	replaceIn(t, path, "     4                 my", n+"                 my")
}

func replaceIn(t *testing.T, path, old, new string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, old) {
		t.Fatalf("%s does not contain %q", path, old)
	}
	if err := os.WriteFile(path, []byte(strings.Replace(s, old, new, 1)), 0o644); err != nil {
		t.Fatal(err)
	}
}
