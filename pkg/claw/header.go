package claw

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Format is the encoding of the cell values of a frame.
type Format int

// Value formats written by the solver.
const (
	FormatASCII Format = iota + 1
	FormatBinary32
	FormatBinary64
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinary32:
		return "binary32"
	case FormatBinary64:
		return "binary64"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat parses the format entry of fort.tNNNN, either by name or by
// the numeric code older solver versions write.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "ascii", "1":
		return FormatASCII, nil
	case "binary32", "2":
		return FormatBinary32, nil
	case "binary", "binary64", "3":
		return FormatBinary64, nil
	}
	return 0, fmt.Errorf("unknown output format %q", s)
}

// TimeFile returns the name of the time file of a frame.
func TimeFile(frame int) string { return fmt.Sprintf("fort.t%04d", frame) }

// PatchFile returns the name of the patch header/ascii value file of a frame.
func PatchFile(frame int) string { return fmt.Sprintf("fort.q%04d", frame) }

// BinaryFile returns the name of the binary value file of a frame.
func BinaryFile(frame int) string { return fmt.Sprintf("fort.b%04d", frame) }

// FrameHeader is the content of fort.tNNNN.
type FrameHeader struct {
	Time   float64
	MEqn   int
	NGrids int
	NAux   int
	NDim   int
	NGhost int
	Format Format
}

// PatchHeader is the 8-line per-patch header of fort.qNNNN.
type PatchHeader struct {
	ID     int
	Level  int
	MX, MY int
	XLow   float64
	YLow   float64
	DX, DY float64
}

// openFrameFile opens a file of a frame, mapping absence to MISSING_FRAME.
func openFrameFile(dir, name string, frame int) (*os.File, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.MissingFrame(frame, err)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "frame %d: open %s", frame, name)
	}
	return f, nil
}

// ReadFrameHeader reads fort.tNNNN of a frame.
func ReadFrameHeader(dir string, frame int) (FrameHeader, error) {
	f, err := openFrameFile(dir, TimeFile(frame), frame)
	if err != nil {
		return FrameHeader{}, err
	}
	defer f.Close()

	h, err := parseFrameHeader(f)
	if err != nil {
		return FrameHeader{}, errors.WrapCorruptFrame(frame, err, "%s", TimeFile(frame))
	}
	return h, nil
}

func parseFrameHeader(r io.Reader) (FrameHeader, error) {
	entries := make(map[string]string, 7)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		entries[strings.ToLower(fields[1])] = fields[0]
	}
	if err := sc.Err(); err != nil {
		return FrameHeader{}, err
	}

	h := FrameHeader{Format: FormatASCII}
	var err error
	t, ok := entries["time"]
	if !ok {
		return h, fmt.Errorf("time not set")
	}
	if h.Time, err = parseFortranFloat(t); err != nil {
		return h, fmt.Errorf("time: %w", err)
	}
	ints := []struct {
		name     string
		dst      *int
		required bool
	}{
		{"meqn", &h.MEqn, true},
		{"ngrids", &h.NGrids, true},
		{"naux", &h.NAux, false},
		{"ndim", &h.NDim, false},
		{"nghost", &h.NGhost, false},
	}
	for _, e := range ints {
		s, ok := entries[e.name]
		if !ok {
			if e.required {
				return h, fmt.Errorf("%s not set", e.name)
			}
			continue
		}
		if *e.dst, err = strconv.Atoi(s); err != nil {
			return h, fmt.Errorf("%s: %w", e.name, err)
		}
	}
	if s, ok := entries["format"]; ok {
		if h.Format, err = ParseFormat(s); err != nil {
			return h, err
		}
	}

	switch {
	case h.MEqn < 1:
		return h, fmt.Errorf("meqn must be >= 1, got %d", h.MEqn)
	case h.NGrids < 0:
		return h, fmt.Errorf("ngrids must be >= 0, got %d", h.NGrids)
	case h.NGhost < 0 || h.NGhost > maxPrealloc:
		return h, fmt.Errorf("nghost out of range, got %d", h.NGhost)
	case h.NDim != 0 && h.NDim != 2:
		return h, fmt.Errorf("only 2-D output is supported, got ndim %d", h.NDim)
	}
	return h, nil
}

// lineReader yields the non-blank lines of a patch file.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &lineReader{sc: sc}
}

// next returns the fields of the next non-blank line, or io.EOF.
func (lr *lineReader) next() ([]string, error) {
	for lr.sc.Scan() {
		lr.line++
		fields := strings.Fields(lr.sc.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := lr.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// patchHeaderNames lists the header entries in file order.
var patchHeaderNames = [...]string{"grid_number", "amr_level", "mx", "my", "xlow", "ylow", "dx", "dy"}

func (lr *lineReader) patchHeader() (PatchHeader, error) {
	var raw [len(patchHeaderNames)]string
	for k, name := range patchHeaderNames {
		fields, err := lr.next()
		if err == io.EOF {
			return PatchHeader{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return PatchHeader{}, err
		}
		if len(fields) < 2 || !strings.EqualFold(fields[1], name) {
			return PatchHeader{}, fmt.Errorf("line %d: expected %s entry, got %q",
				lr.line, name, strings.Join(fields, " "))
		}
		raw[k] = fields[0]
	}

	var h PatchHeader
	var err error
	for k, dst := range []*int{&h.ID, &h.Level, &h.MX, &h.MY} {
		if *dst, err = strconv.Atoi(raw[k]); err != nil {
			return h, fmt.Errorf("%s: %w", patchHeaderNames[k], err)
		}
	}
	for k, dst := range []*float64{&h.XLow, &h.YLow, &h.DX, &h.DY} {
		if *dst, err = parseFortranFloat(raw[k+4]); err != nil {
			return h, fmt.Errorf("%s: %w", patchHeaderNames[k+4], err)
		}
	}
	if h.MX <= 0 || h.MY <= 0 {
		return h, fmt.Errorf("grid %d: non-positive dimensions %dx%d", h.ID, h.MX, h.MY)
	}
	if _, ok := blockSize(h.MX, h.MY); !ok {
		return h, fmt.Errorf("grid %d: dimensions %dx%d overflow", h.ID, h.MX, h.MY)
	}
	return h, nil
}

// maxPrealloc bounds capacities taken from counts a file declares before
// its data confirms them.
const maxPrealloc = 1 << 16

func capHint(n int) int {
	return min(n, maxPrealloc)
}
