package claw

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
)

// Decoder turns the files of one frame into an amr.Frame.
// Implementations must report absent files with errors.MissingFrame and
// inconsistent content with errors.CorruptFrame.
type Decoder interface {
	Decode(dir string, frame int) (*amr.Frame, error)
}

// ASCIIDecoder decodes frames written with the ascii format.
// Field selects the equation to keep (0 is the water depth h).
type ASCIIDecoder struct {
	Field int
}

// Decode implements Decoder.
func (d ASCIIDecoder) Decode(dir string, frame int) (*amr.Frame, error) {
	fh, err := ReadFrameHeader(dir, frame)
	if err != nil {
		return nil, err
	}
	return d.decode(dir, frame, fh)
}

func (d ASCIIDecoder) decode(dir string, frame int, fh FrameHeader) (*amr.Frame, error) {
	if err := checkField(d.Field, fh, frame); err != nil {
		return nil, err
	}

	f, err := openFrameFile(dir, PatchFile(frame), frame)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &amr.Frame{Index: frame, Time: fh.Time, Patches: make([]amr.Patch, 0, capHint(fh.NGrids))}
	lr := newLineReader(f)
	for g := 0; g < fh.NGrids; g++ {
		ph, err := lr.patchHeader()
		if err != nil {
			return nil, errors.WrapCorruptFrame(frame, err, "%s: patch %d of %d", PatchFile(frame), g+1, fh.NGrids)
		}
		n := ph.MX * ph.MY
		values := make([]float64, 0, capHint(n))
		for k := 0; k < n; k++ {
			fields, err := lr.next()
			if err == io.EOF {
				return nil, errors.CorruptFrame(frame, "patch %d declares %d values, decoded %d", ph.ID, n, k)
			}
			if err != nil {
				return nil, errors.WrapCorruptFrame(frame, err, "%s", PatchFile(frame))
			}
			if len(fields) != fh.MEqn {
				return nil, errors.CorruptFrame(frame, "%s line %d: expected %d values, got %d",
					PatchFile(frame), lr.line, fh.MEqn, len(fields))
			}
			v, err := parseFortranFloat(fields[d.Field])
			if err != nil {
				return nil, errors.WrapCorruptFrame(frame, err, "%s line %d", PatchFile(frame), lr.line)
			}
			values = append(values, v)
		}
		out.Patches = append(out.Patches, newPatch(ph, values))
	}

	if fields, err := lr.next(); err != io.EOF {
		if err != nil {
			return nil, errors.WrapCorruptFrame(frame, err, "%s", PatchFile(frame))
		}
		return nil, errors.CorruptFrame(frame, "%s: trailing data after %d patches at line %d (%q)",
			PatchFile(frame), fh.NGrids, lr.line, fields[0])
	}
	return out, nil
}

// BinaryDecoder decodes frames written with a binary format. Width is the
// size of one value in bytes (4 or 8); zero takes it from fort.tNNNN.
type BinaryDecoder struct {
	Field int
	Width int
}

// Decode implements Decoder.
func (d BinaryDecoder) Decode(dir string, frame int) (*amr.Frame, error) {
	fh, err := ReadFrameHeader(dir, frame)
	if err != nil {
		return nil, err
	}
	return d.decode(dir, frame, fh)
}

func (d BinaryDecoder) decode(dir string, frame int, fh FrameHeader) (*amr.Frame, error) {
	if err := checkField(d.Field, fh, frame); err != nil {
		return nil, err
	}
	width := d.Width
	if width == 0 {
		width = 8
		if fh.Format == FormatBinary32 {
			width = 4
		}
	}
	if width != 4 && width != 8 {
		return nil, errors.New(errors.ErrCodeUnsupported, "binary value width %d", width)
	}

	hf, err := openFrameFile(dir, PatchFile(frame), frame)
	if err != nil {
		return nil, err
	}
	defer hf.Close()

	headers := make([]PatchHeader, 0, capHint(fh.NGrids))
	lr := newLineReader(hf)
	for g := 0; g < fh.NGrids; g++ {
		ph, err := lr.patchHeader()
		if err != nil {
			return nil, errors.WrapCorruptFrame(frame, err, "%s: patch %d of %d", PatchFile(frame), g+1, fh.NGrids)
		}
		headers = append(headers, ph)
	}

	data, err := os.ReadFile(filepath.Join(dir, BinaryFile(frame)))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.MissingFrame(frame, err)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "frame %d: read %s", frame, BinaryFile(frame))
	}

	g := fh.NGhost
	out := &amr.Frame{Index: frame, Time: fh.Time, Patches: make([]amr.Patch, 0, len(headers))}
	offset := 0
	for _, ph := range headers {
		mxg, myg := ph.MX+2*g, ph.MY+2*g
		size, ok := blockSize(fh.MEqn, mxg, myg, width)
		if !ok {
			return nil, errors.CorruptFrame(frame, "%s: patch %d dimensions %dx%d with %d ghost cells overflow",
				BinaryFile(frame), ph.ID, ph.MX, ph.MY, g)
		}
		if size > len(data)-offset {
			return nil, errors.CorruptFrame(frame, "%s: patch %d needs %d bytes at offset %d, file has %d",
				BinaryFile(frame), ph.ID, size, offset, len(data))
		}
		block := data[offset : offset+size]
		values := make([]float64, ph.MX*ph.MY)
		for j := 0; j < ph.MY; j++ {
			for i := 0; i < ph.MX; i++ {
				k := ((j+g)*mxg+(i+g))*fh.MEqn + d.Field
				values[j*ph.MX+i] = readFloat(block, k, width)
			}
		}
		out.Patches = append(out.Patches, newPatch(ph, values))
		offset += size
	}
	if offset != len(data) {
		return nil, errors.CorruptFrame(frame, "%s: %d trailing bytes after %d patches",
			BinaryFile(frame), len(data)-offset, len(headers))
	}
	return out, nil
}

// blockSize returns the product of positive factors, or false when a factor
// is not positive or the product overflows.
func blockSize(factors ...int) (int, bool) {
	n := 1
	for _, f := range factors {
		if f <= 0 || n > math.MaxInt/f {
			return 0, false
		}
		n *= f
	}
	return n, true
}

func readFloat(b []byte, k, width int) float64 {
	if width == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[k*4:])))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[k*8:]))
}

// AutoDecoder dispatches on the format entry of fort.tNNNN.
type AutoDecoder struct {
	Field int
}

// Decode implements Decoder.
func (d AutoDecoder) Decode(dir string, frame int) (*amr.Frame, error) {
	fh, err := ReadFrameHeader(dir, frame)
	if err != nil {
		return nil, err
	}
	switch fh.Format {
	case FormatASCII:
		return ASCIIDecoder{Field: d.Field}.decode(dir, frame, fh)
	case FormatBinary32, FormatBinary64:
		return BinaryDecoder{Field: d.Field}.decode(dir, frame, fh)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "frame %d: %s", frame, fh.Format)
}

func checkField(field int, fh FrameHeader, frame int) error {
	if field < 0 || field >= fh.MEqn {
		return errors.New(errors.ErrCodeInvalidInput,
			"frame %d: field %d out of range, frame has %d equations", frame, field, fh.MEqn)
	}
	return nil
}

func newPatch(ph PatchHeader, values []float64) amr.Patch {
	return amr.Patch{
		ID:     ph.ID,
		Level:  ph.Level,
		NX:     ph.MX,
		NY:     ph.MY,
		X0:     ph.XLow,
		Y0:     ph.YLow,
		DX:     ph.DX,
		DY:     ph.DY,
		Values: values,
	}
}

// Reader reads validated frames from a solution directory.
type Reader struct {
	Dir     string
	Decoder Decoder
}

// NewReader returns a Reader for dir. A nil decoder selects AutoDecoder.
func NewReader(dir string, d Decoder) *Reader {
	if d == nil {
		d = AutoDecoder{}
	}
	return &Reader{Dir: dir, Decoder: d}
}

// ReadFrame decodes and validates one frame.
func (r *Reader) ReadFrame(frame int) (*amr.Frame, error) {
	if frame < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "frame index must be >= 0, got %d", frame)
	}
	f, err := r.Decoder.Decode(r.Dir, frame)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f.Time) || math.IsInf(f.Time, 0) {
		return nil, errors.CorruptFrame(frame, "invalid time %g", f.Time)
	}
	for i := range f.Patches {
		if err := f.Patches[i].Validate(); err != nil {
			return nil, errors.WrapCorruptFrame(frame, err, "invalid patch geometry")
		}
	}
	return f, nil
}

// String describes the reader for log output.
func (r *Reader) String() string {
	return fmt.Sprintf("%s (%T)", r.Dir, r.Decoder)
}
