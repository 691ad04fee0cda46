package series

import (
	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// Sink collects frames and writes the NetCDF file when closed.
// Nothing is written unless every frame was added and Close succeeds.
type Sink struct {
	Path     string
	Metadata Metadata

	grid   *raster.Grid
	frames []*raster.Frame
	series *TimeSeries
}

// NewSink returns a Sink writing to path.
func NewSink(path string, md Metadata) (*Sink, error) {
	if err := errors.ValidateOutputPath(path); err != nil {
		return nil, err
	}
	md = md.withDefaults()
	if err := errors.ValidateVariableName(md.Variable); err != nil {
		return nil, err
	}
	return &Sink{Path: path, Metadata: md}, nil
}

// Skip reports false: a time series needs every frame.
func (s *Sink) Skip(int) bool { return false }

// Add buffers one frame.
func (s *Sink) Add(rf *raster.Frame, _ []amr.Patch) error {
	if s.grid == nil {
		s.grid = rf.Grid
	}
	s.frames = append(s.frames, rf)
	return nil
}

// Close assembles the buffered frames and writes the file.
func (s *Sink) Close() error {
	ts, err := Assemble(s.grid, s.frames)
	if err != nil {
		return err
	}
	if err := WriteFile(s.Path, ts, s.Metadata); err != nil {
		return err
	}
	s.series = ts
	return nil
}

// Series returns the assembled series after a successful Close.
func (s *Sink) Series() *TimeSeries { return s.series }
