package series

import (
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// TimeSeries is an ordered sequence of frames sharing one grid.
// It is not modified after Assemble returns it.
type TimeSeries struct {
	Grid   *raster.Grid
	Frames []*raster.Frame
	Times  []float64
	NoData float64
}

// Len returns the number of frames.
func (ts *TimeSeries) Len() int { return len(ts.Frames) }

// Assemble checks that frames share g and a nodata value, hold one value
// per grid cell, and have strictly increasing times. Frames are never
// reordered: a time that does not increase is reported as
// NON_MONOTONIC_TIME on the offending frame.
func Assemble(g *raster.Grid, frames []*raster.Frame) (*TimeSeries, error) {
	if len(frames) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyRange, "no frames to assemble")
	}
	ts := &TimeSeries{
		Grid:   g,
		Frames: frames,
		Times:  make([]float64, len(frames)),
		NoData: frames[0].NoData,
	}
	for k, rf := range frames {
		if !rf.Grid.Equal(g) {
			return nil, errors.New(errors.ErrCodeInternal, "frame %d: rasterized on a different grid", rf.Index)
		}
		if len(rf.Data) != g.Len() {
			return nil, errors.New(errors.ErrCodeInternal,
				"frame %d: %d values for a %dx%d grid", rf.Index, len(rf.Data), g.NCols, g.NRows)
		}
		if !rf.IsNoData(ts.NoData) {
			return nil, errors.New(errors.ErrCodeInternal,
				"frame %d: nodata %g differs from %g", rf.Index, rf.NoData, ts.NoData)
		}
		if k > 0 && !(rf.Time > ts.Times[k-1]) {
			return nil, errors.NonMonotonicTime(rf.Index, ts.Times[k-1], rf.Time)
		}
		ts.Times[k] = rf.Time
	}
	return ts, nil
}
