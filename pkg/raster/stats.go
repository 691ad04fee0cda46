package raster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the data cells of a frame.
type Summary struct {
	Cells  int     // grid cells
	Valid  int     // cells holding data
	Min    float64 // zero when Valid == 0
	Max    float64
	Mean   float64
	StdDev float64
	// Volume is the sum of the valid values times the cell area; for a depth
	// field it is the water volume on the grid.
	Volume float64
}

// Summarize computes statistics over the non-nodata cells of f.
func Summarize(f *Frame) Summary {
	valid := f.Valid()
	s := Summary{Cells: len(f.Data), Valid: len(valid)}
	if len(valid) == 0 {
		return s
	}
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	if len(valid) == 1 {
		s.StdDev = 0
	}
	s.Volume = floats.Sum(valid) * f.Grid.DX * f.Grid.DY
	return s
}

// Valid returns the values of the cells holding data, in storage order.
func (f *Frame) Valid() []float64 {
	out := make([]float64, 0, len(f.Data))
	for _, v := range f.Data {
		if !f.IsNoData(v) {
			out = append(out, v)
		}
	}
	return out
}

// Range returns the minimum and maximum over frames, ignoring nodata.
// ok is false when no frame holds data.
func Range(frames ...*Frame) (lo, hi float64, ok bool) {
	for _, f := range frames {
		valid := f.Valid()
		if len(valid) == 0 {
			continue
		}
		fmin, fmax := floats.Min(valid), floats.Max(valid)
		if !ok {
			lo, hi, ok = fmin, fmax, true
			continue
		}
		lo, hi = min(lo, fmin), max(hi, fmax)
	}
	return lo, hi, ok
}
