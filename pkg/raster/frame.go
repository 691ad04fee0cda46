package raster

import "math"

// Frame is one frame sampled onto a Grid. Data is row-major with row 0 at
// the southern edge; cells without data hold NoData.
type Frame struct {
	Grid   *Grid
	Index  int
	Time   float64
	NoData float64
	Data   []float64
}

// NewFrame returns a frame with every cell set to nodata.
func NewFrame(g *Grid, index int, time, nodata float64) *Frame {
	data := make([]float64, g.Len())
	for k := range data {
		data[k] = nodata
	}
	return &Frame{Grid: g, Index: index, Time: time, NoData: nodata, Data: data}
}

// At returns the value of cell (c, r).
func (f *Frame) At(c, r int) float64 { return f.Data[f.Grid.Index(c, r)] }

// IsNoData reports whether v is the nodata sentinel of f. A NaN sentinel
// matches any NaN.
func (f *Frame) IsNoData(v float64) bool {
	if math.IsNaN(f.NoData) {
		return math.IsNaN(v)
	}
	return v == f.NoData
}

// Clone returns a deep copy of the frame sharing the same grid.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Data = append([]float64(nil), f.Data...)
	return &c
}
