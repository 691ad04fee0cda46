package raster

import (
	"math"

	"github.com/matzehuels/amrraster/pkg/amr"
)

// Rasterize samples the selected patches of a frame onto g.
//
// Patches are visited in slice order and a cell keeps the first value it
// receives. Cells whose centre lies in no patch footprint hold nodata.
func Rasterize(g *Grid, index int, time float64, patches []amr.Patch, nodata float64) *Frame {
	out := NewFrame(g, index, time, nodata)
	covered := make([]bool, g.Len())
	for i := range patches {
		samplePatch(out, covered, &patches[i])
	}
	return out
}

// samplePatch writes the cells whose centres fall inside p.
func samplePatch(out *Frame, covered []bool, p *amr.Patch) {
	g := out.Grid
	b := p.Bounds()
	c0, c1 := span(b.XMin, b.XMax, g.Extent.XMin, g.DX, g.NCols)
	r0, r1 := span(b.YMin, b.YMax, g.Extent.YMin, g.DY, g.NRows)
	for r := r0; r < r1; r++ {
		y := g.Y(r)
		if y < b.YMin || y >= b.YMax {
			continue
		}
		j := clamp(int(math.Floor((y-p.Y0)/p.DY)), p.NY)
		for c := c0; c < c1; c++ {
			x := g.X(c)
			if x < b.XMin || x >= b.XMax {
				continue
			}
			k := g.Index(c, r)
			if covered[k] {
				continue
			}
			out.Data[k] = p.At(clamp(int(math.Floor((x-p.X0)/p.DX)), p.NX), j)
			covered[k] = true
		}
	}
}

// span returns a column (or row) range, one cell wider on each side than
// the exact answer, covering the centres inside [lo, hi). Callers test each
// centre against the footprint.
func span(lo, hi, origin, d float64, n int) (int, int) {
	from := int(math.Floor((lo-origin)/d-0.5)) - 1
	to := int(math.Ceil((hi-origin)/d-0.5)) + 1
	return max(from, 0), min(to, n)
}

func clamp(i, n int) int {
	return min(max(i, 0), n-1)
}
