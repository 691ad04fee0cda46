package amr

import (
	"fmt"
	"math"
)

// Bounds is an axis-aligned rectangle (XMin, YMin)-(XMax, YMax).
type Bounds struct {
	XMin, YMin, XMax, YMax float64
}

// Union returns the smallest rectangle containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		XMin: math.Min(b.XMin, o.XMin),
		YMin: math.Min(b.YMin, o.YMin),
		XMax: math.Max(b.XMax, o.XMax),
		YMax: math.Max(b.YMax, o.YMax),
	}
}

// Contains reports whether (x, y) lies in the half-open rectangle [XMin, XMax) x [YMin, YMax).
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.XMin && x < b.XMax && y >= b.YMin && y < b.YMax
}

// Patch is one rectangular block of cell-centred values at a single
// refinement level. Values are stored row-major with j (northing) as the
// outer index: Values[j*NX+i] is cell (i, j).
type Patch struct {
	ID     int // grid number assigned by the solver
	Level  int // refinement level, >= 1
	NX, NY int
	X0, Y0 float64 // lower-left corner of the patch
	DX, DY float64 // cell size
	Values []float64
}

// Bounds returns the footprint of the patch.
func (p *Patch) Bounds() Bounds {
	return Bounds{
		XMin: p.X0,
		YMin: p.Y0,
		XMax: p.X0 + float64(p.NX)*p.DX,
		YMax: p.Y0 + float64(p.NY)*p.DY,
	}
}

// At returns the value of cell (i, j).
func (p *Patch) At(i, j int) float64 {
	return p.Values[j*p.NX+i]
}

// Validate checks the geometry of the patch against its value array.
func (p *Patch) Validate() error {
	switch {
	case p.Level < 1:
		return fmt.Errorf("patch %d: level %d < 1", p.ID, p.Level)
	case p.NX <= 0 || p.NY <= 0:
		return fmt.Errorf("patch %d: non-positive dimensions %dx%d", p.ID, p.NX, p.NY)
	case !(p.DX > 0) || !(p.DY > 0) || math.IsInf(p.DX, 0) || math.IsInf(p.DY, 0):
		return fmt.Errorf("patch %d: invalid cell size (%g, %g)", p.ID, p.DX, p.DY)
	case math.IsNaN(p.X0) || math.IsNaN(p.Y0) || math.IsInf(p.X0, 0) || math.IsInf(p.Y0, 0):
		return fmt.Errorf("patch %d: invalid origin (%g, %g)", p.ID, p.X0, p.Y0)
	case len(p.Values) != p.NX*p.NY:
		return fmt.Errorf("patch %d: declared %dx%d = %d values, decoded %d",
			p.ID, p.NX, p.NY, p.NX*p.NY, len(p.Values))
	}
	return nil
}
