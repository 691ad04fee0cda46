package raster

import (
	"math"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
)

// Extent is a bounding box in solver coordinates.
type Extent struct {
	XMin float64 `json:"xmin" toml:"xmin"`
	YMin float64 `json:"ymin" toml:"ymin"`
	XMax float64 `json:"xmax" toml:"xmax"`
	YMax float64 `json:"ymax" toml:"ymax"`
}

// ExtentOf converts patch bounds to an Extent.
func ExtentOf(b amr.Bounds) Extent {
	return Extent{XMin: b.XMin, YMin: b.YMin, XMax: b.XMax, YMax: b.YMax}
}

// ParseExtent builds an Extent from xmin, ymin, xmax, ymax and validates it.
func ParseExtent(v []float64) (Extent, error) {
	if len(v) != 4 {
		return Extent{}, errors.New(errors.ErrCodeInvalidExtent,
			"extent needs 4 values (xmin ymin xmax ymax), got %d", len(v))
	}
	e := Extent{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
	return e, e.Validate()
}

// Validate reports a degenerate or non-finite extent.
func (e Extent) Validate() error {
	for _, v := range [...]float64{e.XMin, e.YMin, e.XMax, e.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidExtent, "extent %v is not finite", e)
		}
	}
	if e.XMin >= e.XMax {
		return errors.New(errors.ErrCodeInvalidExtent, "xmin %g must be less than xmax %g", e.XMin, e.XMax)
	}
	if e.YMin >= e.YMax {
		return errors.New(errors.ErrCodeInvalidExtent, "ymin %g must be less than ymax %g", e.YMin, e.YMax)
	}
	return nil
}

// Width returns XMax - XMin.
func (e Extent) Width() float64 { return e.XMax - e.XMin }

// Height returns YMax - YMin.
func (e Extent) Height() float64 { return e.YMax - e.YMin }

// Union returns the smallest extent containing e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		XMin: math.Min(e.XMin, o.XMin),
		YMin: math.Min(e.YMin, o.YMin),
		XMax: math.Max(e.XMax, o.XMax),
		YMax: math.Max(e.YMax, o.YMax),
	}
}

// Pad grows the extent on every side by frac times its width and height.
// Resolved extents carry no margin; plotting callers add one with Pad.
func (e Extent) Pad(frac float64) Extent {
	dx, dy := e.Width()*frac, e.Height()*frac
	return Extent{XMin: e.XMin - dx, YMin: e.YMin - dy, XMax: e.XMax + dx, YMax: e.YMax + dy}
}
