package raster

import (
	"math"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// MaskDry returns a copy of f in which every cell with a value below tol
// holds nodata. A value equal to tol is kept. f is not modified.
func MaskDry(f *Frame, tol float64) (*Frame, error) {
	if err := errors.ValidateDryTolerance(tol); err != nil {
		return nil, err
	}
	out := f.Clone()
	for k, v := range out.Data {
		if out.IsNoData(v) {
			continue
		}
		if v < tol || math.IsNaN(v) {
			out.Data[k] = out.NoData
		}
	}
	return out, nil
}
