// Package raster resamples AMR patches onto one uniform grid.
//
// A run resolves a single [Grid] up front, either from explicit overrides or
// by scanning every frame of the requested range ([ResolveExtent]). Each
// frame is then sampled onto that grid ([Rasterize]) and dry cells are
// replaced by the nodata sentinel ([MaskDry]).
//
// # Sampling
//
// Output cell (c, r) has its centre at
//
//	x = XMin + (c+0.5)*DX
//	y = YMin + (r+0.5)*DY
//
// with row 0 at YMin. A cell takes the value of the patch cell whose
// half-open footprint contains its centre. Values are never averaged.
// When two selected patches contain the same centre the first patch in
// the slice wins; [amr.Select] returns patches in ID order, so the result
// does not depend on the order the solver wrote them.
package raster
