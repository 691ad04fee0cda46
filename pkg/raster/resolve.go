package raster

import (
	"context"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
)

// FrameSource reads one decoded frame. claw.Reader implements it.
type FrameSource interface {
	ReadFrame(frame int) (*amr.Frame, error)
}

// ResolveRequest describes the frame range and overrides of a run.
type ResolveRequest struct {
	Bg, Ed     int     // frame range [Bg, Ed)
	Level      int     // amr.Finest or an explicit level
	Extent     *Extent // nil resolves from the patches
	Resolution float64 // 0 resolves from the finest selected cell size
}

// Resolution is the scan result before a Grid is built.
type Resolution struct {
	Extent  Extent
	DX, DY  float64
	Frames  int // frames read
	Patches int // selected patches seen
}

// ResolveExtent computes the grid shared by every frame of the range.
//
// With both an extent and a resolution supplied no frame is read.
// Otherwise every frame in [Bg, Ed) is read in index order and the selected
// patches are unioned. The default resolution is the cell size of the
// selected patch with the smallest DX; the first such patch wins ties.
func ResolveExtent(ctx context.Context, src FrameSource, req ResolveRequest) (*Grid, error) {
	res, err := Scan(ctx, src, req)
	if err != nil {
		return nil, err
	}
	return NewGrid(res.Extent, res.DX, res.DY)
}

// Scan is ResolveExtent without building the Grid.
func Scan(ctx context.Context, src FrameSource, req ResolveRequest) (Resolution, error) {
	if req.Ed <= req.Bg {
		return Resolution{}, errors.EmptyRange(req.Bg, req.Ed, "no frames requested")
	}
	if req.Extent != nil {
		if err := req.Extent.Validate(); err != nil {
			return Resolution{}, err
		}
	}
	if req.Resolution != 0 {
		if err := validateResolution(req.Resolution); err != nil {
			return Resolution{}, err
		}
	}
	if req.Extent != nil && req.Resolution != 0 {
		return Resolution{Extent: *req.Extent, DX: req.Resolution, DY: req.Resolution}, nil
	}

	var (
		out    Resolution
		bounds amr.Bounds
		found  bool
	)
	for frame := req.Bg; frame < req.Ed; frame++ {
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}
		f, err := src.ReadFrame(frame)
		if err != nil {
			return Resolution{}, err
		}
		out.Frames++
		patches, err := amr.Select(f, req.Level)
		if err != nil {
			return Resolution{}, err
		}
		for i := range patches {
			p := &patches[i]
			if !found {
				bounds, out.DX, out.DY = p.Bounds(), p.DX, p.DY
				found = true
			} else {
				bounds = bounds.Union(p.Bounds())
				if p.DX < out.DX {
					out.DX, out.DY = p.DX, p.DY
				}
			}
			out.Patches++
		}
	}
	if !found {
		return Resolution{}, errors.EmptyRange(req.Bg, req.Ed, "no patches at %s", amr.LevelName(req.Level))
	}

	out.Extent = ExtentOf(bounds)
	if req.Extent != nil {
		out.Extent = *req.Extent
	}
	if req.Resolution != 0 {
		out.DX, out.DY = req.Resolution, req.Resolution
	}
	return out, nil
}
