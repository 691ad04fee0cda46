// Package render draws rasterized frames as PNG images.
//
// # Overview
//
// A [Renderer] turns one [raster.Frame] into an image:
//
//   - Optional topography background in gray shades (see [WithTopo])
//   - Data cells coloured by a linear ramp over a value range
//   - Optional patch border rectangles (see [WithBorders])
//   - Point-source markers drawn as red dots (see [WithSources])
//
// Basic usage:
//
//	r := render.New(
//	    render.WithColorRange(0, 0.5),
//	    render.WithBorders(),
//	)
//	img, err := r.Render(frame, render.Overlay{Patches: patches})
//
// # Image Sink
//
// [ImageSink] writes one file per frame into a plot directory. Frames whose
// file already exists are skipped, so an interrupted run can be continued.
// Without resume an existing directory is first moved aside to a
// timestamped backup:
//
//	sink, err := render.NewImageSink(render.PlotDir(caseDir, level), r, resume)
//
// Each file is written under a temporary name and renamed, so a frame file
// is either complete or absent.
//
// [raster.Frame]: github.com/matzehuels/amrraster/pkg/raster#Frame
package render
