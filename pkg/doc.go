// Package pkg provides the core libraries for amrraster.
//
// # Overview
//
// amrraster turns the adaptive-mesh-refinement output of a Clawpack/GeoClaw
// run into uniform rasters: either a CF-convention NetCDF time series or one
// PNG image per output frame. The pkg directory is organized into three areas:
//
//  1. Data model and decoding ([amr], [claw])
//  2. Resampling and output ([raster], [series], [render], [topo])
//  3. Orchestration and support ([pipeline], [config], [errors], [observability])
//
// # Architecture
//
// The typical data flow through amrraster:
//
//	Solution directory (fort.tNNNN, fort.qNNNN / fort.bNNNN, claw.data)
//	         ↓
//	    [claw] package (decode frames into AMR patches)
//	         ↓
//	    [amr] package (select the patches of one refinement level)
//	         ↓
//	    [raster] package (resolve the grid, rasterize, mask dry cells)
//	         ↓
//	    [series] or [render] package (NetCDF file or PNG frames)
//
// # Quick Start
//
// Rasterize every frame of a run at the finest level into a NetCDF file:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/amrraster/pkg/pipeline"
//	    "github.com/matzehuels/amrraster/pkg/series"
//	)
//
//	// 1. Describe the run
//	opts := pipeline.Options{
//	    SolutionDir: "_output",
//	    Resolution:  10,
//	}
//
//	// 2. Fill frame range and dry tolerance from claw.data / geoclaw.data
//	runner := pipeline.NewRunner(nil)
//	_ = runner.Prepare(&opts)
//
//	// 3. Write the series
//	sink, _ := series.NewSink("depth.nc", series.Metadata{})
//	result, _ := runner.Run(context.Background(), opts, sink)
//
// # Main Packages
//
// [amr] - Patches, frames and level selection. Level 0 means "finest level
// present in the frame".
//
// [claw] - Readers for the solver's output directory: the fort.t frame
// headers, ASCII fort.q and binary fort.b patch data, and the Fortran-style
// *.data run metadata files.
//
// [raster] - Uniform grids, extents, the two-pass extent scan and the
// cell-centre rasterization of AMR patches.
//
// [series] - Assembly of rasterized frames into a time series and the NetCDF
// writer.
//
// [render] - PNG rendering of rasterized frames with optional topography,
// patch borders and point sources.
//
// [topo] - ESRI ASCII topography used as a plotting background.
//
// [pipeline] - The complete scan → rasterize → write pipeline used by every
// CLI command. Ensures consistent behavior across all entry points.
//
// [config] - Per-case TOML settings.
//
// [errors] - Coded errors that carry the offending frame and level.
//
// [observability] - Hooks for progress reporting and metrics.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/raster/...     # Specific package
//	go test -race ./pkg/pipeline # Parallel frame processing
//
// Tests build solution directories on the fly with [claw/clawtest].
//
// [amr]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/amr
// [claw]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/claw
// [claw/clawtest]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/claw/clawtest
// [raster]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/raster
// [series]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/series
// [render]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/render
// [topo]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/topo
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/amrraster/pkg/observability
package pkg
