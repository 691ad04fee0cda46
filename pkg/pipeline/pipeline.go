// Package pipeline runs the two-pass AMR rasterization pipeline.
//
// The pipeline is shared by every command of the CLI so that the NetCDF
// series and the PNG frame sequence see exactly the same grid and the same
// cell values.
//
// # Architecture
//
// A run consists of two passes over the frame range [FrameBg, FrameEd):
//
//  1. Scan: read every frame, select the requested level and resolve the
//     common extent and cell size (raster.ResolveExtent)
//  2. Rasterize: read each frame again, sample the selected patches onto the
//     common grid, mask dry cells and hand the result to a Sink
//
// Frames reach the Sink strictly in index order. The Sink decides what to do
// with them: series.Sink buffers the frames and writes one NetCDF file when
// closed, render.ImageSink writes one PNG per frame.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{SolutionDir: "case/_output"}
//	sink, _ := series.NewSink("case/depth.nc", series.Metadata{})
//	result, err := runner.Run(ctx, opts, sink)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Grid.NCols, result.Grid.NRows)
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// =============================================================================
// Default Values - Single Source of Truth for the CLI commands
// =============================================================================

const (
	// DefaultNoData marks cells that no selected patch covers, and dry cells.
	DefaultNoData = -9999.0

	// DefaultWorkers rasterizes frames sequentially.
	DefaultWorkers = 1

	// DefaultSolutionDir is the solver output directory relative to a case.
	DefaultSolutionDir = "_output"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// Pointer fields distinguish "unset" from a legitimate zero value; unset
// fields are defaulted from the solver run metadata.
type Options struct {
	SolutionDir string         `json:"solution_dir"`
	Level       int            `json:"level,omitempty"` // amr.Finest resolves per frame
	FrameBg     int            `json:"frame_bg"`
	FrameEd     *int           `json:"frame_ed,omitempty"` // exclusive
	Extent      *raster.Extent `json:"extent,omitempty"`
	Resolution  float64        `json:"resolution,omitempty"`
	Margin      float64        `json:"margin,omitempty"` // fraction padded around a resolved extent
	DryTol      *float64       `json:"dry_tolerance,omitempty"`
	NoData      *float64       `json:"nodata,omitempty"`
	Field       int            `json:"field,omitempty"` // equation index within q
	Workers     int            `json:"workers,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger  `json:"-"`
	Decoder claw.Decoder `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Grid is the common grid of every frame.
	Grid *raster.Grid

	// Frames is the number of frames delivered to the sink.
	Frames int

	// Skipped is the number of frames the sink already had.
	Skipped int

	// Peak is the largest valid cell value over the delivered frames.
	// It is NaN when no frame held a valid cell.
	Peak float64

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ScanFrames    int
	ScanPatches   int
	ScanTime      time.Duration
	RasterizeTime time.Duration
	WriteTime     time.Duration
}

// Sink consumes rasterized frames in index order.
type Sink interface {
	// Skip reports whether frame is already present and need not be produced.
	Skip(frame int) bool

	// Add receives one masked frame together with the patches it was sampled from.
	Add(rf *raster.Frame, patches []amr.Patch) error

	// Close finalizes the output. It is not called when the run fails.
	Close() error
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills unset fields from the
// solver run metadata. meta may be nil when every defaulted field is set.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults(meta *claw.RunData) error {
	if o.validated {
		return nil
	}
	if o.SolutionDir == "" {
		return errors.New(errors.ErrCodeInvalidPath, "solution directory is required")
	}
	if o.Level < 0 {
		return errors.New(errors.ErrCodeInvalidLevel, "level must be >= 1 or unset for the finest level, got %d", o.Level)
	}
	if o.Field < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "field must be >= 0, got %d", o.Field)
	}

	if o.FrameEd == nil {
		if meta == nil {
			return errors.New(errors.ErrCodeMissingMetadata, "no run metadata; pass the end frame explicitly")
		}
		n, err := meta.FrameCount()
		if err != nil {
			return err
		}
		o.FrameEd = &n
	}
	if err := errors.ValidateFrameRange(o.FrameBg, *o.FrameEd); err != nil {
		return err
	}

	if o.DryTol == nil {
		if meta == nil {
			return errors.New(errors.ErrCodeMissingMetadata, "no run metadata; pass the dry tolerance explicitly")
		}
		tol, err := meta.DefaultDryTolerance()
		if err != nil {
			return err
		}
		o.DryTol = &tol
	}
	if err := errors.ValidateDryTolerance(*o.DryTol); err != nil {
		return err
	}

	if o.NoData == nil {
		nodata := DefaultNoData
		o.NoData = &nodata
	}
	if err := errors.ValidateNoData(*o.NoData); err != nil {
		return err
	}

	if o.Extent != nil {
		if err := o.Extent.Validate(); err != nil {
			return err
		}
	}
	if o.Resolution < 0 || math.IsNaN(o.Resolution) || math.IsInf(o.Resolution, 0) {
		return errors.New(errors.ErrCodeInvalidResolution, "resolution must be a finite value > 0, got %g", o.Resolution)
	}
	if o.Margin < 0 || math.IsNaN(o.Margin) || math.IsInf(o.Margin, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "margin must be a finite fraction >= 0, got %g", o.Margin)
	}

	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Decoder == nil {
		o.Decoder = claw.AutoDecoder{Field: o.Field}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Range returns the validated frame range [bg, ed).
func (o *Options) Range() (bg, ed int) {
	if o.FrameEd == nil {
		return o.FrameBg, o.FrameBg
	}
	return o.FrameBg, *o.FrameEd
}

// request builds the extent resolution request of the options.
func (o *Options) request() raster.ResolveRequest {
	bg, ed := o.Range()
	return raster.ResolveRequest{
		Bg:         bg,
		Ed:         ed,
		Level:      o.Level,
		Extent:     o.Extent,
		Resolution: o.Resolution,
	}
}
