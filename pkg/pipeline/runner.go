package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/claw"
	"github.com/matzehuels/amrraster/pkg/observability"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// Runner executes the two-pass pipeline.
//
// The Runner is stateless except for the logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner logging to logger.
// If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Prepare loads the run metadata of opts.SolutionDir when a field needs a
// default from it, then validates opts.
func (r *Runner) Prepare(opts *Options) error {
	if opts.validated {
		return nil
	}
	r.applyLogger(opts)

	var meta *claw.RunData
	if opts.SolutionDir != "" && (opts.FrameEd == nil || opts.DryTol == nil) {
		var err error
		if meta, err = claw.LoadRunData(opts.SolutionDir); err != nil {
			return err
		}
	}
	return opts.ValidateAndSetDefaults(meta)
}

// Resolve runs the first pass and returns the grid shared by every frame.
// A positive Margin pads the resolved extent unless an extent was given.
func (r *Runner) Resolve(ctx context.Context, opts *Options) (*raster.Grid, raster.Resolution, error) {
	if err := r.Prepare(opts); err != nil {
		return nil, raster.Resolution{}, err
	}
	req := opts.request()
	src := r.source(ctx, opts)
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnScanStart(ctx, req.Bg, req.Ed, req.Level)
	res, err := raster.Scan(ctx, src, req)
	hooks.OnScanComplete(ctx, res.Frames, res.Patches, time.Since(start), err)
	if err != nil {
		return nil, raster.Resolution{}, err
	}

	extent := res.Extent
	if opts.Extent == nil && opts.Margin > 0 {
		extent = extent.Pad(opts.Margin)
	}
	g, err := raster.NewGrid(extent, res.DX, res.DY)
	if err != nil {
		return nil, raster.Resolution{}, err
	}
	return g, res, nil
}

// Run resolves the common grid, then rasterizes and masks every frame of
// the range and hands the frames to sink in index order.
//
// With Workers > 1 up to Workers frames are rasterized concurrently; the
// sink still receives them in order. When frames fail, the error of the
// lowest failing frame is returned and sink is not closed.
func (r *Runner) Run(ctx context.Context, opts Options, sink Sink) (*Result, error) {
	if err := r.Prepare(&opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{Peak: math.NaN()}

	// Pass 1: extent
	scanStart := time.Now()
	g, res, err := r.Resolve(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Grid = g
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.ScanFrames = res.Frames
	result.Stats.ScanPatches = res.Patches

	opts.Logger.Info("resolved grid",
		"level", amr.LevelName(opts.Level),
		"cols", g.NCols,
		"rows", g.NRows,
		"dx", g.DX,
		"dy", g.DY,
		"frames", res.Frames,
		"duration", result.Stats.ScanTime)

	// Pass 2: rasterize
	rasterStart := time.Now()
	if err := r.rasterize(ctx, &opts, g, sink, result); err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	result.Stats.RasterizeTime = time.Since(rasterStart)

	opts.Logger.Info("rasterized frames",
		"frames", result.Frames,
		"skipped", result.Skipped,
		"duration", result.Stats.RasterizeTime)

	// Close the sink
	writeStart := time.Now()
	err = sink.Close()
	result.Stats.WriteTime = time.Since(writeStart)
	observability.Pipeline().OnWriteComplete(ctx, result.Frames, result.Stats.WriteTime, err)
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	return result, nil
}

// frameResult is the outcome of one frame of pass 2.
type frameResult struct {
	frame    int
	skipped  bool
	raster   *raster.Frame
	patches  []amr.Patch
	duration time.Duration
	err      error
}

// rasterize processes the range with up to opts.Workers frames in flight
// and delivers them to sink in frame order. At most 2*opts.Workers
// finished frames wait for delivery. The first failure in frame order stops
// the run, so the error reported is always that of the lowest failing frame
// and the sink has received exactly the frames below it.
func (r *Runner) rasterize(ctx context.Context, opts *Options, g *raster.Grid, sink Sink, result *Result) error {
	bg, ed := opts.Range()
	n := ed - bg
	if err := ctx.Err(); err != nil {
		return err
	}

	skip := make([]bool, n)
	for i := range skip {
		skip[i] = sink.Skip(bg + i)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	src := r.source(ctx, opts)

	slots := make([]chan frameResult, n)
	for i := range slots {
		slots[i] = make(chan frameResult, 1)
	}
	window := make(chan struct{}, 2*opts.Workers)

	var eg errgroup.Group
	eg.SetLimit(opts.Workers)
	scheduled := make(chan struct{})
	go func() {
		defer close(scheduled)
		for i := range slots {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			out, slot := frameResult{frame: bg + i, skipped: skip[i]}, slots[i]
			if out.skipped {
				slot <- out
				continue
			}
			eg.Go(func() error {
				t0 := time.Now()
				out.raster, out.patches, out.err = processFrame(ctx, opts, src, g, out.frame)
				out.duration = time.Since(t0)
				slot <- out
				return out.err
			})
		}
	}()

	err := r.deliver(ctx, opts, slots, window, sink, result)
	cancel()
	<-scheduled
	if werr := eg.Wait(); err == nil {
		err = werr
	}
	return err
}

// deliver hands finished frames to sink in frame order.
func (r *Runner) deliver(ctx context.Context, opts *Options, slots []chan frameResult, window chan struct{}, sink Sink, result *Result) error {
	hooks := observability.Pipeline()
	for _, slot := range slots {
		var out frameResult
		select {
		case out = <-slot:
		case <-ctx.Done():
			return ctx.Err()
		}
		<-window

		if out.skipped {
			result.Skipped++
			hooks.OnFrameComplete(ctx, out.frame, true, 0, nil)
			opts.Logger.Debug("skipped frame", "frame", out.frame)
			continue
		}
		if out.err == nil {
			out.err = sink.Add(out.raster, out.patches)
		}
		hooks.OnFrameComplete(ctx, out.frame, false, out.duration, out.err)
		if out.err != nil {
			return out.err
		}
		result.Frames++
		r.logFrame(opts, &out, result)
	}
	return nil
}

// processFrame reads one frame, selects its patches, rasterizes them onto
// g and masks the dry cells.
func processFrame(ctx context.Context, opts *Options, src raster.FrameSource, g *raster.Grid, frame int) (*raster.Frame, []amr.Patch, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := src.ReadFrame(frame)
	if err != nil {
		return nil, nil, err
	}
	patches, err := amr.Select(f, opts.Level)
	if err != nil {
		return nil, nil, err
	}
	raw := raster.Rasterize(g, f.Index, f.Time, patches, *opts.NoData)
	masked, err := raster.MaskDry(raw, *opts.DryTol)
	if err != nil {
		return nil, nil, err
	}
	return masked, patches, nil
}

func (r *Runner) logFrame(opts *Options, out *frameResult, result *Result) {
	s := raster.Summarize(out.raster)
	if s.Valid > 0 && (math.IsNaN(result.Peak) || s.Max > result.Peak) {
		result.Peak = s.Max
	}
	opts.Logger.Debug("rasterized frame",
		"frame", out.frame,
		"time", out.raster.Time,
		"patches", len(out.patches),
		"wet", s.Valid,
		"max", s.Max,
		"duration", out.duration)
}

// source returns the frame source of opts with read hooks attached.
func (r *Runner) source(ctx context.Context, opts *Options) raster.FrameSource {
	return observedSource{ctx: ctx, src: claw.NewReader(opts.SolutionDir, opts.Decoder)}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// observedSource reports every read to the reader hooks.
type observedSource struct {
	ctx context.Context
	src raster.FrameSource
}

func (s observedSource) ReadFrame(frame int) (*amr.Frame, error) {
	start := time.Now()
	f, err := s.src.ReadFrame(frame)
	n := 0
	if f != nil {
		n = len(f.Patches)
	}
	observability.Reader().OnFrameRead(s.ctx, frame, n, time.Since(start), err)
	return f, err
}
