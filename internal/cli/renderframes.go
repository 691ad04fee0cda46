package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/amrraster/pkg/claw"
	"github.com/matzehuels/amrraster/pkg/config"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/render"
	"github.com/matzehuels/amrraster/pkg/topo"
)

// defaultMargin pads the resolved extent of rendered frames.
const defaultMargin = 0.1

// framesFlags holds the flags of the render-frames command.
type framesFlags struct {
	raster  rasterFlags
	cmin    float64  // lower end of the colour range
	cmax    float64  // upper end of the colour range
	border  bool     // draw patch borders
	resume  bool     // keep an existing plot directory and skip its frames
	topo    string   // ESRI ASCII topography drawn under the data
	sources []string // X,Y point sources
	ramp    string   // named colour ramp
	margin  float64  // fraction padded around the resolved extent
	plotDir string   // output directory
}

// renderFramesCommand creates the render-frames command.
func (c *CLI) renderFramesCommand() *cobra.Command {
	var f framesFlags

	cmd := &cobra.Command{
		Use:     "render-frames CASE",
		Aliases: []string{"plotdepth"},
		Short:   "Render every frame of a case as a PNG image",
		Long: `Render every frame of a case as a PNG image.

Frames are rasterized exactly as for create-raster-series and written to
CASE/_plots/depth/<level>/frameNNNN.png. An existing plot directory is moved
to a timestamped backup unless --continue is given, in which case frames
whose image already exists are skipped.`,
		Example: `  amrraster plotdepth cases/utah --border --cmax 0.2
  amrraster plotdepth cases/utah --continue --source 450,300`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRenderFrames(cmd.Context(), cmd, args[0], &f)
		},
	}

	f.raster.register(cmd)
	cmd.Flags().Float64Var(&f.cmin, "cmin", 0, "lower end of the colour range (default: data minimum of each frame)")
	cmd.Flags().Float64Var(&f.cmax, "cmax", 0, "upper end of the colour range (default: data maximum of each frame)")
	cmd.Flags().BoolVar(&f.border, "border", false, "draw the borders of the selected patches")
	cmd.Flags().BoolVar(&f.resume, "continue", false, "continue in an existing plot directory, skipping finished frames")
	cmd.Flags().StringVar(&f.topo, "topo", "", "ESRI ASCII topography file drawn under the data (default: first file of topo.data)")
	cmd.Flags().StringArrayVar(&f.sources, "source", nil, "point source X,Y to mark, repeatable (default: from landspill.data)")
	cmd.Flags().StringVar(&f.ramp, "colormap", "depth", "colour ramp, one of "+strings.Join(render.RampNames(), ", "))
	cmd.Flags().Float64Var(&f.margin, "margin", defaultMargin, "fraction of the extent padded on each side")
	cmd.Flags().StringVar(&f.plotDir, "plot-dir", "", "output directory (default: CASE/_plots/depth/<level>)")

	return cmd
}

// runRenderFrames rasterizes the frames of a case into PNG images.
func (c *CLI) runRenderFrames(ctx context.Context, cmd *cobra.Command, caseDir string, f *framesFlags) error {
	logger := loggerFromContext(ctx)
	if err := checkCase(caseDir); err != nil {
		return err
	}

	settings, err := f.raster.loadSettings(caseDir)
	if err != nil {
		return err
	}
	opts, err := f.raster.options(cmd, caseDir, settings)
	if err != nil {
		return err
	}
	opts.Logger = logger
	opts.Margin = pick(cmd.Flags().Changed("margin"), f.margin, settings.Render.Margin, defaultMargin)

	runner := c.newRunner()
	if err := runner.Prepare(&opts); err != nil {
		return err
	}

	renderOpts, err := f.rendererOptions(cmd, settings, caseDir, opts.SolutionDir)
	if err != nil {
		return err
	}

	dir := resolvePath(caseDir, f.plotDir)
	if dir == "" {
		dir = render.PlotDir(caseDir, opts.Level)
	}
	sink, err := render.NewImageSink(dir, render.New(renderOpts...), f.resume)
	if err != nil {
		return err
	}
	if sink.Backup != "" {
		printWarning("Moved existing plots to %s", sink.Backup)
	}

	bg, ed := opts.Range()
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Reading frames...")
	unwatch := watchPipeline(spinner, ed-bg)
	spinner.Start()

	result, err := runner.Run(ctx, opts, sink)
	unwatch()
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d frames", sink.Written()))

	printSuccess("Frames rendered")
	printFile(dir)
	printRunStats(result)
	return nil
}

// rendererOptions merges the colour, overlay and topography flags with the
// case settings. Topography and point sources left unset by both fall back
// to the run setup files of the solution directory.
func (f *framesFlags) rendererOptions(cmd *cobra.Command, s *config.Settings, caseDir, solnDir string) ([]render.Option, error) {
	changed := cmd.Flags().Changed
	r := s.Render
	var opts []render.Option

	if cmin := pickPtr(changed("cmin"), f.cmin, r.CMin); cmin != nil {
		opts = append(opts, render.WithColorMin(*cmin))
	}
	if cmax := pickPtr(changed("cmax"), f.cmax, r.CMax); cmax != nil {
		opts = append(opts, render.WithColorMax(*cmax))
	}
	if pick(changed("border"), f.border, r.Border, false) {
		opts = append(opts, render.WithBorders())
	}

	rampName := f.ramp
	if !changed("colormap") && r.ColorMap != "" {
		rampName = r.ColorMap
	}
	ramp, err := render.RampByName(rampName)
	if err != nil {
		return nil, err
	}
	opts = append(opts, render.WithRamp(ramp))

	topoPath, err := f.topoPath(changed("topo"), r.Topo, caseDir, solnDir)
	if err != nil {
		return nil, err
	}
	if topoPath != "" {
		g, err := topo.ReadFile(topoPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, render.WithTopo(g))
	}

	points, err := f.points(changed("source"), r.Sources, solnDir)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		opts = append(opts, render.WithSources(points...))
	}
	return opts, nil
}

// topoPath picks the flag, then the settings, then the first entry of the
// run's topo.data.
func (f *framesFlags) topoPath(flagSet bool, setting, caseDir, solnDir string) (string, error) {
	switch {
	case flagSet:
		return f.topo, nil
	case setting != "":
		return setting, nil
	}
	files, err := claw.ReadTopoFiles(solnDir, caseDir)
	if err != nil || len(files) == 0 {
		return "", err
	}
	if files[0].Type != claw.TopoTypeESRI {
		printWarning("Skipping topography %s: topotype %d is not ESRI ASCII", files[0].Path, files[0].Type)
		return "", nil
	}
	return files[0].Path, nil
}

// points picks the flag, then the settings, then the run's landspill.data.
func (f *framesFlags) points(flagSet bool, setting [][]float64, solnDir string) ([]render.Point, error) {
	if flagSet {
		points := make([]render.Point, 0, len(f.sources))
		for _, s := range f.sources {
			p, err := parsePoint(s)
			if err != nil {
				return nil, err
			}
			points = append(points, p)
		}
		return points, nil
	}
	if len(setting) > 0 {
		points := make([]render.Point, len(setting))
		for i, p := range setting {
			points[i] = render.Point{X: p[0], Y: p[1]}
		}
		return points, nil
	}
	run, err := claw.ReadPointSources(solnDir)
	if err != nil {
		return nil, err
	}
	points := make([]render.Point, len(run))
	for i, p := range run {
		points[i] = render.Point{X: p[0], Y: p[1]}
	}
	return points, nil
}

// parsePoint parses "X,Y".
func parsePoint(s string) (render.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return render.Point{}, errors.New(errors.ErrCodeInvalidInput, "--source %q: want X,Y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return render.Point{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "--source %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return render.Point{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "--source %q", s)
	}
	return render.Point{X: x, Y: y}, nil
}
