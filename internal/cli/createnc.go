package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/buildinfo"
	"github.com/matzehuels/amrraster/pkg/config"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/series"
)

// seriesFlags holds the flags of the create-raster-series command.
type seriesFlags struct {
	raster   rasterFlags
	destDir  string // output directory, relative to the case
	filename string // output file name, relative to destDir
	variable string // NetCDF data variable
}

// createSeriesCommand creates the create-raster-series command.
func (c *CLI) createSeriesCommand() *cobra.Command {
	var f seriesFlags

	cmd := &cobra.Command{
		Use:     "create-raster-series CASE",
		Aliases: []string{"createnc"},
		Short:   "Convert simulation results to a CF NetCDF raster time series",
		Long: `Convert simulation results to a CF NetCDF raster time series.

Every frame of the range is sampled onto one uniform grid whose extent covers
the selected patches of all frames and whose cell size is the finest selected
cell size, unless --extent and --res say otherwise. Dry cells and cells outside
every patch hold the nodata value.

The file is written only when every frame succeeded; a failed run leaves no
partial output behind.`,
		Example: `  amrraster createnc cases/utah --level 2
  amrraster createnc cases/utah --frame-bg 10 --frame-ed 20 --res 0.5 --filename utah.nc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCreateSeries(cmd.Context(), cmd, args[0], &f)
		},
	}

	f.raster.register(cmd)
	cmd.Flags().StringVar(&f.destDir, "dest-dir", "", "output directory, relative paths are relative to CASE (default: the solution directory)")
	cmd.Flags().StringVar(&f.filename, "filename", "", "output file name, relative to the output directory (default: <case>-<level>.nc)")
	cmd.Flags().StringVar(&f.variable, "variable", series.DefaultVariable, "name of the NetCDF data variable")

	return cmd
}

// runCreateSeries rasterizes the frames of a case into one NetCDF file.
func (c *CLI) runCreateSeries(ctx context.Context, cmd *cobra.Command, caseDir string, f *seriesFlags) error {
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

	runner := c.newRunner()
	if err := runner.Prepare(&opts); err != nil {
		return err
	}

	out := seriesPath(caseDir, opts.SolutionDir, f.destDir, f.filename, opts.Level)
	md := seriesMetadata(settings, *opts.DryTol, opts.Level)
	if cmd.Flags().Changed("variable") || md.Variable == "" {
		md.Variable = f.variable
	}
	sink, err := series.NewSink(out, md)
	if err != nil {
		return err
	}

	bg, ed := opts.Range()
	logger.Debug("creating raster series",
		"case", caseDir,
		"soln", opts.SolutionDir,
		"level", amr.LevelName(opts.Level),
		"frames", fmt.Sprintf("[%d, %d)", bg, ed),
		"output", out)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Reading frames...")
	unwatch := watchPipeline(spinner, ed-bg)
	spinner.Start()

	result, err := runner.Run(ctx, opts, sink)
	unwatch()
	if err != nil {
		spinner.StopWithError("Raster series failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Wrote %d frames", result.Frames))

	printSuccess("Raster series created")
	printFile(out)
	printRunStats(result)
	printNextStep("Inspect the header", "ncdump -h "+out)
	return nil
}

// seriesMetadata builds the NetCDF metadata from the case settings.
func seriesMetadata(s *config.Settings, dryTol float64, level int) series.Metadata {
	n := s.NetCDF
	return series.Metadata{
		Variable:      s.Raster.Variable,
		Units:         n.Units,
		LongName:      n.LongName,
		CoordUnits:    n.CoordUnits,
		ReferenceTime: n.ReferenceTime,
		Title:         n.Title,
		CRS:           n.CRS,
		Source:        buildinfo.Source(appName),
		History:       history(),
		Level:         level,
		DryTolerance:  dryTol,
	}
}

// history records the command line in the history attribute.
func history() string {
	return strings.Join(os.Args, " ")
}

// checkCase reports a missing case directory before anything else.
func checkCase(caseDir string) error {
	info, err := os.Stat(caseDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "case directory %s", caseDir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "case %s is not a directory", caseDir)
	}
	return nil
}
