package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/config"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/pipeline"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// rasterFlags holds the flags shared by every command that rasterizes
// frames. A flag that is not given falls back to the case settings file,
// then to the solver run metadata.
type rasterFlags struct {
	level    int       // AMR level, unset selects the finest level
	frameBg  int       // first frame
	frameEd  int       // exclusive end frame
	solnDir  string    // solution directory, relative to the case
	extent   []float64 // xmin, ymin, xmax, ymax
	res      float64   // cell size
	dryTol   float64   // dry tolerance
	nodata   float64   // nodata value
	field    int       // equation index within q
	jobs     int       // frames rasterized concurrently
	settings string    // explicit case settings file
}

// register adds the shared flags to cmd.
func (f *rasterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.level, "level", 0, "AMR level to rasterize (default: finest level of each frame)")
	fl.IntVar(&f.frameBg, "frame-bg", 0, "first frame")
	fl.IntVar(&f.frameEd, "frame-ed", 0, "end frame, exclusive (default: from claw.data)")
	fl.StringVar(&f.solnDir, "soln-dir", pipeline.DefaultSolutionDir, "solution directory, relative paths are relative to CASE")
	fl.Float64SliceVar(&f.extent, "extent", nil, "raster extent XMIN,YMIN,XMAX,YMAX (default: from the solutions)")
	fl.Float64Var(&f.res, "res", 0, "raster cell size (default: finest selected cell size)")
	fl.Float64Var(&f.dryTol, "dry-tol", 0, "dry tolerance (default: from geoclaw.data)")
	fl.Float64Var(&f.nodata, "nodata", pipeline.DefaultNoData, "nodata value")
	fl.IntVar(&f.field, "field", 0, "equation of q to rasterize (0 is the depth)")
	fl.IntVarP(&f.jobs, "jobs", "j", pipeline.DefaultWorkers, "frames rasterized concurrently")
	fl.StringVar(&f.settings, "case-settings", "", "case settings file (default: CASE/"+config.FileName+" if present)")
}

// options merges the flags, the case settings and the defaults into
// pipeline options. Defaults that come from run metadata stay unset.
func (f *rasterFlags) options(cmd *cobra.Command, caseDir string, s *config.Settings) (pipeline.Options, error) {
	changed := cmd.Flags().Changed
	r := s.Raster

	opts := pipeline.Options{
		FrameBg: pick(changed("frame-bg"), f.frameBg, r.FrameBg, 0),
		FrameEd: pickPtr(changed("frame-ed"), f.frameEd, r.FrameEd),
		DryTol:  pickPtr(changed("dry-tol"), f.dryTol, r.DryTolerance),
		NoData:  pickPtr(changed("nodata"), f.nodata, r.NoData),
		Field:   pick(changed("field"), f.field, r.Field, 0),
		Workers: f.jobs,
	}

	switch {
	case changed("soln-dir") || r.SolnDir == "":
		opts.SolutionDir = resolvePath(caseDir, f.solnDir)
	default:
		opts.SolutionDir = r.SolnDir
	}

	if changed("level") && f.level < 1 {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidLevel, "--level must be >= 1, got %d", f.level)
	}
	opts.Level = pick(changed("level"), f.level, r.Level, amr.Finest)

	if changed("res") && !(f.res > 0) {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidResolution, "--res must be positive, got %g", f.res)
	}
	if res := pickPtr(changed("res"), f.res, r.Resolution); res != nil {
		opts.Resolution = *res
	}

	extent := r.Extent
	if changed("extent") {
		extent = f.extent
	}
	if extent != nil {
		e, err := raster.ParseExtent(extent)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Extent = &e
	}

	return opts, nil
}

// loadSettings finds the case settings of caseDir.
func (f *rasterFlags) loadSettings(caseDir string) (*config.Settings, error) {
	return config.Find(caseDir, f.settings)
}

// pick returns the flag value when set, else the settings value when
// present, else def.
func pick[T any](flagSet bool, flag T, file *T, def T) T {
	switch {
	case flagSet:
		return flag
	case file != nil:
		return *file
	}
	return def
}

// pickPtr is pick for options whose default is resolved later.
func pickPtr[T any](flagSet bool, flag T, file *T) *T {
	switch {
	case flagSet:
		return &flag
	case file != nil:
		v := *file
		return &v
	}
	return nil
}

// seriesPath returns the NetCDF output path. A relative filename is placed
// in destDir (relative to the case), or in the solution directory when
// destDir is empty. An absolute filename is used as is.
func seriesPath(caseDir, solnDir, destDir, filename string, level int) string {
	if filename == "" {
		filename = caseName(caseDir) + "-" + amr.LevelName(level) + ".nc"
	}
	if filepath.IsAbs(filename) {
		return filename
	}
	dir := solnDir
	if destDir != "" {
		dir = resolvePath(caseDir, destDir)
	}
	return filepath.Join(dir, filename)
}
