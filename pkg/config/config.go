// Package config loads per-case settings from a TOML file.
//
// A case directory may hold an amrraster.toml that supplies defaults for
// the command-line flags:
//
//	[raster]
//	level = 2
//	extent = [0.0, 0.0, 1000.0, 800.0]
//	dry_tolerance = 1e-4
//
//	[netcdf]
//	title = "Pipeline rupture, Utah"
//	crs = "EPSG:32612"
//	reference_time = "2019-07-04 12:00:00"
//
//	[render]
//	cmax = 0.3
//	topo = "topo.asc"
//	sources = [[450.0, 300.0]]
//
// Flags override the file and the file overrides solver run metadata.
package config

import (
	stderrors "errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// FileName is the settings file looked up in a case directory.
const FileName = "amrraster.toml"

// Settings is the content of a case settings file. Pointer fields are nil
// when the file leaves them unset.
type Settings struct {
	Raster RasterSettings `toml:"raster"`
	NetCDF NetCDFSettings `toml:"netcdf"`
	Render RenderSettings `toml:"render"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `toml:"-"`
}

// RasterSettings apply to both output paths.
type RasterSettings struct {
	SolnDir      string    `toml:"soln_dir"`
	Level        *int      `toml:"level"`
	FrameBg      *int      `toml:"frame_bg"`
	FrameEd      *int      `toml:"frame_ed"`
	Extent       []float64 `toml:"extent"`
	Resolution   *float64  `toml:"resolution"`
	DryTolerance *float64  `toml:"dry_tolerance"`
	NoData       *float64  `toml:"nodata"`
	Variable     string    `toml:"variable"`
	Field        *int      `toml:"field"`
}

// NetCDFSettings describe the NetCDF artifact.
type NetCDFSettings struct {
	Title         string `toml:"title"`
	CRS           string `toml:"crs"`
	ReferenceTime string `toml:"reference_time"`
	Units         string `toml:"units"`
	LongName      string `toml:"long_name"`
	CoordUnits    string `toml:"coord_units"`
}

// RenderSettings configure frame images.
type RenderSettings struct {
	CMin     *float64    `toml:"cmin"`
	CMax     *float64    `toml:"cmax"`
	Border   *bool       `toml:"border"`
	Topo     string      `toml:"topo"`
	Margin   *float64    `toml:"margin"`
	ColorMap string      `toml:"colormap"`
	Sources  [][]float64 `toml:"sources"`
}

// Load reads and validates a settings file. Relative paths inside the file
// are resolved against the file's directory.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read %s", path)
	}

	var s Settings
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSettings, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidSettings, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSettings, err, "%s", path)
	}

	s.Path = path
	s.resolvePaths(filepath.Dir(path))
	return &s, nil
}

// Find loads explicit if set, else FileName in caseDir when present. An
// absent file in caseDir yields empty settings; an absent explicit file is
// an error.
func Find(caseDir, explicit string) (*Settings, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path := filepath.Join(caseDir, FileName)
	if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
		return &Settings{}, nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	r := s.Raster
	if r.Level != nil && *r.Level < 0 {
		return errors.New(errors.ErrCodeInvalidLevel, "raster.level must be >= 0, got %d", *r.Level)
	}
	if r.FrameBg != nil && *r.FrameBg < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "raster.frame_bg must be >= 0, got %d", *r.FrameBg)
	}
	if r.Extent != nil && len(r.Extent) != 4 {
		return errors.New(errors.ErrCodeInvalidExtent, "raster.extent needs 4 values, got %d", len(r.Extent))
	}
	if r.Resolution != nil && !(*r.Resolution > 0) {
		return errors.New(errors.ErrCodeInvalidResolution, "raster.resolution must be positive, got %g", *r.Resolution)
	}
	if r.DryTolerance != nil {
		if err := errors.ValidateDryTolerance(*r.DryTolerance); err != nil {
			return err
		}
	}
	if r.NoData != nil {
		if err := errors.ValidateNoData(*r.NoData); err != nil {
			return err
		}
	}
	if r.Variable != "" {
		if err := errors.ValidateVariableName(r.Variable); err != nil {
			return err
		}
	}
	if r.Field != nil && *r.Field < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "raster.field must be >= 0, got %d", *r.Field)
	}

	d := s.Render
	if d.CMin != nil && d.CMax != nil && !(*d.CMin < *d.CMax) {
		return errors.New(errors.ErrCodeInvalidInput, "render.cmin %g must be less than render.cmax %g", *d.CMin, *d.CMax)
	}
	if d.Margin != nil && (*d.Margin < 0 || math.IsNaN(*d.Margin)) {
		return errors.New(errors.ErrCodeInvalidInput, "render.margin must be >= 0, got %g", *d.Margin)
	}
	for i, p := range d.Sources {
		if len(p) != 2 {
			return errors.New(errors.ErrCodeInvalidInput, "render.sources[%d] needs 2 values (x, y), got %d", i, len(p))
		}
	}
	return nil
}

func (s *Settings) resolvePaths(dir string) {
	if s.Raster.SolnDir != "" && !filepath.IsAbs(s.Raster.SolnDir) {
		s.Raster.SolnDir = filepath.Join(dir, s.Raster.SolnDir)
	}
	if s.Render.Topo != "" && !filepath.IsAbs(s.Render.Topo) {
		s.Render.Topo = filepath.Join(dir, s.Render.Topo)
	}
}
