package series

import (
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/google/uuid"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Defaults for Metadata fields left empty.
const (
	DefaultVariable      = "depth"
	DefaultUnits         = "m"
	DefaultLongName      = "water depth"
	DefaultCoordUnits    = "m"
	DefaultReferenceTime = "1970-01-01 00:00:00"
	Conventions          = "CF-1.7"
)

// Metadata describes the run a time series came from. It ends up in the
// variable and global attributes of the NetCDF file.
type Metadata struct {
	Variable      string `json:"variable,omitempty"`
	Units         string `json:"units,omitempty"`
	LongName      string `json:"long_name,omitempty"`
	CoordUnits    string `json:"coord_units,omitempty"`
	ReferenceTime string `json:"reference_time,omitempty"` // time units are "seconds since ReferenceTime"

	Title   string `json:"title,omitempty"`
	Source  string `json:"source,omitempty"`
	History string `json:"history,omitempty"`
	CRS     string `json:"crs,omitempty"`

	Level        int     `json:"level"` // 0 means finest
	DryTolerance float64 `json:"dry_tolerance"`
}

func (md Metadata) withDefaults() Metadata {
	if md.Variable == "" {
		md.Variable = DefaultVariable
	}
	if md.Units == "" {
		md.Units = DefaultUnits
	}
	if md.LongName == "" {
		md.LongName = DefaultLongName
	}
	if md.CoordUnits == "" {
		md.CoordUnits = DefaultCoordUnits
	}
	if md.ReferenceTime == "" {
		md.ReferenceTime = DefaultReferenceTime
	}
	return md
}

// ID returns a name-based UUID of the run parameters. Writing the same
// series with the same metadata always yields the same ID.
func ID(ts *TimeSeries, md Metadata) string {
	md = md.withDefaults()
	g := ts.Grid
	name := fmt.Sprintf("amrraster:%s:%s:level=%d:extent=%v,%v,%v,%v:res=%v,%v:tol=%v:nodata=%v:times=%v",
		md.Source, md.Variable, md.Level,
		g.Extent.XMin, g.Extent.YMin, g.Extent.XMax, g.Extent.YMax,
		g.DX, g.DY, md.DryTolerance, ts.NoData, ts.Times)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// WriteNetCDF writes ts to w as a NetCDF classic file.
func WriteNetCDF(w cdf.ReaderWriterAt, ts *TimeSeries, md Metadata) error {
	md = md.withDefaults()
	if err := errors.ValidateVariableName(md.Variable); err != nil {
		return err
	}
	if math.IsNaN(ts.NoData) || math.IsInf(ts.NoData, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "nodata must be finite to serve as _FillValue, got %g", ts.NoData)
	}

	g := ts.Grid
	h := cdf.NewHeader([]string{"time", "y", "x"}, []int{0, g.NRows, g.NCols})

	h.AddAttribute("", "Conventions", Conventions)
	if md.Title != "" {
		h.AddAttribute("", "title", md.Title)
	}
	if md.Source != "" {
		h.AddAttribute("", "source", md.Source)
	}
	if md.History != "" {
		h.AddAttribute("", "history", md.History)
	}
	h.AddAttribute("", "id", ID(ts, md))
	h.AddAttribute("", "xmin", []float64{g.Extent.XMin})
	h.AddAttribute("", "ymin", []float64{g.Extent.YMin})
	h.AddAttribute("", "xmax", []float64{g.Extent.XMax})
	h.AddAttribute("", "ymax", []float64{g.Extent.YMax})
	h.AddAttribute("", "dx", []float64{g.DX})
	h.AddAttribute("", "dy", []float64{g.DY})
	h.AddAttribute("", "dry_tolerance", []float64{md.DryTolerance})
	h.AddAttribute("", "amr_level", []int32{int32(md.Level)})
	if md.CRS != "" {
		h.AddAttribute("", "crs", md.CRS)
	}

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "seconds since "+md.ReferenceTime)
	h.AddAttribute("time", "standard_name", "time")
	h.AddAttribute("time", "long_name", "simulation time")
	h.AddAttribute("time", "calendar", "standard")
	h.AddAttribute("time", "axis", "T")

	h.AddVariable("y", []string{"y"}, []float64{0})
	h.AddAttribute("y", "units", md.CoordUnits)
	h.AddAttribute("y", "standard_name", "projection_y_coordinate")
	h.AddAttribute("y", "long_name", "y coordinate of cell centre")
	h.AddAttribute("y", "axis", "Y")

	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddAttribute("x", "units", md.CoordUnits)
	h.AddAttribute("x", "standard_name", "projection_x_coordinate")
	h.AddAttribute("x", "long_name", "x coordinate of cell centre")
	h.AddAttribute("x", "axis", "X")

	h.AddVariable(md.Variable, []string{"time", "y", "x"}, []float64{0})
	h.AddAttribute(md.Variable, "units", md.Units)
	h.AddAttribute(md.Variable, "long_name", md.LongName)
	h.AddAttribute(md.Variable, "_FillValue", []float64{ts.NoData})
	h.AddAttribute(md.Variable, "missing_value", []float64{ts.NoData})

	h.Define()
	var errs []error
	for _, err := range h.Check() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(errors.ErrCodeInternal, stderrors.Join(errs...), "invalid netcdf header")
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create netcdf")
	}
	if _, err := f.Writer("x", []int{0}, []int{g.NCols}).Write(g.Xs()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write x")
	}
	if _, err := f.Writer("y", []int{0}, []int{g.NRows}).Write(g.Ys()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write y")
	}
	for t, rf := range ts.Frames {
		if _, err := f.Writer("time", []int{t}, []int{t + 1}).Write([]float64{ts.Times[t]}); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write time of frame %d", rf.Index)
		}
		if _, err := f.Writer(md.Variable, []int{t, 0, 0}, []int{t + 1, 0, 0}).Write(rf.Data); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s of frame %d", md.Variable, rf.Index)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "update record count")
	}
	return nil
}

// WriteFile writes ts to path. The file appears only once it is complete;
// on failure nothing is left at path.
func WriteFile(path string, ts *TimeSeries, md Metadata) (err error) {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create temporary file in %s", dir)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteNetCDF(tmp, ts, md); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "sync %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "rename to %s", path)
	}
	return nil
}
