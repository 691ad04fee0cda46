package claw

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Run metadata file names inside a solution directory.
const (
	ClawDataFile    = "claw.data"
	AMRDataFile     = "amr.data"
	GeoClawDataFile = "geoclaw.data"
)

// Output styles of claw.data.
const (
	OutputStyleUniform = 1 // num_output_times equally spaced outputs
	OutputStyleList    = 2 // explicit output_times
	OutputStyleSteps   = 3 // every output_step_interval steps
)

// RunData holds the solver run metadata needed to default unset options.
// Fields whose source file is absent keep their zero value and the
// corresponding accessor reports MISSING_METADATA.
type RunData struct {
	OutputStyle        int
	NumOutputTimes     int
	OutputT0           bool
	OutputTimes        []float64
	TotalSteps         int
	OutputStepInterval int

	MaxLevels    int
	DryTolerance float64

	hasClaw    bool
	hasAMR     bool
	hasGeoClaw bool
}

// LoadRunData reads the run metadata files of a solution directory.
// Absent files are tolerated; malformed files are not.
func LoadRunData(dir string) (*RunData, error) {
	rd := &RunData{}

	claw, err := readDataFile(filepath.Join(dir, ClawDataFile))
	if err != nil {
		return nil, err
	}
	if claw != nil {
		if err := rd.loadClaw(claw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", ClawDataFile)
		}
	}

	amrData, err := readDataFile(filepath.Join(dir, AMRDataFile))
	if err != nil {
		return nil, err
	}
	if amrData != nil {
		if rd.MaxLevels, err = amrData.Int("amr_levels_max"); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", AMRDataFile)
		}
		rd.hasAMR = true
	}

	geo, err := readDataFile(filepath.Join(dir, GeoClawDataFile))
	if err != nil {
		return nil, err
	}
	if geo != nil {
		if rd.DryTolerance, err = geo.Float("dry_tolerance"); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", GeoClawDataFile)
		}
		rd.hasGeoClaw = true
	}

	return rd, nil
}

// readDataFile returns nil, nil for an absent file.
func readDataFile(path string) (DataFile, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	d, err := ParseDataFile(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", path)
	}
	return d, nil
}

func (rd *RunData) loadClaw(d DataFile) error {
	var err error
	if rd.OutputStyle, err = d.Int("output_style"); err != nil {
		return err
	}
	if d.Has("output_t0") {
		if rd.OutputT0, err = d.Bool("output_t0"); err != nil {
			return err
		}
	}
	switch rd.OutputStyle {
	case OutputStyleUniform:
		if rd.NumOutputTimes, err = d.Int("num_output_times"); err != nil {
			return err
		}
	case OutputStyleList:
		if rd.OutputTimes, err = d.Floats("output_times"); err != nil {
			return err
		}
	case OutputStyleSteps:
		if rd.TotalSteps, err = d.Int("total_steps"); err != nil {
			return err
		}
		if rd.OutputStepInterval, err = d.Int("output_step_interval"); err != nil {
			return err
		}
	}
	rd.hasClaw = true
	return nil
}

// FrameCount returns the number of frames the solver writes, which is the
// default exclusive end frame.
func (rd *RunData) FrameCount() (int, error) {
	if !rd.hasClaw {
		return 0, errors.New(errors.ErrCodeMissingMetadata,
			"%s not found; cannot default the end frame", ClawDataFile)
	}
	var n int
	switch rd.OutputStyle {
	case OutputStyleUniform:
		n = rd.NumOutputTimes
		if rd.OutputT0 {
			n++
		}
	case OutputStyleList:
		n = len(rd.OutputTimes)
	case OutputStyleSteps:
		if rd.OutputStepInterval <= 0 {
			return 0, errors.New(errors.ErrCodeCorruptMetadata,
				"output_step_interval must be positive, got %d", rd.OutputStepInterval)
		}
		n = rd.TotalSteps / rd.OutputStepInterval
		if rd.OutputT0 {
			n++
		}
	default:
		return 0, errors.New(errors.ErrCodeUnsupported, "output_style %d", rd.OutputStyle)
	}
	return n, nil
}

// DefaultDryTolerance returns the solver's dry tolerance.
func (rd *RunData) DefaultDryTolerance() (float64, error) {
	if !rd.hasGeoClaw {
		return 0, errors.New(errors.ErrCodeMissingMetadata,
			"%s not found; pass the dry tolerance explicitly", GeoClawDataFile)
	}
	return rd.DryTolerance, nil
}

// FinestLevel returns amr_levels_max, the finest level the solver may create.
func (rd *RunData) FinestLevel() (int, error) {
	if !rd.hasAMR {
		return 0, errors.New(errors.ErrCodeMissingMetadata, "%s not found", AMRDataFile)
	}
	return rd.MaxLevels, nil
}
