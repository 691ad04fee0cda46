package render

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// FramePattern names the image of a frame inside the plot directory.
const FramePattern = "frame%04d.png"

// backupLayout is appended to a moved plot directory, e.g. level02_20240131_154500.
const backupLayout = "20060102_150405"

// PlotDir returns the plot directory of a case for a level.
func PlotDir(caseDir string, level int) string {
	return filepath.Join(caseDir, "_plots", "depth", amr.LevelName(level))
}

// ImageSink writes one PNG per frame.
type ImageSink struct {
	Dir      string
	Renderer *Renderer

	// Backup is the directory an existing plot directory was moved to, if any.
	Backup string

	written int
}

// NewImageSink prepares dir. With resume the existing directory is kept and
// frames already present are skipped; otherwise an existing directory is
// moved to a timestamped backup and a fresh one is created.
func NewImageSink(dir string, r *Renderer, resume bool) (*ImageSink, error) {
	return newImageSink(dir, r, resume, time.Now)
}

func newImageSink(dir string, r *Renderer, resume bool, now func() time.Time) (*ImageSink, error) {
	s := &ImageSink{Dir: dir, Renderer: r}

	info, err := os.Stat(dir)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", dir)
	case !info.IsDir():
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s exists and is not a directory", dir)
	case !resume:
		backup, err := backupName(dir, now())
		if err != nil {
			return nil, err
		}
		if err := os.Rename(dir, backup); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "move %s aside", dir)
		}
		s.Backup = backup
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	return s, nil
}

// backupName returns an unused backup path for dir.
func backupName(dir string, t time.Time) (string, error) {
	base := dir + "_" + t.Format(backupLayout)
	name := base
	for n := 1; ; n++ {
		_, err := os.Stat(name)
		if stderrors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", name)
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

// Path returns the image file of a frame.
func (s *ImageSink) Path(frame int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(FramePattern, frame))
}

// Skip reports whether the image of frame already exists.
func (s *ImageSink) Skip(frame int) bool {
	info, err := os.Stat(s.Path(frame))
	return err == nil && info.Mode().IsRegular()
}

// Add renders rf and writes its image.
func (s *ImageSink) Add(rf *raster.Frame, patches []amr.Patch) error {
	img, err := s.Renderer.Render(rf, Overlay{Patches: patches})
	if err != nil {
		return err
	}
	path := s.Path(rf.Index)
	tmp := path + ".tmp"
	if err := gg.SavePNG(tmp, img); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "frame %d: write image", rf.Index)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "frame %d: rename image", rf.Index)
	}
	s.written++
	return nil
}

// Written returns the number of images written.
func (s *ImageSink) Written() int { return s.written }

// Close implements the pipeline sink; images are complete after each Add.
func (s *ImageSink) Close() error { return nil }
