package claw

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Setup files written next to the run metadata.
const (
	TopoDataFile      = "topo.data"
	LandspillDataFile = "landspill.data"
)

// TopoTypeESRI is the topotype of ESRI ASCII grids with a header.
const TopoTypeESRI = 3

// TopoFile is one topography entry of topo.data.
type TopoFile struct {
	Path string
	Type int
}

// ReadTopoFiles lists the topography files of a solution directory in the
// order the solver reads them. Relative paths are resolved against base.
// An absent topo.data yields no files and no error.
func ReadTopoFiles(dir, base string) ([]TopoFile, error) {
	path := filepath.Join(dir, TopoDataFile)
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	files, err := parseTopoData(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", path)
	}
	for i := range files {
		if !filepath.IsAbs(files[i].Path) {
			files[i].Path = filepath.Join(base, files[i].Path)
		}
	}
	return files, nil
}

// parseTopoData reads the ntopofiles count followed by, per file, a quoted
// path line and a line whose first integer is the topotype.
func parseTopoData(r io.Reader) ([]TopoFile, error) {
	sc := bufio.NewScanner(r)
	n := -1
	var files []TopoFile
	var pending *TopoFile
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case n < 0:
			values, name, ok := strings.Cut(line, "=:")
			if !ok || strings.TrimSpace(name) != "ntopofiles" {
				continue
			}
			count, err := strconv.Atoi(strings.TrimSpace(values))
			if err != nil || count < 0 {
				return nil, fmt.Errorf("ntopofiles: invalid count %q", strings.TrimSpace(values))
			}
			n = count
		case pending == nil:
			if len(files) == n {
				return files, nil
			}
			p := strings.Trim(line, `'" `)
			if p == "" || p == line {
				return nil, fmt.Errorf("topo file %d: expected a quoted path, got %q", len(files)+1, line)
			}
			pending = &TopoFile{Path: p}
		default:
			fields := strings.Fields(line)
			t, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("topo file %d: topotype: %w", len(files)+1, err)
			}
			pending.Type = t
			files = append(files, *pending)
			pending = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("ntopofiles: not set")
	}
	if len(files) != n {
		return nil, fmt.Errorf("ntopofiles declares %d files, found %d", n, len(files))
	}
	return files, nil
}

// ReadPointSources returns the coordinates of the point sources of a
// landspill run, in input order. An absent landspill.data or a run without
// point sources yields nil.
func ReadPointSources(dir string) ([][2]float64, error) {
	path := filepath.Join(dir, LandspillDataFile)
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	pts, err := parsePointSources(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptMetadata, err, "%s", path)
	}
	return pts, nil
}

// parsePointSources reads n_point_sources and the coord entry of each
// source. The other per-source entries (stages, rates) are skipped.
func parsePointSources(r io.Reader) ([][2]float64, error) {
	sc := bufio.NewScanner(r)
	n := -1
	var pts [][2]float64
	for sc.Scan() {
		values, name, ok := strings.Cut(sc.Text(), "=:")
		if !ok {
			continue
		}
		switch strings.TrimSpace(name) {
		case "n_point_sources":
			count, err := strconv.Atoi(strings.TrimSpace(values))
			if err != nil || count < 0 {
				return nil, fmt.Errorf("n_point_sources: invalid count %q", strings.TrimSpace(values))
			}
			n = count
		case "coord":
			if n < 0 {
				return nil, fmt.Errorf("coord before n_point_sources")
			}
			fields := strings.Fields(values)
			if len(fields) != 2 {
				return nil, fmt.Errorf("point source %d: coord needs 2 values, got %d", len(pts)+1, len(fields))
			}
			var p [2]float64
			for i, s := range fields {
				v, err := parseFortranFloat(s)
				if err != nil {
					return nil, fmt.Errorf("point source %d: %w", len(pts)+1, err)
				}
				p[i] = v
			}
			pts = append(pts, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if len(pts) != n {
		return nil, fmt.Errorf("n_point_sources declares %d sources, found %d", n, len(pts))
	}
	return pts, nil
}
