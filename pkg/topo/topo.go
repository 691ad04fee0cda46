// Package topo reads gridded topography used as a plotting background.
//
// Two text layouts are understood. ESRI ASCII grids put the header name
// first ("ncols 201"); GeoClaw topotype 3 files put the value first
// ("201 ncols"). Both store rows from north to south.
package topo

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
)

// Grid is a regular elevation grid. Values[r*NCols+c] is row r counted
// from the north edge.
type Grid struct {
	NCols, NRows int
	XLL, YLL     float64 // lower-left corner of the lower-left cell
	CellSize     float64
	NoData       float64
	Values       []float64
}

// ReadFile reads a topography file.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open topography")
	}
	defer f.Close()

	g, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read topography %s", path)
	}
	return g, nil
}

// Read parses a topography grid.
func Read(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	g := &Grid{NoData: -9999}
	var (
		centred bool
		seen    = make(map[string]bool)
		pending []string
	)
	// The header ends at the first pair of tokens that are both numeric.
	for len(seen) < 6 && sc.Scan() {
		pending = append(pending, sc.Text())
		if len(pending) < 2 {
			continue
		}
		name, value := pending[0], pending[1]
		if isNumber(name) {
			name, value = value, name
		}
		if isNumber(name) {
			break
		}
		pending = pending[:0]
		name = strings.ToLower(name)
		var err error
		switch name {
		case "ncols", "nrows":
			var n int
			if n, err = strconv.Atoi(value); err == nil && n <= 0 {
				err = fmt.Errorf("must be positive")
			}
			if name == "ncols" {
				g.NCols = n
			} else {
				g.NRows = n
			}
		case "xllcorner", "xllcenter", "xll", "xlower":
			g.XLL, err = strconv.ParseFloat(value, 64)
			centred = centred || name == "xllcenter"
		case "yllcorner", "yllcenter", "yll", "ylower":
			g.YLL, err = strconv.ParseFloat(value, 64)
			centred = centred || name == "yllcenter"
		case "cellsize":
			if g.CellSize, err = strconv.ParseFloat(value, 64); err == nil && !(g.CellSize > 0) {
				err = fmt.Errorf("must be positive")
			}
		case "nodata_value":
			g.NoData, err = strconv.ParseFloat(value, 64)
		default:
			return nil, fmt.Errorf("unknown header entry %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		seen[name] = true
	}
	if g.NCols == 0 || g.NRows == 0 || g.CellSize == 0 {
		return nil, fmt.Errorf("incomplete header: need ncols, nrows and cellsize")
	}
	if centred {
		g.XLL -= g.CellSize / 2
		g.YLL -= g.CellSize / 2
	}

	if g.NCols > raster.MaxCells/g.NRows {
		return nil, fmt.Errorf("header declares %d x %d values, more than %d", g.NCols, g.NRows, raster.MaxCells)
	}
	n := g.NCols * g.NRows
	g.Values = make([]float64, 0, min(n, 1<<16))
	for _, tok := range pending {
		if err := g.appendValue(tok); err != nil {
			return nil, err
		}
	}
	for len(g.Values) < n && sc.Scan() {
		if err := g.appendValue(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.Values) != n {
		return nil, fmt.Errorf("header declares %d values, found %d", n, len(g.Values))
	}
	return g, nil
}

func (g *Grid) appendValue(tok string) error {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return fmt.Errorf("value %d: %w", len(g.Values), err)
	}
	g.Values = append(g.Values, v)
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Extent returns the area covered by the grid.
func (g *Grid) Extent() raster.Extent {
	return raster.Extent{
		XMin: g.XLL,
		YMin: g.YLL,
		XMax: g.XLL + float64(g.NCols)*g.CellSize,
		YMax: g.YLL + float64(g.NRows)*g.CellSize,
	}
}

// Sample returns the value of the cell containing (x, y). ok is false
// outside the grid and on nodata cells.
func (g *Grid) Sample(x, y float64) (float64, bool) {
	c := int(math.Floor((x - g.XLL) / g.CellSize))
	rs := int(math.Floor((y - g.YLL) / g.CellSize))
	if c < 0 || c >= g.NCols || rs < 0 || rs >= g.NRows {
		return 0, false
	}
	v := g.Values[(g.NRows-1-rs)*g.NCols+c]
	if v == g.NoData || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Range returns the minimum and maximum elevation inside e.
func (g *Grid) Range(e raster.Extent) (lo, hi float64, ok bool) {
	for r := 0; r < g.NRows; r++ {
		y := g.YLL + (float64(g.NRows-1-r)+0.5)*g.CellSize
		if y < e.YMin || y > e.YMax {
			continue
		}
		for c := 0; c < g.NCols; c++ {
			x := g.XLL + (float64(c)+0.5)*g.CellSize
			v := g.Values[r*g.NCols+c]
			if x < e.XMin || x > e.XMax || v == g.NoData || math.IsNaN(v) {
				continue
			}
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return lo, hi, ok
}
