package raster

import (
	"math"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// sizeTolerance absorbs floating-point noise when deriving grid dimensions,
// so that an extent of exactly 4 cells does not round up to 5.
const sizeTolerance = 1e-9

// MaxCells bounds the number of cells of a grid. One frame of a grid this
// size holds 2 GiB of float64 values.
const MaxCells = 1 << 28

// Grid is the uniform output grid shared by every frame of a run.
// It is immutable once built and is passed by pointer.
type Grid struct {
	Extent Extent
	DX, DY float64
	NCols  int
	NRows  int
}

// NewGrid derives the grid dimensions from an extent and a cell size.
func NewGrid(e Extent, dx, dy float64) (*Grid, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := validateResolution(dx); err != nil {
		return nil, err
	}
	if err := validateResolution(dy); err != nil {
		return nil, err
	}
	cols, rows := cells(e.Width(), dx), cells(e.Height(), dy)
	if cols*rows > MaxCells {
		return nil, errors.New(errors.ErrCodeInvalidResolution,
			"grid of %.0f x %.0f cells exceeds %d cells, use a coarser resolution", cols, rows, MaxCells)
	}
	return &Grid{
		Extent: e,
		DX:     dx,
		DY:     dy,
		NCols:  int(cols),
		NRows:  int(rows),
	}, nil
}

func validateResolution(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return errors.New(errors.ErrCodeInvalidResolution, "resolution must be positive and finite, got %g", d)
	}
	return nil
}

func cells(length, d float64) float64 {
	n := length / d
	r := math.Round(n)
	if math.Abs(n-r) <= sizeTolerance*math.Max(1, r) {
		n = r
	}
	return math.Max(math.Ceil(n), 1)
}

// Len returns the number of cells.
func (g *Grid) Len() int { return g.NCols * g.NRows }

// X returns the x coordinate of the centre of column c.
func (g *Grid) X(c int) float64 { return g.Extent.XMin + (float64(c)+0.5)*g.DX }

// Y returns the y coordinate of the centre of row r.
func (g *Grid) Y(r int) float64 { return g.Extent.YMin + (float64(r)+0.5)*g.DY }

// Xs returns the column centre coordinates.
func (g *Grid) Xs() []float64 {
	xs := make([]float64, g.NCols)
	for c := range xs {
		xs[c] = g.X(c)
	}
	return xs
}

// Ys returns the row centre coordinates, south to north.
func (g *Grid) Ys() []float64 {
	ys := make([]float64, g.NRows)
	for r := range ys {
		ys[r] = g.Y(r)
	}
	return ys
}

// Index returns the offset of cell (c, r) in a row-major data slice.
func (g *Grid) Index(c, r int) int { return r*g.NCols + c }

// Equal reports whether two grids describe the same cells.
func (g *Grid) Equal(o *Grid) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil {
		return false
	}
	return *g == *o
}
