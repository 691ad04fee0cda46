package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/amrraster/pkg/amr"
	"github.com/matzehuels/amrraster/pkg/errors"
	"github.com/matzehuels/amrraster/pkg/raster"
	"github.com/matzehuels/amrraster/pkg/topo"
)

// Defaults for Renderer options.
const (
	DefaultMaxPixels     = 1024
	DefaultMaxCellPixels = 8
	sourceRadius         = 4.0
)

var background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Point is a location in solver coordinates.
type Point struct {
	X, Y float64
}

// Overlay holds per-frame decorations.
type Overlay struct {
	Patches []amr.Patch // outlined when borders are enabled
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColorRange fixes the value range mapped onto the colour ramp.
// Without it each frame uses its own data range.
func WithColorRange(lo, hi float64) Option {
	return func(r *Renderer) { r.cmin, r.cmax = &lo, &hi }
}

// WithColorMin fixes only the low end of the colour range.
func WithColorMin(lo float64) Option {
	return func(r *Renderer) { r.cmin = &lo }
}

// WithColorMax fixes only the high end of the colour range.
func WithColorMax(hi float64) Option {
	return func(r *Renderer) { r.cmax = &hi }
}

// WithBorders outlines the patches passed in the Overlay.
func WithBorders() Option {
	return func(r *Renderer) { r.borders = true }
}

// WithTopo draws the topography grid as a gray background.
func WithTopo(g *topo.Grid) Option {
	return func(r *Renderer) { r.topo = g }
}

// WithSources marks point sources.
func WithSources(pts ...Point) Option {
	return func(r *Renderer) { r.sources = append(r.sources, pts...) }
}

// WithMaxPixels bounds the longest image side (default 1024).
func WithMaxPixels(n int) Option {
	return func(r *Renderer) { r.maxPixels = n }
}

// WithRamp replaces the depth colour ramp.
func WithRamp(ramp Ramp) Option {
	return func(r *Renderer) { r.ramp = ramp }
}

// Renderer draws frames. It holds no per-frame state and may be shared.
type Renderer struct {
	cmin, cmax *float64
	borders    bool
	topo       *topo.Grid
	sources    []Point
	maxPixels  int
	ramp       Ramp
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{maxPixels: DefaultMaxPixels, ramp: DepthRamp}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Size returns the image size used for grid g.
func (r *Renderer) Size(g *raster.Grid) (w, h int) {
	longest := max(g.NCols, g.NRows)
	scale := math.Min(float64(r.maxPixels)/float64(longest), DefaultMaxCellPixels)
	w = max(int(math.Round(float64(g.NCols)*scale)), 1)
	h = max(int(math.Round(float64(g.NRows)*scale)), 1)
	return w, h
}

// ColorRange returns the value range used for rf.
func (r *Renderer) ColorRange(rf *raster.Frame) (lo, hi float64, err error) {
	dlo, dhi, ok := raster.Range(rf)
	if !ok {
		dlo, dhi = 0, 1
	}
	lo, hi = dlo, dhi
	if r.cmin != nil {
		lo = *r.cmin
	}
	if r.cmax != nil {
		hi = *r.cmax
	}
	switch {
	case r.cmin != nil && r.cmax != nil && !(lo < hi):
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "colour range: cmin %g must be less than cmax %g", lo, hi)
	case !(lo < hi):
		// A flat frame or a one-sided override that crosses the data.
		hi = lo + 1
	}
	return lo, hi, nil
}

// Render draws rf with the given overlay.
func (r *Renderer) Render(rf *raster.Frame, ov Overlay) (image.Image, error) {
	if r.maxPixels <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "max pixels must be positive, got %d", r.maxPixels)
	}
	lo, hi, err := r.ColorRange(rf)
	if err != nil {
		return nil, err
	}

	g := rf.Grid
	ext := g.Extent
	w, h := r.Size(g)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	var tlo, thi float64
	hasTopo := false
	if r.topo != nil {
		tlo, thi, hasTopo = r.topo.Range(ext)
	}

	for py := 0; py < h; py++ {
		y := ext.YMax - (float64(py)+0.5)*ext.Height()/float64(h)
		row := cell(y, ext.YMin, g.DY, g.NRows)
		for px := 0; px < w; px++ {
			x := ext.XMin + (float64(px)+0.5)*ext.Width()/float64(w)
			c := background
			if hasTopo {
				if z, ok := r.topo.Sample(x, y); ok {
					c = gray(unit(z, tlo, thi))
				}
			}
			if v := rf.At(cell(x, ext.XMin, g.DX, g.NCols), row); !rf.IsNoData(v) {
				c = r.ramp.At(unit(v, lo, hi))
			}
			img.SetRGBA(px, py, c)
		}
	}

	dc := gg.NewContextForRGBA(img)
	toPixel := func(x, y float64) (float64, float64) {
		return (x - ext.XMin) / ext.Width() * float64(w), (ext.YMax - y) / ext.Height() * float64(h)
	}

	if r.borders && len(ov.Patches) > 0 {
		for i := range ov.Patches {
			b := ov.Patches[i].Bounds()
			x0, y0 := toPixel(b.XMin, b.YMax)
			x1, y1 := toPixel(b.XMax, b.YMin)
			dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		}
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	for _, p := range r.sources {
		px, py := toPixel(p.X, p.Y)
		dc.DrawCircle(px, py, sourceRadius)
	}
	if len(r.sources) > 0 {
		dc.SetRGB(1, 0, 0)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("frame %d  t = %.1f s", rf.Index, rf.Time), 6, 16)
	return dc.Image(), nil
}

// cell returns the index of the cell containing v, clamped to [0, n).
func cell(v, origin, d float64, n int) int {
	i := int(math.Floor((v - origin) / d))
	return min(max(i, 0), n-1)
}

func unit(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
