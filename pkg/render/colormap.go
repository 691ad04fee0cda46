package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Ramp is a piecewise-linear colour map over [0, 1].
type Ramp []color.RGBA

// DepthRamp runs from pale cyan for shallow water to dark blue.
var DepthRamp = Ramp{
	{R: 0xd6, G: 0xf5, B: 0xff, A: 0xff},
	{R: 0x7f, G: 0xcd, B: 0xff, A: 0xff},
	{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	{R: 0x0d, G: 0x47, B: 0xa1, A: 0xff},
	{R: 0x08, G: 0x1d, B: 0x58, A: 0xff},
}

// GrayRamp runs from white to black.
var GrayRamp = Ramp{
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
}

// HeatRamp runs from yellow through orange to dark red.
var HeatRamp = Ramp{
	{R: 0xff, G: 0xf7, B: 0xbc, A: 0xff},
	{R: 0xfe, G: 0xc4, B: 0x4f, A: 0xff},
	{R: 0xec, G: 0x70, B: 0x14, A: 0xff},
	{R: 0x99, G: 0x34, B: 0x04, A: 0xff},
}

var ramps = map[string]Ramp{
	"depth": DepthRamp,
	"gray":  GrayRamp,
	"heat":  HeatRamp,
}

// RampNames lists the names accepted by RampByName.
func RampNames() []string {
	names := make([]string, 0, len(ramps))
	for name := range ramps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RampByName returns a built-in colour ramp.
func RampByName(name string) (Ramp, error) {
	r, ok := ramps[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown colour map %q (available: %v)", name, RampNames())
	}
	return r, nil
}

// At returns the colour at t, clamped to [0, 1].
func (r Ramp) At(t float64) color.RGBA {
	if len(r) == 0 {
		return color.RGBA{A: 0xff}
	}
	if math.IsNaN(t) || t <= 0 {
		return r[0]
	}
	if t >= 1 {
		return r[len(r)-1]
	}
	pos := t * float64(len(r)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := r[i], r[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: lerp(a.A, b.A, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// gray maps t in [0, 1] to a shade between dark and light gray.
func gray(t float64) color.RGBA {
	t = math.Min(math.Max(t, 0), 1)
	v := uint8(math.Round(0x50 + t*(0xe0-0x50)))
	return color.RGBA{R: v, G: v, B: v, A: 0xff}
}
