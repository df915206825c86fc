package ecolor

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ScaleSaturation moves an RGB triple into HSL, multiplies the saturation
// by factor, and comes back. Input channels are clamped to [0, 1] first;
// HSL has no meaning outside the cube, so this is one of the documented
// local clamps in the pipeline.
func ScaleSaturation(r, g, b, factor float64) (float64, float64, float64) {
	col := colorful.Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
	h, s, l := col.Hsl()
	s *= factor
	if s > 1 {
		s = 1
	}
	out := colorful.Hsl(h, s, l)
	return out.R, out.G, out.B
}

// RotateHue shifts the hue by degrees, wrapping around the circle.
func RotateHue(r, g, b, degrees float64) (float64, float64, float64) {
	col := colorful.Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
	h, s, l := col.Hsl()
	h += degrees
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	out := colorful.Hsl(h, s, l)
	return out.R, out.G, out.B
}
