// Package ecolor holds the color plumbing shared by the edit operations:
// luma weighting, sRGB gamma, and HSL adjustments.
package ecolor

import (
	"math"

	"github.com/mdouchement/hdr/hdrcolor"
)

// The weights of the R, G, B channels in the (generalized) luma. These are
// the classic astro-processing weights, not the Rec.709 luminance ones.
var rgbLuma = [3]float64{0.3, 0.6, 0.1}

func RGBLuma() [3]float64 { return rgbLuma }

func SetRGBLuma(w [3]float64) { rgbLuma = w }

// Luma collapses an RGB triple using the current luma weights.
func Luma(r, g, b float64) float64 {
	return rgbLuma[0]*r + rgbLuma[1]*g + rgbLuma[2]*b
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB".
// Input assumed in [0, 1].
func GammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// GammaCompress is the inverse, sRGB to linear RGB.
func GammaCompress(f float64) float64 {
	if f <= 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

// SRGBLuminance returns the CIE Y of an sRGB triple.
func SRGBLuminance(r, g, b float64) float64 {
	return 0.2126*GammaCompress(clamp01(r)) + 0.7152*GammaCompress(clamp01(g)) + 0.0722*GammaCompress(clamp01(b))
}

// FloorAt clips each channel from below. Near-black pixels can come out of
// color transforms with slightly negative values that would otherwise
// underflow into bright pixels downstream.
func FloorAt(c hdrcolor.RGB, min float64) hdrcolor.RGB {
	if c.R < min {
		c.R = min
	}
	if c.G < min {
		c.G = min
	}
	if c.B < min {
		c.B = min
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
