package ecolor

import (
	"math"
	"testing"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestLumaWeights(t *testing.T) {
	if w := RGBLuma(); w != [3]float64{0.3, 0.6, 0.1} {
		t.Errorf("default weights %v", w)
	}
	if got := Luma(0.2, 0.8, 0.4); !almost(got, 0.3*0.2+0.6*0.8+0.1*0.4) {
		t.Errorf("luma %f", got)
	}

	SetRGBLuma([3]float64{1, 0, 0})
	defer SetRGBLuma([3]float64{0.3, 0.6, 0.1})
	if got := Luma(0.2, 0.8, 0.4); !almost(got, 0.2) {
		t.Errorf("red-only luma %f, want 0.2", got)
	}
}

func TestGammaRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.001, 0.1, 0.5, 0.9, 1} {
		if got := GammaCompress(GammaExpand(v)); !almost(got, v) {
			t.Errorf("round trip of %f gave %f", v, got)
		}
	}
}

func TestScaleSaturationExtremes(t *testing.T) {
	// Factor 0 desaturates fully: all channels equal.
	r, g, b := ScaleSaturation(0.8, 0.2, 0.2, 0)
	if !almost(r, g) || !almost(g, b) {
		t.Errorf("desaturated to (%f, %f, %f), want gray", r, g, b)
	}

	// Factor 1 is the identity.
	r, g, b = ScaleSaturation(0.8, 0.2, 0.2, 1)
	if !almost(r, 0.8) || !almost(g, 0.2) || !almost(b, 0.2) {
		t.Errorf("identity saturation moved the color: (%f, %f, %f)", r, g, b)
	}
}

func TestRotateHueFullCircle(t *testing.T) {
	r, g, b := RotateHue(0.8, 0.3, 0.1, 360)
	if !almost(r, 0.8) || !almost(g, 0.3) || !almost(b, 0.1) {
		t.Errorf("360 degree rotation moved the color: (%f, %f, %f)", r, g, b)
	}

	// 120 degrees maps pure red onto pure green.
	r, g, b = RotateHue(1, 0, 0, 120)
	if !almost(r, 0) || !almost(g, 1) || !almost(b, 0) {
		t.Errorf("red rotated 120 = (%f, %f, %f), want green", r, g, b)
	}
}
