package eops

import (
	"errors"
	"math"
	"testing"

	"github.com/ymniquet/equimage/pkg/emask"
	"github.com/ymniquet/equimage/pkg/epix"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func flatBuffer(t *testing.T, w, h int, v float64) *epix.Buffer {
	t.Helper()
	b, err := epix.New(w, h, 3)
	if err != nil {
		t.Fatal(err)
	}
	return b.Map(func(float64) float64 { return v })
}

func mustOp(t *testing.T, kind Kind, params Params, mask *emask.Mask) Op {
	t.Helper()
	op, err := New(kind, params, mask)
	if err != nil {
		t.Fatal(err)
	}
	return op
}

func TestNewRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name   string
		kind   Kind
		params Params
	}{
		{"negative gamma", KindStretch, StretchParams{Curve: CurveGamma, Amount: -1, Channels: "l"}},
		{"midtone out of range", KindStretch, StretchParams{Curve: CurveMidtone, Amount: 1.5, Channels: "l"}},
		{"empty linear range", KindStretch, StretchParams{Curve: CurveLinear, Low: 0.5, High: 0.5, Channels: "l"}},
		{"unknown curve", KindStretch, StretchParams{Curve: "spline", Amount: 1, Channels: "l"}},
		{"bad channel selector", KindStretch, StretchParams{Curve: CurveGamma, Amount: 1, Channels: "xyz"}},
		{"inverted percentiles", KindAutoStretch, AutoStretchParams{BlackPercentile: 0.9, WhitePercentile: 0.1, Channels: "l"}},
		{"negative balance", KindColorBalance, ColorBalanceParams{Red: -1, Green: 1, Blue: 1}},
		{"zero unsharp radius", KindUnsharpMask, UnsharpMaskParams{Radius: 0, Amount: 1}},
		{"huge unsharp radius", KindUnsharpMask, UnsharpMaskParams{Radius: 100, Amount: 1}},
		{"zero hot ratio", KindHotPixels, HotPixelsParams{Ratio: 0, Channels: "l"}},
		{"sigma too big", KindNoise, NoiseParams{Sigma: 1.5}},
		{"unknown tonemapper", KindTonemap, TonemapParams{Operator: "clahe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.kind, tc.params, nil); !errors.Is(err, epix.ErrInvalidParameters) {
				t.Errorf("got %v, want ErrInvalidParameters", err)
			}
		})
	}

	if _, err := New(KindStretch, nil, nil); !errors.Is(err, epix.ErrInvalidParameters) {
		t.Errorf("nil params: got %v", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := flatBuffer(t, 4, 4, 0.5)
	op := mustOp(t, KindNegative, NegativeParams{}, nil)
	if _, err := op.Apply(in); err != nil {
		t.Fatal(err)
	}
	if v := in.Get(1, 1, 0); !almost(v, 0.5) {
		t.Errorf("input mutated to %f", v)
	}
}

func TestGammaStretchKnownValues(t *testing.T) {
	in := flatBuffer(t, 2, 2, 0.25)
	op := mustOp(t, KindStretch, StretchParams{Curve: CurveGamma, Amount: 0.5, Channels: "rgb"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0.5) {
		t.Errorf("0.25^0.5 = %f, want 0.5", v)
	}
}

func TestMidtoneStretchPinsAnchors(t *testing.T) {
	in, _ := epix.New(3, 1, 3)
	for c := 0; c < 3; c++ {
		in.Set(0, 0, c, 0)
		in.Set(1, 0, c, 0.25)
		in.Set(2, 0, c, 1)
	}
	op := mustOp(t, KindStretch, StretchParams{Curve: CurveMidtone, Amount: 0.25, Channels: "rgb"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0) {
		t.Errorf("black moved to %f", v)
	}
	if v := out.Get(1, 0, 0); !almost(v, 0.5) {
		t.Errorf("midtone 0.25 mapped to %f, want 0.5", v)
	}
	if v := out.Get(2, 0, 0); !almost(v, 1) {
		t.Errorf("white moved to %f", v)
	}
}

func TestLinearStretchKeepsHDRHeadroom(t *testing.T) {
	in := flatBuffer(t, 2, 2, 0.9)
	op := mustOp(t, KindStretch, StretchParams{Curve: CurveLinear, Low: 0, High: 0.5, Channels: "rgb"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	// 0.9 maps to 1.8; the stack clamps later, not the operation.
	if v := out.Get(0, 0, 0); !almost(v, 1.8) {
		t.Errorf("got %f, want unclamped 1.8", v)
	}
}

func TestValueChannelStretchPreservesHue(t *testing.T) {
	in, _ := epix.New(1, 1, 3)
	in.Set(0, 0, 0, 0.1)
	in.Set(0, 0, 1, 0.2)
	in.Set(0, 0, 2, 0.4)

	op := mustOp(t, KindStretch, StretchParams{Curve: CurveGamma, Amount: 0.5, Channels: "v"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}

	// V goes 0.4 -> sqrt(0.4); all channels scale by the same ratio.
	scale := math.Sqrt(0.4) / 0.4
	if v := out.Get(0, 0, 0); !almost(v, 0.1*scale) {
		t.Errorf("r = %f, want %f", v, 0.1*scale)
	}
	rIn, gIn := in.Get(0, 0, 0), in.Get(0, 0, 1)
	rOut, gOut := out.Get(0, 0, 0), out.Get(0, 0, 1)
	if !almost(rIn/gIn, rOut/gOut) {
		t.Errorf("channel ratio changed: %f -> %f", rIn/gIn, rOut/gOut)
	}
}

func TestAutoStretchDegenerateHistogram(t *testing.T) {
	in := flatBuffer(t, 4, 4, 0.5)
	op := mustOp(t, KindAutoStretch, AutoStretchParams{BlackPercentile: 0.01, WhitePercentile: 0.99, Channels: "l"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if !out.EqualWithin(in, 0) {
		t.Error("flat image should pass through an autostretch unchanged")
	}
}

func TestClipShadowsHighlights(t *testing.T) {
	in, _ := epix.New(3, 1, 3)
	for c := 0; c < 3; c++ {
		in.Set(0, 0, c, 0.1)
		in.Set(1, 0, c, 0.5)
		in.Set(2, 0, c, 0.9)
	}
	op := mustOp(t, KindClipShadowsHighlights,
		ClipShadowsHighlightsParams{Shadow: 0.2, Highlight: 0.8, Channels: "rgb"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0) {
		t.Errorf("shadow clipped to %f, want 0", v)
	}
	if v := out.Get(1, 0, 0); !almost(v, 0.5) {
		t.Errorf("midpoint %f, want 0.5", v)
	}
	if v := out.Get(2, 0, 0); !almost(v, 1) {
		t.Errorf("highlight clipped to %f, want 1", v)
	}
}

func TestColorBalanceSingleChannel(t *testing.T) {
	in := flatBuffer(t, 2, 2, 0.3)
	op := mustOp(t, KindColorBalance, ColorBalanceParams{Red: 2, Green: 1, Blue: 1}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0.6) {
		t.Errorf("red %f, want 0.6", v)
	}
	if v := out.Get(0, 0, 1); !almost(v, 0.3) {
		t.Errorf("green %f, want untouched 0.3", v)
	}
}

func TestGrayscaleAndNegative(t *testing.T) {
	in, _ := epix.New(1, 1, 3)
	in.Set(0, 0, 0, 0.2)
	in.Set(0, 0, 1, 0.8)
	in.Set(0, 0, 2, 0.4)

	gray, err := mustOp(t, KindGrayscale, GrayscaleParams{}, nil).Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.3*0.2 + 0.6*0.8 + 0.1*0.4
	for c := 0; c < 3; c++ {
		if v := gray.Get(0, 0, c); !almost(v, want) {
			t.Errorf("gray channel %d = %f, want %f", c, v, want)
		}
	}

	neg, err := mustOp(t, KindNegative, NegativeParams{}, nil).Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := neg.Get(0, 0, 1); !almost(v, 0.2) {
		t.Errorf("negative of 0.8 = %f, want 0.2", v)
	}
}

func TestHotPixelsReplacesSpike(t *testing.T) {
	in := flatBuffer(t, 5, 5, 0.1)
	for c := 0; c < 3; c++ {
		in.Set(2, 2, c, 0.9)
	}
	op := mustOp(t, KindHotPixels, HotPixelsParams{Ratio: 2, Channels: "l"}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Get(2, 2, 0); !almost(v, 0.1) {
		t.Errorf("hot pixel replaced with %f, want neighbour average 0.1", v)
	}
	if v := out.Get(0, 0, 0); !almost(v, 0.1) {
		t.Errorf("cool pixel changed to %f", v)
	}
}

func TestNoiseIsDeterministicPerSeed(t *testing.T) {
	in := flatBuffer(t, 8, 8, 0.5)
	op := mustOp(t, KindNoise, NoiseParams{Sigma: 0.01, Seed: 42}, nil)

	a, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if !a.EqualWithin(b, 0) {
		t.Error("same seed produced different output")
	}

	other := mustOp(t, KindNoise, NoiseParams{Sigma: 0.01, Seed: 43}, nil)
	c, err := other.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if a.EqualWithin(c, 0) {
		t.Error("different seeds produced identical output")
	}
}

func TestUnsharpMaskFlatImageUnchanged(t *testing.T) {
	in := flatBuffer(t, 8, 8, 0.4)
	op := mustOp(t, KindUnsharpMask, UnsharpMaskParams{Radius: 2, Amount: 1.5}, nil)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if !out.EqualWithin(in, 1e-12) {
		t.Error("unsharp mask changed a flat image")
	}
}

func TestMaskedOpLeavesExcludedColumnsUntouched(t *testing.T) {
	// Include only the right half.
	weights := make([]float64, 16)
	for y := 0; y < 4; y++ {
		weights[y*4+2] = 1
		weights[y*4+3] = 1
	}
	mask, err := emask.FromWeights(4, 4, weights)
	if err != nil {
		t.Fatal(err)
	}

	in := flatBuffer(t, 4, 4, 0.5)
	op := mustOp(t, KindColorBalance, ColorBalanceParams{Red: 1.5, Green: 1, Blue: 1}, mask)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		if v := out.Get(0, y, 0); v != 0.5 {
			t.Fatalf("excluded pixel (0,%d) = %f, want exactly 0.5", y, v)
		}
		if v := out.Get(3, y, 0); !almost(v, 0.75) {
			t.Fatalf("included pixel (3,%d) = %f, want 0.75", y, v)
		}
	}
}

func TestAllZeroMaskIsIdentity(t *testing.T) {
	mask, err := emask.NewUniform(4, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	in := flatBuffer(t, 4, 4, 0.37)
	op := mustOp(t, KindColorBalance, ColorBalanceParams{Red: 3, Green: 3, Blue: 3}, mask)
	out, err := op.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	if !out.EqualWithin(in, 0) {
		t.Error("fully excluded op changed the buffer")
	}
}

func TestMaskShapeMismatchFails(t *testing.T) {
	mask, _ := emask.NewUniform(2, 2, 1)
	in := flatBuffer(t, 4, 4, 0.5)
	op := mustOp(t, KindNegative, NegativeParams{}, mask)
	if _, err := op.Apply(in); !errors.Is(err, epix.ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func TestColorOpsRejectMonoBuffers(t *testing.T) {
	mono, _ := epix.New(4, 4, 1)
	for _, kind := range []struct {
		kind   Kind
		params Params
	}{
		{KindColorBalance, ColorBalanceParams{Red: 1, Green: 1, Blue: 1}},
		{KindSaturation, SaturationParams{Factor: 1.5}},
		{KindHueRotate, HueRotateParams{Degrees: 90}},
		{KindTonemap, TonemapParams{Operator: "linear"}},
	} {
		op := mustOp(t, kind.kind, kind.params, nil)
		if _, err := op.Apply(mono); !errors.Is(err, epix.ErrInvalidParameters) {
			t.Errorf("%s on mono buffer: got %v, want ErrInvalidParameters", kind.kind, err)
		}
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for kind, name := range kindNames {
		got, ok := KindByName(name)
		if !ok || got != kind {
			t.Errorf("KindByName(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := KindByName("warp"); ok {
		t.Error("unknown kind resolved")
	}
}
