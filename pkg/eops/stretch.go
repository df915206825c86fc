package eops

import (
	"math"

	"github.com/ymniquet/equimage/pkg/ecolor"
	"github.com/ymniquet/equimage/pkg/epix"
)

func lumaWeights() [3]float64 { return ecolor.RGBLuma() }

// The stretch curves all clamp their input level to [0, 1] before applying
// the transfer function; the functions are only defined on that interval.
// This is a documented local clamp, not the end-of-chain clamp.

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// midtoneTransfer is the classic midtone transfer function: maps the
// midtone level m to 0.5 while pinning 0 and 1.
func midtoneTransfer(v, m float64) float64 {
	return (m - 1) * v / ((2*m-1)*v - m)
}

func applyStretch(in *epix.Buffer, p StretchParams) (*epix.Buffer, error) {
	var f func(float64) float64
	switch p.Curve {
	case CurveGamma:
		gamma := p.Amount
		f = func(v float64) float64 { return math.Pow(clip01(v), gamma) }
	case CurveMidtone:
		m := p.Amount
		f = func(v float64) float64 { return midtoneTransfer(clip01(v), m) }
	case CurveAsinh:
		d := p.Amount
		norm := math.Asinh(d)
		f = func(v float64) float64 { return math.Asinh(d*clip01(v)) / norm }
	case CurveLinear:
		lo, hi := p.Low, p.High
		f = func(v float64) float64 {
			out := (v - lo) / (hi - lo)
			if out < 0 {
				out = 0
			}
			return out
		}
	}
	return applyPlaneCurve(in, p.Channels, f), nil
}

func applyAutoStretch(in *epix.Buffer, p AutoStretchParams) (*epix.Buffer, error) {
	plane := selectPlane(in, p.Channels)
	black := epix.Percentile(plane, p.BlackPercentile)
	white := epix.Percentile(plane, p.WhitePercentile)
	if white-black < epix.Tol {
		// Degenerate histogram; nothing to stretch.
		return in.Clone(), nil
	}
	linear := StretchParams{Curve: CurveLinear, Low: black, High: white, Channels: p.Channels}
	return applyStretch(in, linear)
}

func applyClipShadowsHighlights(in *epix.Buffer, p ClipShadowsHighlightsParams) (*epix.Buffer, error) {
	lo, hi := p.Shadow, p.Highlight
	f := func(v float64) float64 {
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		return (v - lo) / (hi - lo)
	}
	return applyPlaneCurve(in, p.Channels, f), nil
}

// selectPlane resolves a Channels selector to the plane the percentile
// stats should run over. RGB subsets use the first named channel.
func selectPlane(in *epix.Buffer, sel Channels) []float64 {
	switch sel {
	case "v", "V":
		return in.Value()
	case "l", "L":
		return in.Luma(lumaWeights())
	}
	chans := rgbChannels(sel, in.Channels())
	if len(chans) == 0 {
		return in.Plane(0)
	}
	return in.Plane(chans[0])
}
