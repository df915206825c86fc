package eops

import (
	"fmt"

	"github.com/ymniquet/equimage/pkg/ecolor"
	"github.com/ymniquet/equimage/pkg/epix"
)

func applyColorBalance(in *epix.Buffer, p ColorBalanceParams) (*epix.Buffer, error) {
	if in.Channels() < 3 {
		return nil, fmt.Errorf("color balance on %d-channel buffer: %w", in.Channels(), epix.ErrInvalidParameters)
	}
	out := in.Clone()
	if p.Red != 1 {
		out = out.MapChannel(0, func(v float64) float64 { return v * p.Red })
	}
	if p.Green != 1 {
		out = out.MapChannel(1, func(v float64) float64 { return v * p.Green })
	}
	if p.Blue != 1 {
		out = out.MapChannel(2, func(v float64) float64 { return v * p.Blue })
	}
	return out, nil
}

func applySaturation(in *epix.Buffer, p SaturationParams) (*epix.Buffer, error) {
	return mapRGB(in, func(r, g, b float64) (float64, float64, float64) {
		return ecolor.ScaleSaturation(r, g, b, p.Factor)
	})
}

func applyHueRotate(in *epix.Buffer, p HueRotateParams) (*epix.Buffer, error) {
	return mapRGB(in, func(r, g, b float64) (float64, float64, float64) {
		return ecolor.RotateHue(r, g, b, p.Degrees)
	})
}

func applyGrayscale(in *epix.Buffer) (*epix.Buffer, error) {
	luma := in.Luma(lumaWeights())
	out := in.NewFromThis()
	w := in.Dx()
	for y := 0; y < in.Dy(); y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < in.Channels(); c++ {
				out.Set(x, y, c, luma[y*w+x])
			}
		}
	}
	return out, nil
}

func applyNegative(in *epix.Buffer) (*epix.Buffer, error) {
	return in.Map(func(v float64) float64 { return 1 - clip01(v) }), nil
}

func mapRGB(in *epix.Buffer, f func(r, g, b float64) (float64, float64, float64)) (*epix.Buffer, error) {
	if in.Channels() < 3 {
		return nil, fmt.Errorf("color transform on %d-channel buffer: %w", in.Channels(), epix.ErrInvalidParameters)
	}
	out := in.Clone()
	for y := 0; y < in.Dy(); y++ {
		for x := 0; x < in.Dx(); x++ {
			r, g, b := f(in.Get(x, y, 0), in.Get(x, y, 1), in.Get(x, y, 2))
			out.Set(x, y, 0, r)
			out.Set(x, y, 1, g)
			out.Set(x, y, 2, b)
		}
	}
	return out, nil
}
