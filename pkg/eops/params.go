package eops

import (
	"fmt"
	"strings"

	"github.com/ymniquet/equimage/pkg/epix"
)

// Params is the per-kind parameter record. Implementations are plain
// structs so they serialize straight into the YAML operation log.
type Params interface {
	Validate() error
	Describe() string
}

// A Channels selector names which planes an operation touches: any subset
// of "rgb", or "v" (HSV value) or "l" (luma). With "v"/"l" the derived
// plane is transformed and the RGB components rescaled by the ratio of
// stretched to unstretched plane, which preserves hue.
type Channels string

func (c Channels) validate() error {
	s := strings.ToLower(string(c))
	if s == "v" || s == "l" {
		return nil
	}
	if s == "" {
		return fmt.Errorf("empty channel selector: %w", epix.ErrInvalidParameters)
	}
	for _, r := range s {
		if r != 'r' && r != 'g' && r != 'b' {
			return fmt.Errorf("channel selector %q: %w", c, epix.ErrInvalidParameters)
		}
	}
	return nil
}

// The stretch curve families.
const (
	CurveGamma   = "gamma"
	CurveMidtone = "midtone"
	CurveAsinh   = "asinh"
	CurveLinear  = "linear"
)

// StretchParams drives the histogram stretch operation. Amount is the
// curve's single shape parameter: the gamma exponent, the midtone level,
// or the asinh stretch factor. Low/High bound the linear remap curve.
type StretchParams struct {
	Curve    string   `yaml:"curve"`
	Amount   float64  `yaml:"amount"`
	Low      float64  `yaml:"low,omitempty"`
	High     float64  `yaml:"high,omitempty"`
	Channels Channels `yaml:"channels"`
}

func (p StretchParams) Validate() error {
	if err := p.Channels.validate(); err != nil {
		return err
	}
	switch p.Curve {
	case CurveGamma:
		if p.Amount <= 0 {
			return fmt.Errorf("gamma %f must be > 0: %w", p.Amount, epix.ErrInvalidParameters)
		}
	case CurveMidtone:
		if p.Amount <= 0 || p.Amount >= 1 {
			return fmt.Errorf("midtone %f must be in (0,1): %w", p.Amount, epix.ErrInvalidParameters)
		}
	case CurveAsinh:
		if p.Amount <= 0 {
			return fmt.Errorf("asinh stretch %f must be > 0: %w", p.Amount, epix.ErrInvalidParameters)
		}
	case CurveLinear:
		if p.High <= p.Low {
			return fmt.Errorf("linear remap [%f,%f] empty: %w", p.Low, p.High, epix.ErrInvalidParameters)
		}
	default:
		return fmt.Errorf("no stretch curve named %q: %w", p.Curve, epix.ErrInvalidParameters)
	}
	return nil
}

func (p StretchParams) Describe() string {
	if p.Curve == CurveLinear {
		return fmt.Sprintf("linear stretch [%.4f, %.4f] on %s", p.Low, p.High, p.Channels)
	}
	return fmt.Sprintf("%s stretch %.4f on %s", p.Curve, p.Amount, p.Channels)
}

// AutoStretchParams clips the black and white points at the given
// percentiles (in [0, 1]) of the selected plane, then remaps to [0, 1].
type AutoStretchParams struct {
	BlackPercentile float64  `yaml:"blackpercentile"`
	WhitePercentile float64  `yaml:"whitepercentile"`
	Channels        Channels `yaml:"channels"`
}

func (p AutoStretchParams) Validate() error {
	if err := p.Channels.validate(); err != nil {
		return err
	}
	if p.BlackPercentile < 0 || p.WhitePercentile > 1 || p.BlackPercentile >= p.WhitePercentile {
		return fmt.Errorf("percentiles [%f,%f]: %w", p.BlackPercentile, p.WhitePercentile, epix.ErrInvalidParameters)
	}
	return nil
}

func (p AutoStretchParams) Describe() string {
	return fmt.Sprintf("autostretch [%.4f, %.4f] on %s", p.BlackPercentile, p.WhitePercentile, p.Channels)
}

// ClipShadowsHighlightsParams clips the selected plane below Shadow and
// above Highlight, then remaps [Shadow, Highlight] to [0, 1].
type ClipShadowsHighlightsParams struct {
	Shadow    float64  `yaml:"shadow"`
	Highlight float64  `yaml:"highlight"`
	Channels  Channels `yaml:"channels"`
}

func (p ClipShadowsHighlightsParams) Validate() error {
	if err := p.Channels.validate(); err != nil {
		return err
	}
	if p.Highlight <= p.Shadow {
		return fmt.Errorf("highlight %f must be > shadow %f: %w", p.Highlight, p.Shadow, epix.ErrInvalidParameters)
	}
	return nil
}

func (p ClipShadowsHighlightsParams) Describe() string {
	return fmt.Sprintf("clip [%.4f, %.4f] on %s", p.Shadow, p.Highlight, p.Channels)
}

// ColorBalanceParams multiplies each channel by its factor.
type ColorBalanceParams struct {
	Red   float64 `yaml:"red"`
	Green float64 `yaml:"green"`
	Blue  float64 `yaml:"blue"`
}

func (p ColorBalanceParams) Validate() error {
	if p.Red < 0 || p.Green < 0 || p.Blue < 0 {
		return fmt.Errorf("color balance (%f, %f, %f) must be >= 0: %w", p.Red, p.Green, p.Blue, epix.ErrInvalidParameters)
	}
	return nil
}

func (p ColorBalanceParams) Describe() string {
	return fmt.Sprintf("color balance R=%.3f G=%.3f B=%.3f", p.Red, p.Green, p.Blue)
}

type SaturationParams struct {
	Factor float64 `yaml:"factor"`
}

func (p SaturationParams) Validate() error {
	if p.Factor < 0 {
		return fmt.Errorf("saturation factor %f must be >= 0: %w", p.Factor, epix.ErrInvalidParameters)
	}
	return nil
}

func (p SaturationParams) Describe() string { return fmt.Sprintf("saturation x%.3f", p.Factor) }

type HueRotateParams struct {
	Degrees float64 `yaml:"degrees"`
}

func (p HueRotateParams) Validate() error {
	if p.Degrees <= -360 || p.Degrees >= 360 {
		return fmt.Errorf("hue rotation %f degrees: %w", p.Degrees, epix.ErrInvalidParameters)
	}
	return nil
}

func (p HueRotateParams) Describe() string { return fmt.Sprintf("hue rotate %.1f deg", p.Degrees) }

type GrayscaleParams struct{}

func (p GrayscaleParams) Validate() error  { return nil }
func (p GrayscaleParams) Describe() string { return "grayscale (luma)" }

type NegativeParams struct{}

func (p NegativeParams) Validate() error  { return nil }
func (p NegativeParams) Describe() string { return "negative" }

type SharpenParams struct{}

func (p SharpenParams) Validate() error  { return nil }
func (p SharpenParams) Describe() string { return "sharpen (3x3 kernel)" }

// UnsharpMaskParams: Radius is the number of separable blur passes used to
// build the soft image, Amount how much of the difference gets added back.
type UnsharpMaskParams struct {
	Radius int     `yaml:"radius"`
	Amount float64 `yaml:"amount"`
}

func (p UnsharpMaskParams) Validate() error {
	if p.Radius < 1 || p.Radius > 64 {
		return fmt.Errorf("unsharp radius %d must be in [1,64]: %w", p.Radius, epix.ErrInvalidParameters)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("unsharp amount %f must be > 0: %w", p.Amount, epix.ErrInvalidParameters)
	}
	return nil
}

func (p UnsharpMaskParams) Describe() string {
	return fmt.Sprintf("unsharp mask radius=%d amount=%.3f", p.Radius, p.Amount)
}

// HotPixelsParams replaces pixels brighter than Ratio times the average of
// their 8 neighbours by that average.
type HotPixelsParams struct {
	Ratio    float64  `yaml:"ratio"`
	Channels Channels `yaml:"channels"`
}

func (p HotPixelsParams) Validate() error {
	if err := p.Channels.validate(); err != nil {
		return err
	}
	if p.Ratio <= 0 {
		return fmt.Errorf("hot pixel ratio %f must be > 0: %w", p.Ratio, epix.ErrInvalidParameters)
	}
	return nil
}

func (p HotPixelsParams) Describe() string {
	return fmt.Sprintf("hot pixels ratio=%.3f on %s", p.Ratio, p.Channels)
}

// NoiseParams adds zero-mean gaussian noise (for dithering before
// quantized export). The seed is part of the record so replay is
// deterministic.
type NoiseParams struct {
	Sigma float64 `yaml:"sigma"`
	Seed  int64   `yaml:"seed"`
}

func (p NoiseParams) Validate() error {
	if p.Sigma <= 0 || p.Sigma > 1 {
		return fmt.Errorf("noise sigma %f must be in (0,1]: %w", p.Sigma, epix.ErrInvalidParameters)
	}
	return nil
}

func (p NoiseParams) Describe() string {
	return fmt.Sprintf("noise sigma=%.5f seed=%d", p.Sigma, p.Seed)
}

// The HDR->LDR tone mapping operators we expose.
var Tonemappers = []string{"linear", "drago03", "reinhard05"}

type TonemapParams struct {
	Operator string `yaml:"operator"`
}

func (p TonemapParams) Validate() error {
	for _, name := range Tonemappers {
		if p.Operator == name {
			return nil
		}
	}
	return fmt.Errorf("no tonemapper named %q, wanted %v: %w", p.Operator, Tonemappers, epix.ErrInvalidParameters)
}

func (p TonemapParams) Describe() string { return fmt.Sprintf("tonemap %s", p.Operator) }
