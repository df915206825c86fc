package estack

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/ymniquet/equimage/pkg/emask"
	"github.com/ymniquet/equimage/pkg/eops"
	"github.com/ymniquet/equimage/pkg/epix"
)

// A Session is the YAML description of an edit: the clamp policy, how to
// treat a telescope frame if one is detected, and the operation sequence.
// An exported stack log round-trips back in as a session.
type Session struct {
	Clamp      string    `yaml:"clamp,omitempty"`
	Frame      FrameSpec `yaml:"frame,omitempty"`
	Operations []OpSpec  `yaml:"operations"`
}

// FrameSpec controls frame handling during a session replay. With Exclude
// set, a detected telescope frame geometry turns into an inclusion mask on
// every operation, so edits stop at the disc edge.
type FrameSpec struct {
	Exclude bool    `yaml:"exclude,omitempty"`
	Feather float64 `yaml:"feather,omitempty"`
}

// MaskSpec describes a per-operation mask. Border and circle can be
// combined; the result is the intersection. Invert flips the final mask.
type MaskSpec struct {
	Border        int     `yaml:"border,omitempty"`
	BorderFeather int     `yaml:"borderfeather,omitempty"`
	CX            float64 `yaml:"cx,omitempty"`
	CY            float64 `yaml:"cy,omitempty"`
	Radius        float64 `yaml:"radius,omitempty"`
	CircleFeather float64 `yaml:"circlefeather,omitempty"`
	Invert        bool    `yaml:"invert,omitempty"`
}

func (m MaskSpec) empty() bool {
	return m.Border == 0 && m.Radius == 0
}

// An OpSpec is one operation in a session file. The kind string picks the
// operation; the other fields are read or ignored depending on the kind,
// which keeps the YAML flat and hand-editable.
type OpSpec struct {
	Kind  string `yaml:"kind"`
	Label string `yaml:"label,omitempty"`

	Curve    string  `yaml:"curve,omitempty"`
	Amount   float64 `yaml:"amount,omitempty"`
	Low      float64 `yaml:"low,omitempty"`
	High     float64 `yaml:"high,omitempty"`
	Channels string  `yaml:"channels,omitempty"`

	BlackPercentile float64 `yaml:"blackpercentile,omitempty"`
	WhitePercentile float64 `yaml:"whitepercentile,omitempty"`

	Shadow    float64 `yaml:"shadow,omitempty"`
	Highlight float64 `yaml:"highlight,omitempty"`

	Red   float64 `yaml:"red,omitempty"`
	Green float64 `yaml:"green,omitempty"`
	Blue  float64 `yaml:"blue,omitempty"`

	Factor  float64 `yaml:"factor,omitempty"`
	Degrees float64 `yaml:"degrees,omitempty"`

	Radius int     `yaml:"radius,omitempty"`
	Ratio  float64 `yaml:"ratio,omitempty"`
	Sigma  float64 `yaml:"sigma,omitempty"`
	Seed   int64   `yaml:"seed,omitempty"`

	Operator string `yaml:"operator,omitempty"`

	Mask MaskSpec `yaml:"mask,omitempty"`
}

// LoadSession reads a session file.
func LoadSession(filename string) (Session, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Session{}, fmt.Errorf("session %s: %v", filename, err)
	}
	return SessionFromYaml(b)
}

func SessionFromYaml(b []byte) (Session, error) {
	s := Session{}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("session yaml: %v", err)
	}
	if s.Clamp == "" {
		s.Clamp = string(ClampFinal)
	}
	return s, nil
}

func (s Session) AsYaml() string {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("# session marshal failed: %v\n", err)
	}
	return string(b)
}

// BuildStack replays a session over a base buffer. With frame exclusion on
// and a recognized telescope geometry, every operation gets the disc
// inclusion mask (intersected with any per-op mask), so the baked-in frame
// ring survives the edit untouched.
func (s Session) BuildStack(base *epix.Buffer) (*Stack, error) {
	stack, err := FromBase(base)
	if err != nil {
		return nil, err
	}
	if err := stack.SetClampPolicy(ClampPolicy(s.Clamp)); err != nil {
		return nil, err
	}

	var frameMask *emask.Mask
	if s.Frame.Exclude {
		if geom := emask.DetectFrame(base); geom != nil {
			frameMask, err = geom.Mask(s.Frame.Feather)
			if err != nil {
				return nil, err
			}
			log.WithFields(log.Fields{"frame": geom.Type}).Info("telescope frame excluded from edits")
		} else {
			log.Warn("frame exclusion requested but no frame geometry matches this image")
		}
	}

	for i, spec := range s.Operations {
		op, err := spec.Build(base.Dx(), base.Dy(), frameMask)
		if err != nil {
			return nil, fmt.Errorf("session op %d: %w", i, err)
		}
		if err := stack.Append(op); err != nil {
			return nil, fmt.Errorf("session op %d: %w", i, err)
		}
	}
	return stack, nil
}

// Build turns the spec into a validated operation for a w x h image.
// Zero-valued fields get the kind's defaults before validation.
func (spec OpSpec) Build(w, h int, frameMask *emask.Mask) (eops.Op, error) {
	kind, ok := eops.KindByName(spec.Kind)
	if !ok {
		return eops.Op{}, fmt.Errorf("no operation named %q: %w", spec.Kind, epix.ErrInvalidParameters)
	}

	channels := eops.Channels(spec.Channels)
	if channels == "" {
		channels = "l"
	}

	var params eops.Params
	switch kind {
	case eops.KindStretch:
		params = eops.StretchParams{Curve: spec.Curve, Amount: spec.Amount,
			Low: spec.Low, High: spec.High, Channels: channels}
	case eops.KindAutoStretch:
		p := eops.AutoStretchParams{BlackPercentile: spec.BlackPercentile,
			WhitePercentile: spec.WhitePercentile, Channels: channels}
		if p.WhitePercentile == 0 {
			p.BlackPercentile, p.WhitePercentile = 0.01, 0.99
		}
		params = p
	case eops.KindClipShadowsHighlights:
		p := eops.ClipShadowsHighlightsParams{Shadow: spec.Shadow,
			Highlight: spec.Highlight, Channels: channels}
		if p.Highlight == 0 {
			p.Highlight = 1
		}
		params = p
	case eops.KindColorBalance:
		p := eops.ColorBalanceParams{Red: spec.Red, Green: spec.Green, Blue: spec.Blue}
		// An omitted factor means "leave that channel alone".
		if p.Red == 0 {
			p.Red = 1
		}
		if p.Green == 0 {
			p.Green = 1
		}
		if p.Blue == 0 {
			p.Blue = 1
		}
		params = p
	case eops.KindSaturation:
		params = eops.SaturationParams{Factor: spec.Factor}
	case eops.KindHueRotate:
		params = eops.HueRotateParams{Degrees: spec.Degrees}
	case eops.KindGrayscale:
		params = eops.GrayscaleParams{}
	case eops.KindNegative:
		params = eops.NegativeParams{}
	case eops.KindSharpen:
		params = eops.SharpenParams{}
	case eops.KindUnsharpMask:
		p := eops.UnsharpMaskParams{Radius: spec.Radius, Amount: spec.Amount}
		if p.Radius == 0 {
			p.Radius = 1
		}
		if p.Amount == 0 {
			p.Amount = 1
		}
		params = p
	case eops.KindHotPixels:
		p := eops.HotPixelsParams{Ratio: spec.Ratio, Channels: channels}
		if p.Ratio == 0 {
			p.Ratio = 2
		}
		params = p
	case eops.KindNoise:
		params = eops.NoiseParams{Sigma: spec.Sigma, Seed: spec.Seed}
	case eops.KindTonemap:
		params = eops.TonemapParams{Operator: spec.Operator}
	default:
		return eops.Op{}, fmt.Errorf("operation %q has no builder: %w", spec.Kind, epix.ErrInvalidParameters)
	}

	mask, err := spec.Mask.build(w, h, frameMask)
	if err != nil {
		return eops.Op{}, err
	}

	op, err := eops.New(kind, params, mask)
	if err != nil {
		return eops.Op{}, err
	}
	if spec.Label != "" {
		op = op.WithLabel(spec.Label)
	}
	return op, nil
}

func (m MaskSpec) build(w, h int, frameMask *emask.Mask) (*emask.Mask, error) {
	if m.Border < 0 || m.Radius < 0 {
		return nil, fmt.Errorf("mask border %d radius %f: %w", m.Border, m.Radius, epix.ErrInvalidParameters)
	}
	if m.empty() {
		if m.Invert {
			return nil, fmt.Errorf("mask inverts no shape: %w", epix.ErrInvalidParameters)
		}
		return frameMask, nil
	}

	var mask *emask.Mask
	var err error
	if m.Border > 0 {
		mask, err = emask.NewBorder(w, h, m.Border, m.BorderFeather)
		if err != nil {
			return nil, err
		}
	}
	if m.Radius > 0 {
		circle, err := emask.NewCircle(w, h, m.CX, m.CY, m.Radius, m.CircleFeather)
		if err != nil {
			return nil, err
		}
		if mask == nil {
			mask = circle
		} else if mask, err = mask.Intersect(circle); err != nil {
			return nil, err
		}
	}
	if m.Invert {
		mask = mask.Invert()
	}
	if frameMask != nil {
		return mask.Intersect(frameMask)
	}
	return mask, nil
}
