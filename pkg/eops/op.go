package eops

import (
	"fmt"
	"strings"

	"github.com/ymniquet/equimage/pkg/emask"
	"github.com/ymniquet/equimage/pkg/epix"
)

// An Op is one committed adjustment: a kind, its validated parameters, an
// optional mask restricting its effect, and a human-readable label for the
// log. Ops are immutable; editing one means building a replacement.
type Op struct {
	Kind   Kind
	Params Params
	Mask   *emask.Mask
	Label  string
}

// New validates the parameters and builds the operation. The label defaults
// to the parameter description.
func New(kind Kind, params Params, mask *emask.Mask) (Op, error) {
	if params == nil {
		return Op{}, fmt.Errorf("op %s with nil params: %w", kind, epix.ErrInvalidParameters)
	}
	if err := params.Validate(); err != nil {
		return Op{}, fmt.Errorf("op %s: %w", kind, err)
	}
	if !paramsMatchKind(kind, params) {
		return Op{}, fmt.Errorf("op %s with %T params: %w", kind, params, epix.ErrInvalidParameters)
	}
	return Op{Kind: kind, Params: params, Mask: mask, Label: params.Describe()}, nil
}

func paramsMatchKind(kind Kind, params Params) bool {
	switch params.(type) {
	case StretchParams:
		return kind == KindStretch
	case AutoStretchParams:
		return kind == KindAutoStretch
	case ClipShadowsHighlightsParams:
		return kind == KindClipShadowsHighlights
	case ColorBalanceParams:
		return kind == KindColorBalance
	case SaturationParams:
		return kind == KindSaturation
	case HueRotateParams:
		return kind == KindHueRotate
	case GrayscaleParams:
		return kind == KindGrayscale
	case NegativeParams:
		return kind == KindNegative
	case SharpenParams:
		return kind == KindSharpen
	case UnsharpMaskParams:
		return kind == KindUnsharpMask
	case HotPixelsParams:
		return kind == KindHotPixels
	case NoiseParams:
		return kind == KindNoise
	case TonemapParams:
		return kind == KindTonemap
	}
	return false
}

// WithLabel returns a copy carrying a caller-chosen label.
func (op Op) WithLabel(label string) Op {
	op.Label = label
	return op
}

// Apply runs the operation over a buffer and returns a fresh buffer of the
// same shape. The input is never written. Applying the same op to the same
// buffer always produces identical output; randomized kinds draw from the
// seed captured in their parameters.
//
// Values are not clamped to [0, 1] here unless the kind's own math requires
// it; end-of-chain clamping is the stack's job.
func (op Op) Apply(in *epix.Buffer) (*epix.Buffer, error) {
	if op.Mask != nil && !op.Mask.Matches(in) {
		return nil, fmt.Errorf("op %s: mask %dx%d on buffer %dx%d: %w",
			op.Kind, op.Mask.Dx(), op.Mask.Dy(), in.Dx(), in.Dy(), epix.ErrShapeMismatch)
	}
	if err := op.Params.Validate(); err != nil {
		return nil, fmt.Errorf("op %s: %w", op.Kind, err)
	}

	var out *epix.Buffer
	var err error

	switch op.Kind {
	case KindStretch:
		out, err = applyStretch(in, op.Params.(StretchParams))
	case KindAutoStretch:
		out, err = applyAutoStretch(in, op.Params.(AutoStretchParams))
	case KindClipShadowsHighlights:
		out, err = applyClipShadowsHighlights(in, op.Params.(ClipShadowsHighlightsParams))
	case KindColorBalance:
		out, err = applyColorBalance(in, op.Params.(ColorBalanceParams))
	case KindSaturation:
		out, err = applySaturation(in, op.Params.(SaturationParams))
	case KindHueRotate:
		out, err = applyHueRotate(in, op.Params.(HueRotateParams))
	case KindGrayscale:
		out, err = applyGrayscale(in)
	case KindNegative:
		out, err = applyNegative(in)
	case KindSharpen:
		out, err = applySharpen(in)
	case KindUnsharpMask:
		out, err = applyUnsharpMask(in, op.Params.(UnsharpMaskParams))
	case KindHotPixels:
		out, err = applyHotPixels(in, op.Params.(HotPixelsParams))
	case KindNoise:
		out, err = applyNoise(in, op.Params.(NoiseParams))
	case KindTonemap:
		out, err = applyTonemap(in, op.Params.(TonemapParams))
	default:
		return nil, fmt.Errorf("op kind %d not recognized: %w", op.Kind, epix.ErrInvalidParameters)
	}
	if err != nil {
		return nil, err
	}

	if op.Mask != nil {
		return op.Mask.Blend(in, out)
	}
	return out, nil
}

// rgbChannels expands a Channels selector into concrete plane indices.
// Only valid for rgb-subset selectors.
func rgbChannels(sel Channels, nchannels int) []int {
	out := []int{}
	s := strings.ToLower(string(sel))
	for c, letter := range "rgb" {
		if c >= nchannels {
			break
		}
		if strings.ContainsRune(s, letter) {
			out = append(out, c)
		}
	}
	return out
}

// applyPlaneCurve runs a level curve f over the selected channels. For the
// derived "v"/"l" planes it uses the ratio trick from the original
// processing code: transform the derived plane, then scale each RGB sample
// by transformed/source so the hue is preserved. Where the source is ~0 all
// channels are set to the transformed level.
func applyPlaneCurve(in *epix.Buffer, sel Channels, f func(float64) float64) *epix.Buffer {
	s := strings.ToLower(string(sel))
	if s != "v" && s != "l" {
		out := in.Clone()
		for _, c := range rgbChannels(sel, in.Channels()) {
			out = out.MapChannel(c, f)
		}
		return out
	}

	var source []float64
	if s == "v" {
		source = in.Value()
	} else {
		source = in.Luma(lumaWeights())
	}

	w, h := in.Dx(), in.Dy()
	out := in.Clone()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := source[y*w+x]
			target := f(src)
			for c := 0; c < in.Channels(); c++ {
				if src > epix.Tol || src < -epix.Tol {
					out.Set(x, y, c, in.Get(x, y, c)*target/src)
				} else {
					out.Set(x, y, c, target)
				}
			}
		}
	}
	return out
}
