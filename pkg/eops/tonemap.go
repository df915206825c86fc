package eops

import (
	"fmt"

	"github.com/mdouchement/hdr/tmo"

	"github.com/ymniquet/equimage/pkg/epix"
)

// applyTonemap compresses HDR pixel data down toward the displayable range
// with one of the mdouchement/hdr operators. Buffers implement hdr.Image,
// so they plug straight in; the operator's LDR output is read back into a
// fresh buffer.
func applyTonemap(in *epix.Buffer, p TonemapParams) (*epix.Buffer, error) {
	if in.Channels() < 3 {
		return nil, fmt.Errorf("tonemap on %d-channel buffer: %w", in.Channels(), epix.ErrInvalidParameters)
	}

	var op tmo.ToneMappingOperator
	switch p.Operator {
	case "linear":
		op = tmo.NewLinear(in)
	case "drago03":
		d := tmo.NewDefaultDrago03(in)
		d.Bias = 1.0 // the default bias overexposes small bright features
		op = d
	case "reinhard05":
		r := tmo.NewDefaultReinhard05(in)
		r.Chromatic = 0.005
		r.Light = 0.005 // likewise: keep the bright core from blowing out
		op = r
	default:
		return nil, fmt.Errorf("no tonemapper named %q: %w", p.Operator, epix.ErrInvalidParameters)
	}

	ldr := op.Perform()
	out, err := epix.FromImage(ldr)
	if err != nil {
		return nil, err
	}
	return out, nil
}
