// Package ediff compares two renders of the same base image, typically the
// terminal buffers of two alternative edit sequences. It works purely on
// rendered output; it knows nothing about the stacks that produced it.
package ediff

import (
	"fmt"
	"math"

	"github.com/ymniquet/equimage/pkg/ecolor"
	"github.com/ymniquet/equimage/pkg/epix"
)

// Mode picks the composite style for visual A/B evaluation.
type Mode string

const (
	// ModeDifference maps the signed per-channel difference around mid
	// gray: identical pixels render 0.5, B brighter than A pushes up.
	ModeDifference Mode = "difference"
	// ModeBlend cross-fades A into B by Alpha.
	ModeBlend Mode = "blend"
	// ModeCheckerboard tiles A and B in alternating squares, which makes
	// geometric shifts and sharpening halos pop at the tile seams.
	ModeCheckerboard Mode = "checkerboard"
)

// Options carries the per-mode tuning. Zero values get defaults.
type Options struct {
	Mode  Mode
	Alpha float64 // blend: weight of B, in [0, 1]
	Tile  int     // checkerboard: square size in pixels
}

// Compare composites buffers A and B for side-by-side evaluation. The
// inputs must share shape; the result is a fresh buffer of the same shape.
func Compare(a, b *epix.Buffer, opt Options) (*epix.Buffer, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("compare %dx%dx%d with %dx%dx%d: %w",
			a.Dx(), a.Dy(), a.Channels(), b.Dx(), b.Dy(), b.Channels(), epix.ErrShapeMismatch)
	}

	switch opt.Mode {
	case ModeDifference, "":
		return difference(a, b), nil
	case ModeBlend:
		alpha := opt.Alpha
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("blend alpha %f: %w", alpha, epix.ErrInvalidParameters)
		}
		return blend(a, b, alpha), nil
	case ModeCheckerboard:
		tile := opt.Tile
		if tile == 0 {
			tile = 64
		}
		if tile < 1 {
			return nil, fmt.Errorf("checkerboard tile %d: %w", tile, epix.ErrInvalidParameters)
		}
		return checkerboard(a, b, tile), nil
	}
	return nil, fmt.Errorf("no comparison mode named %q: %w", opt.Mode, epix.ErrInvalidParameters)
}

func difference(a, b *epix.Buffer) *epix.Buffer {
	out := a.NewFromThis()
	for c := 0; c < a.Channels(); c++ {
		for y := 0; y < a.Dy(); y++ {
			for x := 0; x < a.Dx(); x++ {
				out.Set(x, y, c, 0.5+(b.Get(x, y, c)-a.Get(x, y, c))/2)
			}
		}
	}
	return out
}

func blend(a, b *epix.Buffer, alpha float64) *epix.Buffer {
	out := a.NewFromThis()
	for c := 0; c < a.Channels(); c++ {
		for y := 0; y < a.Dy(); y++ {
			for x := 0; x < a.Dx(); x++ {
				out.Set(x, y, c, a.Get(x, y, c)*(1-alpha)+b.Get(x, y, c)*alpha)
			}
		}
	}
	return out
}

func checkerboard(a, b *epix.Buffer, tile int) *epix.Buffer {
	out := a.Clone()
	for y := 0; y < a.Dy(); y++ {
		for x := 0; x < a.Dx(); x++ {
			if ((x/tile)+(y/tile))%2 == 0 {
				continue
			}
			for c := 0; c < a.Channels(); c++ {
				out.Set(x, y, c, b.Get(x, y, c))
			}
		}
	}
	return out
}

// Metric scores how far apart two renders are: the mean absolute luma
// difference across all pixels. Zero means identical; the less similar,
// the higher the value.
func Metric(a, b *epix.Buffer) (float64, error) {
	if !a.SameShape(b) {
		return 0, fmt.Errorf("metric %dx%d vs %dx%d: %w", a.Dx(), a.Dy(), b.Dx(), b.Dy(), epix.ErrShapeMismatch)
	}
	la := a.Luma(ecolor.RGBLuma())
	lb := b.Luma(ecolor.RGBLuma())
	tot := 0.0
	for i := range la {
		tot += math.Abs(la[i] - lb[i])
	}
	return tot / float64(len(la)), nil
}
