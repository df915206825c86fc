// Package emask implements per-pixel weight masks. A weight of 0 excludes a
// pixel from an operation's effect, 1 includes it fully, and fractional
// weights give soft edges.
package emask

import (
	"fmt"
	"math"

	"github.com/ymniquet/equimage/pkg/epix"
)

type Mask struct {
	width  int
	height int
	w      []float64
}

// NewUniform builds a mask with the same weight everywhere.
func NewUniform(w, h int, weight float64) (*Mask, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("mask %dx%d: %w", w, h, epix.ErrInvalidShape)
	}
	if weight < 0 || weight > 1 {
		return nil, fmt.Errorf("mask weight %f: %w", weight, epix.ErrInvalidParameters)
	}
	m := &Mask{width: w, height: h, w: make([]float64, w*h)}
	for i := range m.w {
		m.w[i] = weight
	}
	return m, nil
}

// FromWeights wraps an explicit weight plane. Weights outside [0, 1] are
// rejected, not clipped.
func FromWeights(w, h int, weights []float64) (*Mask, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("mask %dx%d: %w", w, h, epix.ErrInvalidShape)
	}
	if len(weights) != w*h {
		return nil, fmt.Errorf("mask %dx%d with %d weights: %w", w, h, len(weights), epix.ErrInvalidShape)
	}
	for _, v := range weights {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("mask weight %f: %w", v, epix.ErrInvalidParameters)
		}
	}
	m := &Mask{width: w, height: h, w: make([]float64, w*h)}
	copy(m.w, weights)
	return m, nil
}

// NewBorder excludes the outer margin pixels of the image, the preset used
// for telescope frames with a fixed non-image border. Feather > 0 ramps the
// weight linearly over that many pixels inside the margin.
func NewBorder(w, h, margin, feather int) (*Mask, error) {
	if margin < 0 || feather < 0 {
		return nil, fmt.Errorf("border margin %d feather %d: %w", margin, feather, epix.ErrInvalidParameters)
	}
	if 2*margin >= w || 2*margin >= h {
		return nil, fmt.Errorf("border margin %d on %dx%d: %w", margin, w, h, epix.ErrInvalidParameters)
	}
	m, err := NewUniform(w, h, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := min4(x-margin, y-margin, w-1-margin-x, h-1-margin-y)
			switch {
			case d < 0:
				// outside: weight stays 0
			case feather == 0 || d >= feather:
				m.w[y*w+x] = 1
			default:
				m.w[y*w+x] = float64(d+1) / float64(feather+1)
			}
		}
	}
	return m, nil
}

// NewCircle includes the disc of the given center and radius, the shape of
// the usable area inside a circular telescope frame. Feather softens the
// rim over that many pixels.
func NewCircle(w, h int, cx, cy, radius, feather float64) (*Mask, error) {
	if radius <= 0 || feather < 0 {
		return nil, fmt.Errorf("circle radius %f feather %f: %w", radius, feather, epix.ErrInvalidParameters)
	}
	m, err := NewUniform(w, h, 0)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d <= radius-feather:
				m.w[y*w+x] = 1
			case d >= radius:
				// outside: weight stays 0
			default:
				m.w[y*w+x] = (radius - d) / feather
			}
		}
	}
	return m, nil
}

func (m *Mask) Dx() int { return m.width }
func (m *Mask) Dy() int { return m.height }

func (m *Mask) Weight(x, y int) float64 { return m.w[y*m.width+x] }

// IsZero reports whether the mask excludes everything.
func (m *Mask) IsZero() bool {
	for _, v := range m.w {
		if v != 0 {
			return false
		}
	}
	return true
}

// Matches reports whether the mask fits a buffer.
func (m *Mask) Matches(b *epix.Buffer) bool {
	return m.width == b.Dx() && m.height == b.Dy()
}

// Invert returns the complementary mask.
func (m *Mask) Invert() *Mask {
	m2 := &Mask{width: m.width, height: m.height, w: make([]float64, len(m.w))}
	for i, v := range m.w {
		m2.w[i] = 1 - v
	}
	return m2
}

// Intersect combines by elementwise minimum.
func (m *Mask) Intersect(o *Mask) (*Mask, error) {
	if m.width != o.width || m.height != o.height {
		return nil, fmt.Errorf("intersect %dx%d with %dx%d: %w", m.width, m.height, o.width, o.height, epix.ErrShapeMismatch)
	}
	m2 := &Mask{width: m.width, height: m.height, w: make([]float64, len(m.w))}
	for i := range m.w {
		m2.w[i] = math.Min(m.w[i], o.w[i])
	}
	return m2, nil
}

// Union combines by elementwise maximum.
func (m *Mask) Union(o *Mask) (*Mask, error) {
	if m.width != o.width || m.height != o.height {
		return nil, fmt.Errorf("union %dx%d with %dx%d: %w", m.width, m.height, o.width, o.height, epix.ErrShapeMismatch)
	}
	m2 := &Mask{width: m.width, height: m.height, w: make([]float64, len(m.w))}
	for i := range m.w {
		m2.w[i] = math.Max(m.w[i], o.w[i])
	}
	return m2, nil
}

// Blend composes an operation's output with its input under the mask:
// result = orig*(1-w) + transformed*w, per pixel per channel. Wherever the
// weight is 0 the original samples pass through bit-identical, however
// aggressive the transform was.
func (m *Mask) Blend(orig, transformed *epix.Buffer) (*epix.Buffer, error) {
	if !orig.SameShape(transformed) {
		return nil, fmt.Errorf("blend %dx%d with %dx%d: %w", orig.Dx(), orig.Dy(), transformed.Dx(), transformed.Dy(), epix.ErrShapeMismatch)
	}
	if !m.Matches(orig) {
		return nil, fmt.Errorf("mask %dx%d on buffer %dx%d: %w", m.width, m.height, orig.Dx(), orig.Dy(), epix.ErrShapeMismatch)
	}
	out := orig.NewFromThis()
	for c := 0; c < orig.Channels(); c++ {
		for y := 0; y < orig.Dy(); y++ {
			for x := 0; x < orig.Dx(); x++ {
				w := m.w[y*m.width+x]
				switch w {
				case 0:
					out.Set(x, y, c, orig.Get(x, y, c))
				case 1:
					out.Set(x, y, c, transformed.Get(x, y, c))
				default:
					out.Set(x, y, c, orig.Get(x, y, c)*(1-w)+transformed.Get(x, y, c)*w)
				}
			}
		}
	}
	return out, nil
}

func min4(a, b, c, d int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	if d < a {
		a = d
	}
	return a
}
