package epix

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"
)

// Tol is the expected accuracy of float64 pixel arithmetic. Values closer
// than this are treated as equal.
const Tol = 1e-9

// MaxPixels caps buffer allocation (per channel). Big enough for any
// telescope sensor we care about, small enough that a corrupt header can't
// take the process down.
const MaxPixels = 1 << 28 // 256 Mpix

// A Buffer is a multi-channel floating point image. Channel samples live in
// the canonical range [0, 1] (full black to full saturation), though values
// may stray outside mid-pipeline until a clamp is applied.
//
// Buffers have value semantics: once a Buffer has been handed to another
// component it is never written again. Every transform allocates a fresh
// Buffer. The Set method exists only so that builders (operations, codecs)
// can fill a buffer they have just allocated.
//
// Storage is planar, one w*h plane per channel, matching the channel-first
// layout the rest of the pipeline thinks in.
type Buffer struct {
	width    int
	height   int
	channels int
	pix      []float64
}

// New allocates a zeroed buffer. Channels is typically 3 (RGB), sometimes 1
// (mono) or 4 (RGB + validity).
func New(w, h, channels int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("buffer %dx%d: %w", w, h, ErrInvalidShape)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("buffer with %d channels: %w", channels, ErrInvalidShape)
	}
	// Division form so a corrupt header can't overflow w*h*channels.
	if w > MaxPixels/h {
		return nil, fmt.Errorf("buffer %dx%d exceeds %d pixels: %w", w, h, MaxPixels, ErrAllocation)
	}
	return &Buffer{
		width:    w,
		height:   h,
		channels: channels,
		pix:      make([]float64, w*h*channels),
	}, nil
}

// FromPlanes builds a buffer from per-channel sample planes. Every plane
// must hold exactly w*h samples.
func FromPlanes(w, h int, planes ...[]float64) (*Buffer, error) {
	b, err := New(w, h, len(planes))
	if err != nil {
		return nil, err
	}
	for c, plane := range planes {
		if len(plane) != w*h {
			return nil, fmt.Errorf("plane %d has %d samples, want %d: %w", c, len(plane), w*h, ErrInvalidShape)
		}
		copy(b.pix[c*w*h:(c+1)*w*h], plane)
	}
	return b, nil
}

// FromImage decodes any image.Image into a 3-channel buffer, mapping the
// 16-bit channel range onto [0, 1].
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := New(bounds.Dx(), bounds.Dy(), 3)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			r, g, bl, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			b.Set(x, y, 0, float64(r)/float64(0xFFFF))
			b.Set(x, y, 1, float64(g)/float64(0xFFFF))
			b.Set(x, y, 2, float64(bl)/float64(0xFFFF))
		}
	}
	return b, nil
}

func (b *Buffer) Dx() int       { return b.width }
func (b *Buffer) Dy() int       { return b.height }
func (b *Buffer) Channels() int { return b.channels }

// SameShape reports whether two buffers agree on dimensions and channel count.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.width == o.width && b.height == o.height && b.channels == o.channels
}

func (b *Buffer) Get(x, y, c int) float64 {
	return b.pix[(c*b.height+y)*b.width+x]
}

// Set writes a sample. Only the buffer's creator may call this, and only
// before the buffer is shared.
func (b *Buffer) Set(x, y, c int, v float64) {
	b.pix[(c*b.height+y)*b.width+x] = v
}

func (b *Buffer) Clone() *Buffer {
	b2 := &Buffer{width: b.width, height: b.height, channels: b.channels, pix: make([]float64, len(b.pix))}
	copy(b2.pix, b.pix)
	return b2
}

// NewFromThis allocates a zeroed buffer with the same shape.
func (b *Buffer) NewFromThis() *Buffer {
	return &Buffer{width: b.width, height: b.height, channels: b.channels, pix: make([]float64, len(b.pix))}
}

// Plane returns a copy of one channel plane, in row-major order.
func (b *Buffer) Plane(c int) []float64 {
	plane := make([]float64, b.width*b.height)
	copy(plane, b.pix[c*b.width*b.height:(c+1)*b.width*b.height])
	return plane
}

// Map applies f to every sample of every channel and returns the result as
// a new buffer.
func (b *Buffer) Map(f func(float64) float64) *Buffer {
	b2 := b.NewFromThis()
	for i, v := range b.pix {
		b2.pix[i] = f(v)
	}
	return b2
}

// MapChannel applies f to every sample of channel c, copying the other
// channels through untouched.
func (b *Buffer) MapChannel(c int, f func(float64) float64) *Buffer {
	b2 := b.Clone()
	plane := b2.pix[c*b.width*b.height : (c+1)*b.width*b.height]
	for i, v := range plane {
		plane[i] = f(v)
	}
	return b2
}

// Clamp clips every sample into [lo, hi]. Clamping an already-clamped
// buffer is the identity.
func (b *Buffer) Clamp(lo, hi float64) *Buffer {
	return b.Map(func(v float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	})
}

// IsClamped reports whether every sample already lies in [lo, hi].
func (b *Buffer) IsClamped(lo, hi float64) bool {
	for _, v := range b.pix {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}

// EqualWithin reports whether two buffers agree on shape and on every
// sample to within tol.
func (b *Buffer) EqualWithin(o *Buffer, tol float64) bool {
	if !b.SameShape(o) {
		return false
	}
	for i, v := range b.pix {
		if math.Abs(v-o.pix[i]) > tol {
			return false
		}
	}
	return true
}

// Value returns the HSV value plane, max over channels.
func (b *Buffer) Value() []float64 {
	n := b.width * b.height
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		max := b.pix[i]
		for c := 1; c < b.channels; c++ {
			if v := b.pix[c*n+i]; v > max {
				max = v
			}
		}
		out[i] = max
	}
	return out
}

// Luma returns the weighted channel combination, e.g. the (0.3, 0.6, 0.1)
// luma used throughout the pipeline. Mono buffers return the single plane.
func (b *Buffer) Luma(weights [3]float64) []float64 {
	n := b.width * b.height
	out := make([]float64, n)
	if b.channels < 3 {
		copy(out, b.pix[:n])
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = weights[0]*b.pix[i] + weights[1]*b.pix[n+i] + weights[2]*b.pix[2*n+i]
	}
	return out
}

// Convolve3x3 convolves every channel with a 3x3 kernel, row-major, with
// zero fill outside the image.
func (b *Buffer) Convolve3x3(kernel [9]float64) *Buffer {
	b2 := b.NewFromThis()
	for c := 0; c < b.channels; c++ {
		for y := 0; y < b.height; y++ {
			for x := 0; x < b.width; x++ {
				sum := 0.0
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						xx, yy := x+kx, y+ky
						if xx < 0 || xx >= b.width || yy < 0 || yy >= b.height {
							continue
						}
						sum += kernel[(ky+1)*3+(kx+1)] * b.Get(xx, yy, c)
					}
				}
				b2.Set(x, y, c, sum)
			}
		}
	}
	return b2
}

// GaussianBlur runs the small separable blur from the tone mapping
// literature: one [1 2 1]/4 pass in X then Y, with the 3/4 + 1/4 edge rule.
// Call it repeatedly for a wider kernel.
func (b *Buffer) GaussianBlur() *Buffer {
	w, h := b.width, b.height
	t := b.NewFromThis()
	b2 := b.NewFromThis()

	for c := 0; c < b.channels; c++ {
		// X blur, build up in t
		for y := 0; y < h; y++ {
			for x := 1; x < w-1; x++ {
				v := 2.0*b.Get(x, y, c) + b.Get(x-1, y, c) + b.Get(x+1, y, c)
				t.Set(x, y, c, v/4.0)
			}
			if w > 1 {
				t.Set(0, y, c, (3.0*b.Get(0, y, c)+b.Get(1, y, c))/4.0)
				t.Set(w-1, y, c, (3.0*b.Get(w-1, y, c)+b.Get(w-2, y, c))/4.0)
			} else {
				t.Set(0, y, c, b.Get(0, y, c))
			}
		}
		// Y blur, read from t
		for x := 0; x < w; x++ {
			for y := 1; y < h-1; y++ {
				v := 2.0*t.Get(x, y, c) + t.Get(x, y-1, c) + t.Get(x, y+1, c)
				b2.Set(x, y, c, v/4.0)
			}
			if h > 1 {
				b2.Set(x, 0, c, (3.0*t.Get(x, 0, c)+t.Get(x, 1, c))/4.0)
				b2.Set(x, h-1, c, (3.0*t.Get(x, h-1, c)+t.Get(x, h-2, c))/4.0)
			} else {
				b2.Set(x, 0, c, t.Get(x, 0, c))
			}
		}
	}
	return b2
}

// Implement image.Image and hdr.Image, so buffers can be handed straight to
// the tone mapping operators and the PNG/TIFF encoders.

func (b *Buffer) ColorModel() color.Model { return hdrcolor.RGBModel }
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{b.width, b.height}}
}
func (b *Buffer) At(x, y int) color.Color { return b.HDRAt(x, y) }
func (b *Buffer) Size() int               { return b.width * b.height }

func (b *Buffer) HDRAt(x, y int) hdrcolor.Color {
	if b.channels < 3 {
		v := b.Get(x, y, 0)
		return hdrcolor.RGB{R: v, G: v, B: v}
	}
	return hdrcolor.RGB{R: b.Get(x, y, 0), G: b.Get(x, y, 1), B: b.Get(x, y, 2)}
}

// ToRGBA64 renders the buffer as a 16-bit LDR image, clipping to [0, 1].
func (b *Buffer) ToRGBA64() *image.RGBA64 {
	img := image.NewRGBA64(b.Bounds())
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			r, g, bl, _ := b.HDRAt(x, y).HDRRGBA()
			img.SetRGBA64(x, y, color.RGBA64{
				R: u16(r),
				G: u16(g),
				B: u16(bl),
				A: 0xFFFF,
			})
		}
	}
	return img
}

func u16(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xFFFF
	}
	return uint16(v * float64(0xFFFF))
}
