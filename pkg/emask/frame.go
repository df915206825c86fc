package emask

import (
	"fmt"

	"github.com/ymniquet/equimage/pkg/epix"
)

// A FrameGeometry describes the fixed circular frame some consumer
// telescopes burn into every shot: the usable image is the disc, the ring
// outside it is hardware decoration that edits must not touch.
type FrameGeometry struct {
	Type      string
	Width     int
	Height    int
	Radius    float64
	Threshold float64 // min value for a pixel to count as frame artwork
}

// The telescopes we know about. Frame detection is presently based on the
// size of the image.
var FrameGeometries = []FrameGeometry{
	{Type: "eQuinox 1", Width: 2240, Height: 2240, Radius: 997, Threshold: 24.0 / 255.0},
	{Type: "eQuinox 1 (Planets)", Width: 1120, Height: 1120, Radius: 498.5, Threshold: 24.0 / 255.0},
}

// DetectFrame matches a buffer against the known telescope geometries.
// Returns nil if the image has no recognized frame.
func DetectFrame(b *epix.Buffer) *FrameGeometry {
	for _, g := range FrameGeometries {
		if b.Dx() == g.Width && b.Dy() == g.Height {
			geom := g
			return &geom
		}
	}
	return nil
}

// Mask returns the inclusion mask for the geometry: weight 1 inside the
// disc, 0 on the frame ring, feathered over the given number of pixels.
func (g FrameGeometry) Mask(feather float64) (*Mask, error) {
	return NewCircle(g.Width, g.Height, float64(g.Width)/2, float64(g.Height)/2, g.Radius, feather)
}

// Extract copies the frame artwork out of a buffer: pixels outside the disc
// whose value exceeds the threshold, everything else black. The result can
// be re-composited over an edited image with Restore.
func (g FrameGeometry) Extract(b *epix.Buffer) (*epix.Buffer, error) {
	if b.Dx() != g.Width || b.Dy() != g.Height {
		return nil, fmt.Errorf("frame %s on buffer %dx%d: %w", g.Type, b.Dx(), b.Dy(), epix.ErrShapeMismatch)
	}
	disc, err := g.Mask(0)
	if err != nil {
		return nil, err
	}
	value := b.Value()
	frame := b.NewFromThis()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if disc.Weight(x, y) > 0 || value[y*b.Dx()+x] < g.Threshold {
				continue
			}
			for c := 0; c < b.Channels(); c++ {
				frame.Set(x, y, c, b.Get(x, y, c))
			}
		}
	}
	return frame, nil
}

// Restore composites extracted frame artwork back over an image: wherever
// the frame has any value, the frame pixel wins.
func (g FrameGeometry) Restore(b, frame *epix.Buffer) (*epix.Buffer, error) {
	if !b.SameShape(frame) {
		return nil, fmt.Errorf("restore frame onto %dx%d: %w", b.Dx(), b.Dy(), epix.ErrShapeMismatch)
	}
	value := frame.Value()
	out := b.Clone()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if value[y*b.Dx()+x] <= 0 {
				continue
			}
			for c := 0; c < b.Channels(); c++ {
				out.Set(x, y, c, frame.Get(x, y, c))
			}
		}
	}
	return out, nil
}
