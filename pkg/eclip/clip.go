// Package eclip finds shadow- and highlight-clipped pixels, so a stretch
// can be judged before it destroys data: anything the detector flags is
// sitting at (or past) the edge of the representable range.
package eclip

import (
	"fmt"
	"image"

	"github.com/ymniquet/equimage/pkg/epix"
)

// Thresholds bound the clip test: samples <= Shadow count as shadow
// clipped, samples >= Highlight as highlight clipped.
type Thresholds struct {
	Shadow    float64
	Highlight float64
}

// DefaultThresholds flags only true zeros and full-scale samples, modulo
// float tolerance.
var DefaultThresholds = Thresholds{Shadow: epix.Tol, Highlight: 1 - epix.Tol}

func (t Thresholds) validate() error {
	if t.Highlight <= t.Shadow {
		return fmt.Errorf("clip thresholds [%f, %f]: %w", t.Shadow, t.Highlight, epix.ErrInvalidParameters)
	}
	return nil
}

// A ChannelReport lists the clipped coordinates of one plane.
type ChannelReport struct {
	Name        string
	Shadowed    []image.Point
	Highlighted []image.Point
}

// ShadowFraction is the fraction of plane pixels at or below the shadow
// threshold.
func (c ChannelReport) ShadowFraction(w, h int) float64 {
	return float64(len(c.Shadowed)) / float64(w*h)
}

func (c ChannelReport) HighlightFraction(w, h int) float64 {
	return float64(len(c.Highlighted)) / float64(w*h)
}

// A Report is the full clip survey of a buffer: one entry per color
// channel, plus the derived value and luma planes.
type Report struct {
	Width      int
	Height     int
	Thresholds Thresholds
	Channels   []ChannelReport
}

// Detect surveys a buffer for clipped pixels. One pass per plane, linear
// in the pixel count.
func Detect(b *epix.Buffer, th Thresholds, lumaWeights [3]float64) (*Report, error) {
	if err := th.validate(); err != nil {
		return nil, err
	}

	rep := &Report{Width: b.Dx(), Height: b.Dy(), Thresholds: th}

	names := []string{"R", "G", "B", "A"}
	for c := 0; c < b.Channels(); c++ {
		rep.Channels = append(rep.Channels, planeReport(names[c], b.Plane(c), b.Dx(), th))
	}
	if b.Channels() >= 3 {
		rep.Channels = append(rep.Channels,
			planeReport("V", b.Value(), b.Dx(), th),
			planeReport("L", b.Luma(lumaWeights), b.Dx(), th))
	}
	return rep, nil
}

func planeReport(name string, plane []float64, w int, th Thresholds) ChannelReport {
	out := ChannelReport{Name: name}
	for i, v := range plane {
		pt := image.Point{X: i % w, Y: i / w}
		if v <= th.Shadow {
			out.Shadowed = append(out.Shadowed, pt)
		} else if v >= th.Highlight {
			out.Highlighted = append(out.Highlighted, pt)
		}
	}
	return out
}

// Channel returns the report for the named plane, or nil.
func (r *Report) Channel(name string) *ChannelReport {
	for i := range r.Channels {
		if r.Channels[i].Name == name {
			return &r.Channels[i]
		}
	}
	return nil
}

// Summary is a one-line-per-plane digest for logs.
func (r *Report) Summary() string {
	out := ""
	for _, c := range r.Channels {
		out += fmt.Sprintf("%s: %d shadowed (%.2f%%), %d highlighted (%.2f%%)\n",
			c.Name, len(c.Shadowed), 100*c.ShadowFraction(r.Width, r.Height),
			len(c.Highlighted), 100*c.HighlightFraction(r.Width, r.Height))
	}
	return out
}
