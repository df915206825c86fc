package eclip

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"github.com/ymniquet/equimage/pkg/ecolor"
	"github.com/ymniquet/equimage/pkg/epix"
)

// Overlay renders the clip survey for the named plane over a desaturated
// copy of the image: shadow-clipped pixels in blue, highlight-clipped in
// red, everything else gamma-scaled gray. A summary line is drawn in the
// top left corner.
func Overlay(b *epix.Buffer, rep *Report, plane string) (image.Image, error) {
	ch := rep.Channel(plane)
	if ch == nil {
		return nil, fmt.Errorf("no clip report for plane %q: %w", plane, epix.ErrInvalidParameters)
	}
	if rep.Width != b.Dx() || rep.Height != b.Dy() {
		return nil, fmt.Errorf("clip report %dx%d on buffer %dx%d: %w",
			rep.Width, rep.Height, b.Dx(), b.Dy(), epix.ErrShapeMismatch)
	}

	luma := b.Luma(ecolor.RGBLuma())
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := luma[y*b.Dx()+x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			gray := uint8(ecolor.GammaExpand(v) * 255)
			img.Set(x, y, color.RGBA{gray, gray, gray, 0xff})
		}
	}
	for _, pt := range ch.Shadowed {
		img.Set(pt.X, pt.Y, color.RGBA{0x20, 0x40, 0xff, 0xff})
	}
	for _, pt := range ch.Highlighted {
		img.Set(pt.X, pt.Y, color.RGBA{0xff, 0x30, 0x20, 0xff})
	}

	title := fmt.Sprintf("%s: %d shadowed, %d highlighted (thresholds %.4f / %.4f)",
		ch.Name, len(ch.Shadowed), len(ch.Highlighted),
		rep.Thresholds.Shadow, rep.Thresholds.Highlight)

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 50, 50)
	return dc.Image(), nil
}

// Preview scales an overlay (or any render) down so its longest side is at
// most maxDim. Lanczos keeps the isolated clipped pixels visible.
func Preview(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return resize.Resize(uint(maxDim), 0, img, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxDim), img, resize.Lanczos3)
}
