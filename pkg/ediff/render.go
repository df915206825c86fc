package ediff

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/ymniquet/equimage/pkg/epix"
)

// Render draws a comparison buffer with its metric stamped in the corner,
// ready for saving next to the main output.
func Render(diff *epix.Buffer, a, b *epix.Buffer, opt Options) (image.Image, error) {
	metric, err := Metric(a, b)
	if err != nil {
		return nil, err
	}

	mode := opt.Mode
	if mode == "" {
		mode = ModeDifference
	}
	title := fmt.Sprintf("%s view; mean luma delta %.6f", mode, metric)

	dc := gg.NewContextForImage(diff.Clamp(0, 1))
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 50, 50)
	return dc.Image(), nil
}
