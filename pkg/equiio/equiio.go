// Package equiio decodes telescope captures into pixel buffers and writes
// edited results back out. PNG and 16-bit TIFF are the formats the
// telescopes and the downstream tools actually use.
package equiio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/tiff"

	"github.com/ymniquet/equimage/pkg/epix"
)

// Metadata is the capture info we bother extracting from EXIF. Absent or
// unparseable EXIF is not an error; edits do not depend on it.
type Metadata struct {
	ISO          int64
	ExposureTime string
	CameraModel  string
}

// Load decodes an image file into a buffer. The format is picked by
// extension: .png, .tif/.tiff.
func Load(filename string) (*epix.Buffer, Metadata, error) {
	meta := loadMetadata(filename)

	reader, err := os.Open(filename)
	if err != nil {
		return nil, meta, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(reader)
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	default:
		return nil, meta, fmt.Errorf("no decoder for '%s'", filename)
	}
	if err != nil {
		return nil, meta, fmt.Errorf("decode '%s': %v", filename, err)
	}

	b, err := epix.FromImage(img)
	if err != nil {
		return nil, meta, fmt.Errorf("import '%s': %w", filename, err)
	}

	log.WithFields(log.Fields{"file": filename, "dx": b.Dx(), "dy": b.Dy(), "iso": meta.ISO}).
		Info("image loaded")
	return b, meta, nil
}

// loadMetadata pulls what EXIF it can. PNGs and stripped TIFFs simply have
// none.
func loadMetadata(filename string) Metadata {
	meta := Metadata{}

	reader, err := os.Open(filename)
	if err != nil {
		return meta
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return meta
	}

	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		if val, err := tag.Int64(0); err == nil {
			meta.ISO = val
		}
	}
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil {
			meta.ExposureTime = fmt.Sprintf("%d/%d", num, denom)
		}
	}
	if tag, err := ex.Get(exif.Model); err == nil {
		if val, err := tag.StringVal(); err == nil {
			meta.CameraModel = val
		}
	}
	return meta
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// WriteTIFF16 writes a buffer as uncompressed 16-bit TIFF, the lossless
// interchange format for further processing elsewhere.
func WriteTIFF16(b *epix.Buffer, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return tiff.Encode(writer, b.ToRGBA64(), &tiff.Options{Compression: tiff.Uncompressed})
	}
}

// WriteBuffer picks the writer by extension, clamping to the displayable
// range first.
func WriteBuffer(b *epix.Buffer, filename string) error {
	out := b.Clamp(0, 1)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return WritePNG(out.ToRGBA64(), filename)
	case ".tif", ".tiff":
		return WriteTIFF16(out, filename)
	}
	return fmt.Errorf("no encoder for '%s'", filename)
}
