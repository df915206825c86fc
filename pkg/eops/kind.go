// Package eops implements the edit operations: pure, deterministic
// functions from one pixel buffer to a new one, tagged with their
// parameters so an edit history can be logged and replayed.
package eops

// Kind is the closed set of operation kinds. The apply dispatch switches
// over every kind, so adding one here without wiring it up is a compile-away
// bug the tests catch immediately.
type Kind int

const (
	KindStretch Kind = iota
	KindAutoStretch
	KindClipShadowsHighlights
	KindColorBalance
	KindSaturation
	KindHueRotate
	KindGrayscale
	KindNegative
	KindSharpen
	KindUnsharpMask
	KindHotPixels
	KindNoise
	KindTonemap
)

var kindNames = map[Kind]string{
	KindStretch:               "stretch",
	KindAutoStretch:           "autostretch",
	KindClipShadowsHighlights: "cliphist",
	KindColorBalance:          "colorbalance",
	KindSaturation:            "saturation",
	KindHueRotate:             "huerotate",
	KindGrayscale:             "grayscale",
	KindNegative:              "negative",
	KindSharpen:               "sharpen",
	KindUnsharpMask:           "unsharp",
	KindHotPixels:             "hotpixels",
	KindNoise:                 "noise",
	KindTonemap:               "tonemap",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// KindByName resolves the string keys used in session files and logs.
func KindByName(name string) (Kind, bool) {
	for k, s := range kindNames {
		if s == name {
			return k, true
		}
	}
	return 0, false
}
