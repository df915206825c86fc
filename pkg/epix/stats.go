package epix

import (
	"fmt"
	"sort"

	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats summarizes one channel of a buffer. ZeroCount and OutCount
// are the pixels at/below black and above saturation, the numbers the GUI
// shows alongside the clipped-pixel highlights.
type ChannelStats struct {
	Name      string
	Min       float64
	Max       float64
	P25       float64
	Median    float64
	P75       float64
	ZeroCount int
	OutCount  int
}

func (cs ChannelStats) String() string {
	return fmt.Sprintf("%s[%.5f,%.5f] median=%.5f zero=%d oor=%d",
		cs.Name, cs.Min, cs.Max, cs.Median, cs.ZeroCount, cs.OutCount)
}

// Statistics computes per-channel stats for the R, G, B planes plus the
// derived V (value) and L (luma) planes. Percentiles exclude fully black
// and fully saturated pixels, like the histograms the stretch tools use.
func Statistics(b *Buffer, lumaWeights [3]float64) map[string]ChannelStats {
	planes := map[string][]float64{}
	names := []string{}
	channelNames := []string{"R", "G", "B", "A"}
	for c := 0; c < b.Channels(); c++ {
		planes[channelNames[c]] = b.Plane(c)
		names = append(names, channelNames[c])
	}
	planes["V"] = b.Value()
	planes["L"] = b.Luma(lumaWeights)
	names = append(names, "V", "L")

	out := map[string]ChannelStats{}
	for _, name := range names {
		out[name] = planeStats(name, planes[name])
	}
	return out
}

func planeStats(name string, plane []float64) ChannelStats {
	cs := ChannelStats{Name: name, Min: plane[0], Max: plane[0]}

	inRange := []float64{}
	for _, v := range plane {
		if v < cs.Min {
			cs.Min = v
		}
		if v > cs.Max {
			cs.Max = v
		}
		if v < Tol {
			cs.ZeroCount++
		} else if v > 1.0+Tol {
			cs.OutCount++
		}
		if v >= Tol && v <= 1.0-Tol {
			inRange = append(inRange, v)
		}
	}

	if len(inRange) > 0 {
		sort.Float64s(inRange)
		cs.P25 = stat.Quantile(0.25, stat.Empirical, inRange, nil)
		cs.Median = stat.Quantile(0.5, stat.Empirical, inRange, nil)
		cs.P75 = stat.Quantile(0.75, stat.Empirical, inRange, nil)
	}
	return cs
}

// Percentile returns the p'th percentile (p in [0,1]) of a channel plane,
// with no exclusions. Used by the auto black point stretch.
func Percentile(plane []float64, p float64) float64 {
	sorted := make([]float64, len(plane))
	copy(sorted, plane)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Histograms builds a 256-bucket histogram per channel plane, for the
// level displays.
func Histograms(b *Buffer) []histogram.Histogram {
	hists := make([]histogram.Histogram, b.Channels())
	for c := range hists {
		hists[c] = histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}
	}
	n := b.Dx() * b.Dy()
	for c := 0; c < b.Channels(); c++ {
		plane := b.Plane(c)
		for i := 0; i < n; i++ {
			v := plane[i]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			hists[c].Add(histogram.ScalarVal(int(v * 255.0)))
		}
	}
	return hists
}
