package epix

import (
	"testing"
)

func TestPlaneStatsCountsClippedPixels(t *testing.T) {
	plane := []float64{0, 0, 0.25, 0.5, 0.75, 1.1}
	cs := planeStats("R", plane)

	if cs.ZeroCount != 2 {
		t.Errorf("ZeroCount = %d, want 2", cs.ZeroCount)
	}
	if cs.OutCount != 1 {
		t.Errorf("OutCount = %d, want 1", cs.OutCount)
	}
	if !almost(cs.Min, 0) || !almost(cs.Max, 1.1) {
		t.Errorf("range [%f, %f], want [0, 1.1]", cs.Min, cs.Max)
	}
	// The percentiles only see {0.25, 0.5, 0.75}.
	if !almost(cs.Median, 0.5) {
		t.Errorf("median %f, want 0.5", cs.Median)
	}
}

func TestStatisticsCoversDerivedPlanes(t *testing.T) {
	b, _ := New(2, 2, 3)
	for i := 0; i < 4; i++ {
		b.Set(i%2, i/2, 0, 0.2)
		b.Set(i%2, i/2, 1, 0.8)
		b.Set(i%2, i/2, 2, 0.4)
	}

	stats := Statistics(b, [3]float64{0.3, 0.6, 0.1})
	for _, name := range []string{"R", "G", "B", "V", "L"} {
		if _, ok := stats[name]; !ok {
			t.Errorf("no stats for plane %s", name)
		}
	}
	if !almost(stats["V"].Max, 0.8) {
		t.Errorf("V max %f, want 0.8", stats["V"].Max)
	}
	want := 0.3*0.2 + 0.6*0.8 + 0.1*0.4
	if !almost(stats["L"].Median, want) {
		t.Errorf("L median %f, want %f", stats["L"].Median, want)
	}
}

func TestPercentile(t *testing.T) {
	plane := []float64{0.9, 0.1, 0.5, 0.3, 0.7}
	if p := Percentile(plane, 0.5); !almost(p, 0.5) {
		t.Errorf("p50 = %f, want 0.5", p)
	}
	if p := Percentile(plane, 1.0); !almost(p, 0.9) {
		t.Errorf("p100 = %f, want 0.9", p)
	}
}

func TestHistogramsBucketCount(t *testing.T) {
	b, _ := New(4, 4, 3)
	hists := Histograms(b)
	if len(hists) != 3 {
		t.Fatalf("got %d histograms, want 3", len(hists))
	}
}
