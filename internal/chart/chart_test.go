package chart

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/plotter"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("chart %s is empty", path)
	}
}

func TestBarRendersMissingAsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.png")
	err := Bar("title", "y", []string{"a", "b", "c"},
		[]float64{1.5, math.NaN(), -0.5}, path)
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	assertPNG(t, path)
}

func TestGroupedBarWithErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grouped.png")
	err := GroupedBar("title", "x", "y", []string{"g1", "g2"}, []BarSeries{
		{Label: "s1", Values: []float64{1, 2}, Errs: []float64{0.1, 0.2}},
		{Label: "s2", Values: []float64{3, math.NaN()}},
	}, path)
	if err != nil {
		t.Fatalf("GroupedBar: %v", err)
	}
	assertPNG(t, path)
}

func TestErrorLineLogAxes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.png")
	s := LineSeries{
		Label:   "sweep",
		X:       []float64{64, 1024, 65536, math.NaN()},
		Y:       []float64{10, 20, 40, 99},
		ErrLow:  []float64{1, math.NaN(), 2, 0},
		ErrHigh: []float64{1, 1, 2, 0},
	}
	err := ErrorLine("title", "x", "y", []LineSeries{s},
		LineOpts{LogX: true, Rules: []Rule{{X: 4096, Label: "L1"}}}, path)
	if err != nil {
		t.Fatalf("ErrorLine: %v", err)
	}
	assertPNG(t, path)
}

func TestCleanSeries(t *testing.T) {
	s := LineSeries{
		X:       []float64{1, math.NaN(), 3},
		Y:       []float64{10, 20, math.NaN()},
		ErrLow:  []float64{1, 2, 3},
		ErrHigh: []float64{1, math.NaN(), 3},
	}
	pts, low, high := cleanSeries(s)
	if len(pts) != 1 {
		t.Fatalf("kept %d points, want 1", len(pts))
	}
	if pts[0] != (plotter.XY{X: 1, Y: 10}) {
		t.Errorf("kept point = %+v", pts[0])
	}
	if len(low) != 1 || len(high) != 1 {
		t.Fatalf("error magnitudes not realigned: low=%v high=%v", low, high)
	}
}

func TestCleanSeriesWithoutErrors(t *testing.T) {
	s := LineSeries{X: []float64{1, 2}, Y: []float64{10, 20}}
	pts, low, high := cleanSeries(s)
	if len(pts) != 2 || low != nil || high != nil {
		t.Errorf("plain series mishandled: pts=%d low=%v high=%v", len(pts), low, high)
	}
}

func TestCompactNumber(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{1024, "1K"},
		{65536, "64K"},
		{1048576, "1M"},
		{100, "100"},
		{1.5, "1.5"},
	}
	for _, tc := range tests {
		if got := compactNumber(tc.v); got != tc.want {
			t.Errorf("compactNumber(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}
