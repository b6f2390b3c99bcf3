package table

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGeoMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"two samples", []float64{2, 8}, 4},
		{"all ones", []float64{1, 1, 1}, 1},
		{"negative excluded", []float64{2, 8, -1}, 4},
		{"zero excluded", []float64{2, 8, 0}, 4},
		{"missing excluded", []float64{2, math.NaN(), 8}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeoMean(tt.samples)
			if !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("GeoMean(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}

	if got := GeoMean(nil); !math.IsNaN(got) {
		t.Errorf("GeoMean of no samples must be undefined, got %v", got)
	}
	if got := GeoMean([]float64{-1, 0}); !math.IsNaN(got) {
		t.Errorf("GeoMean with no positive samples must be undefined, got %v", got)
	}
}

func TestGeoMeanDelta(t *testing.T) {
	if got := GeoMeanDelta([]float64{0, 0}); !almostEqual(got, 0, 1e-12) {
		t.Errorf("no change must aggregate to zero, got %v", got)
	}

	// exp(mean(ln(2), ln(0.5))) - 1 = 0
	if got := GeoMeanDelta([]float64{1, -0.5}); !almostEqual(got, 0, 1e-12) {
		t.Errorf("+100%% and -50%% must cancel geometrically, got %v", got)
	}

	// A change of -100% or worse makes the log undefined for the group.
	if got := GeoMeanDelta([]float64{0.5, -1}); !math.IsNaN(got) {
		t.Errorf("change <= -100%% must yield an undefined result, got %v", got)
	}

	// Missing samples are dropped, negatives are legitimate.
	if got := GeoMeanDelta([]float64{math.NaN(), -0.1}); !almostEqual(got, -0.1, 1e-9) {
		t.Errorf("expected -0.1, got %v", got)
	}

	if got := GeoMeanDelta(nil); !math.IsNaN(got) {
		t.Errorf("no samples must be undefined, got %v", got)
	}
}

func TestMeanStdDevCountSum(t *testing.T) {
	samples := []float64{1, 2, math.NaN(), 3}

	if got := Mean(samples); !almostEqual(got, 2, 1e-12) {
		t.Errorf("Mean = %v, want 2", got)
	}
	if got := Count(samples); got != 3 {
		t.Errorf("Count = %v, want 3", got)
	}
	if got := Sum(samples); !almostEqual(got, 6, 1e-12) {
		t.Errorf("Sum = %v, want 6", got)
	}
	if got := StdDev(samples); !almostEqual(got, 1, 1e-12) {
		t.Errorf("StdDev = %v, want 1", got)
	}
	if got := StdDev([]float64{5}); !math.IsNaN(got) {
		t.Errorf("StdDev of one sample must be undefined, got %v", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean of no samples must be undefined, got %v", got)
	}
}

func TestPercentile(t *testing.T) {
	samples := []float64{10, 20, 30, 40, math.NaN()}
	p50 := Percentile(50)(samples)
	if math.IsNaN(p50) || p50 < 20 || p50 > 30 {
		t.Errorf("median of 10..40 should land between 20 and 30, got %v", p50)
	}
	if got := Percentile(95)(nil); !math.IsNaN(got) {
		t.Errorf("percentile of no samples must be undefined, got %v", got)
	}
}

func TestAggregate(t *testing.T) {
	tbl := New("kernel", "dtype", "gflops")
	for _, row := range [][]string{
		{"saxpy", "f32", "2"},
		{"saxpy", "f32", "8"},
		{"dot", "f32", "5"},
		{"saxpy", "f64", "NaN"},
	} {
		tbl.AppendRow(row)
	}

	out := tbl.Aggregate([]string{"kernel", "dtype"}, []Agg{
		{Out: "geo", Src: "gflops", Fn: GeoMean},
		{Out: "samples", Src: "gflops", Fn: Count},
	})

	if out.Len() != 3 {
		t.Fatalf("expected 3 groups, got %d", out.Len())
	}
	// Output sorted ascending by the full key tuple.
	if out.String("kernel", 0) != "dot" {
		t.Errorf("expected dot first, got %q", out.String("kernel", 0))
	}
	if got := out.Float("geo", 1); !almostEqual(got, 4, 1e-9) {
		t.Errorf("saxpy/f32 geomean = %v, want 4", got)
	}
	if got := out.Float("samples", 2); got != 0 {
		t.Errorf("all-missing group must count 0 samples, got %v", got)
	}
	if got := out.Float("geo", 2); !math.IsNaN(got) {
		t.Errorf("all-missing group must aggregate to NaN, got %v", got)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	tbl := New("kernel", "gflops")
	out := tbl.Aggregate([]string{"kernel"}, []Agg{{Out: "geo", Src: "gflops", Fn: GeoMean}})
	if out.Len() != 0 {
		t.Fatalf("empty input must yield an empty result, got %d rows", out.Len())
	}
	if !out.Has("kernel") || !out.Has("geo") {
		t.Errorf("empty result must keep its structure, columns: %v", out.Columns())
	}
}
