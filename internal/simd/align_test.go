package simd

import (
	"math"
	"testing"
)

var simdCols = []string{"kernel", "dtype", "n", "stride", "misalign", "gflops", "cpe", "gibps"}

func TestBuildAlign(t *testing.T) {
	tbl := mkTable(simdCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "10", "4", "30"},
		{"saxpy", "f32", "2048", "1", "0", "10", "4", "30"},
		{"saxpy", "f32", "1024", "1", "1", "9", "4.4", "27"},
		{"saxpy", "f32", "2048", "1", "1", "9", "4.4", "27"},
	})

	rep, err := BuildAlign(tbl)
	if err != nil {
		t.Fatalf("BuildAlign: %v", err)
	}
	if rep.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", rep.Dropped)
	}
	if rep.Summary.Len() != 2 {
		t.Fatalf("Summary has %d rows, want group + ALL", rep.Summary.Len())
	}

	if got := rep.Summary.Float("gflops_delta_pct", 0); !approxEqual(got, -10, 1e-9) {
		t.Errorf("gflops delta = %v, want -10", got)
	}
	if got := rep.Summary.Float("cpe_delta_pct", 0); !approxEqual(got, 10, 1e-9) {
		t.Errorf("cpe delta = %v, want +10", got)
	}
	if got := rep.Summary.Float("samples", 0); got != 2 {
		t.Errorf("samples = %v, want 2", got)
	}

	last := rep.Summary.Len() - 1
	if got := rep.Summary.String("kernel", last); got != "ALL" {
		t.Errorf("trailing row kernel = %q, want ALL", got)
	}
	if got := rep.Summary.Float("gflops_delta_pct", last); !approxEqual(got, -10, 1e-9) {
		t.Errorf("overall gflops delta = %v, want -10", got)
	}
}

func TestBuildAlignUnmatchedSamples(t *testing.T) {
	tbl := mkTable(simdCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "10", "4", "30"},
		{"saxpy", "f32", "1024", "1", "1", "9", "4.4", "27"},
		{"saxpy", "f32", "4096", "1", "0", "10", "4", "30"},
	})

	rep, err := BuildAlign(tbl)
	if err != nil {
		t.Fatalf("BuildAlign: %v", err)
	}
	if rep.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", rep.Dropped)
	}
}

func TestBuildAlignZeroBaseline(t *testing.T) {
	tbl := mkTable(simdCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "0", "4", "30"},
		{"saxpy", "f32", "1024", "1", "1", "9", "4.4", "27"},
	})

	rep, err := BuildAlign(tbl)
	if err != nil {
		t.Fatalf("BuildAlign: %v", err)
	}
	if got := rep.Summary.Float("gflops_delta_pct", 0); !math.IsNaN(got) {
		t.Errorf("zero aligned baseline must yield an undefined delta, got %v", got)
	}
	// The other metrics still pair up normally.
	if got := rep.Summary.Float("cpe_delta_pct", 0); !approxEqual(got, 10, 1e-9) {
		t.Errorf("cpe delta = %v, want +10", got)
	}
}
