package simd

import (
	"math"
	"testing"

	"github.com/perfkit/benchreport/internal/config"
)

var dtypeCols = []string{"kernel", "dtype", "n", "stride", "misalign", "gflops", "cpe"}

func TestBuildDtype(t *testing.T) {
	machine := config.Default()
	scalar := mkTable(dtypeCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "5", "8"},
		{"saxpy", "f32", "1000000", "1", "0", "5", "8"},
	})
	vectorized := mkTable(dtypeCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "20", "2"},
		{"saxpy", "f32", "1000000", "1", "0", "10", "4"},
	})

	rep, err := BuildDtype(scalar, vectorized, machine)
	if err != nil {
		t.Fatalf("BuildDtype: %v", err)
	}

	// Two regions plus the appended ALL row.
	if rep.Summary.Len() != 3 {
		t.Fatalf("Summary has %d rows, want 3", rep.Summary.Len())
	}

	l1 := findRow(rep.Summary, map[string]string{"region": "L1"})
	if l1 < 0 {
		t.Fatal("no L1 row; n=1024 should land in L1")
	}
	if got := rep.Summary.Float("gmean_speedup", l1); !approxEqual(got, 4, 1e-9) {
		t.Errorf("L1 speedup = %v, want 4", got)
	}

	llc := findRow(rep.Summary, map[string]string{"region": "LLC"})
	if llc < 0 {
		t.Fatal("no LLC row; n=1000000 should land in LLC")
	}
	if got := rep.Summary.Float("gmean_speedup", llc); !approxEqual(got, 2, 1e-9) {
		t.Errorf("LLC speedup = %v, want 2", got)
	}

	all := findRow(rep.Summary, map[string]string{"region": "ALL"})
	if all < 0 {
		t.Fatal("no ALL row appended")
	}
	if got := rep.Summary.Float("gmean_speedup", all); !approxEqual(got, math.Sqrt(8), 1e-9) {
		t.Errorf("ALL speedup = %v, want sqrt(8)", got)
	}
	if got := rep.Summary.Float("samples", all); got != 2 {
		t.Errorf("ALL samples = %v, want 2", got)
	}

	// Both input samples are stride=1, so the restricted view matches
	// the per-region rows.
	if rep.StrideOne.Len() != 2 {
		t.Errorf("StrideOne has %d rows, want 2", rep.StrideOne.Len())
	}
}

func TestBuildDtypeZeroScalarBaseline(t *testing.T) {
	machine := config.Default()
	scalar := mkTable(dtypeCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "0", "8"},
	})
	vectorized := mkTable(dtypeCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "20", "2"},
	})

	rep, err := BuildDtype(scalar, vectorized, machine)
	if err != nil {
		t.Fatalf("BuildDtype: %v", err)
	}
	l1 := findRow(rep.Summary, map[string]string{"region": "L1"})
	if l1 < 0 {
		t.Fatal("no L1 row")
	}
	if got := rep.Summary.Float("gmean_speedup", l1); !math.IsNaN(got) {
		t.Errorf("zero scalar baseline must yield an undefined speedup, got %v", got)
	}
	// The absolute throughput means survive regardless.
	if got := rep.Summary.Float("gmean_gflops_simd", l1); !approxEqual(got, 20, 1e-9) {
		t.Errorf("gmean_gflops_simd = %v, want 20", got)
	}
}
