package simd

import (
	"errors"
	"testing"

	"github.com/perfkit/benchreport/internal/config"
	"github.com/perfkit/benchreport/internal/table"
)

var speedupCols = []string{
	"kernel", "dtype", "n", "stride", "misalign",
	"gflops", "time_ns_med", "time_ns_p05", "time_ns_p95",
}

func TestBuildSpeedup(t *testing.T) {
	scalar := mkTable(speedupCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "5", "100", "90", "110"},
		// Non-baseline configurations are dropped.
		{"saxpy", "f32", "1024", "2", "0", "4", "120", "110", "130"},
	})
	vectorized := mkTable(speedupCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "20", "25", "20", "30"},
	})

	rep, err := BuildSpeedup(scalar, vectorized, config.Default())
	if err != nil {
		t.Fatalf("BuildSpeedup: %v", err)
	}
	if rep.Merged.Len() != 1 {
		t.Fatalf("Merged has %d rows, want 1", rep.Merged.Len())
	}
	if got := rep.Merged.Float("speedup", 0); !approxEqual(got, 4, 1e-9) {
		t.Errorf("speedup = %v, want 100/25", got)
	}

	c := rep.speedupCurve("saxpy", "f32")
	if len(c.med) != 1 {
		t.Fatalf("curve has %d points, want 1", len(c.med))
	}
	// Worst case pairs the slow scalar tail with the fast vector tail:
	// 90/30 = 3. Best case: 110/20 = 5.5. Stored as offsets from the
	// median of 4.
	if !approxEqual(c.low[0], 1, 1e-9) {
		t.Errorf("low bound offset = %v, want 1", c.low[0])
	}
	if !approxEqual(c.high[0], 1.5, 1e-9) {
		t.Errorf("high bound offset = %v, want 1.5", c.high[0])
	}
}

func TestBuildSpeedupMissingPercentiles(t *testing.T) {
	scalar := mkTable(speedupCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "5", "100", "NaN", "NaN"},
	})
	vectorized := mkTable(speedupCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "20", "25", "NaN", "NaN"},
	})

	rep, err := BuildSpeedup(scalar, vectorized, config.Default())
	if err != nil {
		t.Fatalf("BuildSpeedup: %v", err)
	}
	c := rep.speedupCurve("saxpy", "f32")
	if len(c.med) != 1 {
		t.Fatalf("curve has %d points, want 1", len(c.med))
	}
	// Missing percentiles collapse both bounds onto the median.
	if c.low[0] != 0 || c.high[0] != 0 {
		t.Errorf("bound offsets = (%v, %v), want (0, 0)", c.low[0], c.high[0])
	}
}

func TestBuildSpeedupRequiresTimingColumns(t *testing.T) {
	scalar := mkTable(dtypeCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "5", "8"},
	})
	vectorized := mkTable(speedupCols, [][]string{
		{"saxpy", "f32", "1024", "1", "0", "20", "25", "20", "30"},
	})

	if _, err := BuildSpeedup(scalar, vectorized, config.Default()); !errors.Is(err, table.ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn without timing percentiles, got %v", err)
	}
}
