package simd

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/perfkit/benchreport/internal/table"
)

func approxEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}

func mkTable(cols []string, rows [][]string) *table.Table {
	t := table.New(cols...)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

// findRow returns the first row whose cells match all the given
// column/value pairs, or -1.
func findRow(t *table.Table, want map[string]string) int {
	for row := 0; row < t.Len(); row++ {
		ok := true
		for col, v := range want {
			if t.String(col, row) != v {
				ok = false
				break
			}
		}
		if ok {
			return row
		}
	}
	return -1
}

func TestLoadNormalizesSynonyms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simd.csv")
	csv := "kernel,dtype,n,stride,misalign,Gflops,cycles_per_element,GiBps\n" +
		"saxpy,f32,1024,1,0,12.5,1.9,37.5\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, col := range []string{"gflops", "cpe", "gibps"} {
		if !tbl.Has(col) {
			t.Errorf("canonical column %q missing after load, have %v", col, tbl.Columns())
		}
	}
	if got := tbl.Float("gflops", 0); got != 12.5 {
		t.Errorf("gflops = %v, want 12.5", got)
	}
	if got := tbl.Float("cpe", 0); got != 1.9 {
		t.Errorf("cpe = %v, want 1.9", got)
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simd.csv")
	csv := "kernel,dtype,n,stride,gflops,cpe\nsaxpy,f32,1024,1,12.5,1.9\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, table.ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn for table without misalign, got %v", err)
	}
}

func TestFilterVerified(t *testing.T) {
	t.Run("keeps only verified rows", func(t *testing.T) {
		tbl := mkTable([]string{"kernel", "verified"}, [][]string{
			{"saxpy", "1"},
			{"saxpy", "0"},
			{"dot", "1"},
		})
		got := FilterVerified(tbl)
		if got.Len() != 2 {
			t.Errorf("kept %d rows, want 2", got.Len())
		}
	})

	t.Run("table without verified column passes through", func(t *testing.T) {
		tbl := mkTable([]string{"kernel"}, [][]string{{"saxpy"}, {"dot"}})
		got := FilterVerified(tbl)
		if got.Len() != 2 {
			t.Errorf("kept %d rows, want all 2", got.Len())
		}
	})
}

func TestArithmeticIntensity(t *testing.T) {
	tests := []struct {
		kernel, dtype string
		want          float64
	}{
		{"saxpy", "f32", 2.0 / 12.0},
		{"dot", "f32", 2.0 / 8.0},
		{"dot", "f64", 2.0 / 16.0},
		{"stencil", "f64", 3.0 / 16.0},
		{"unknown", "f32", 2.0 / 12.0},
	}
	for _, tc := range tests {
		if got := ArithmeticIntensity(tc.kernel, tc.dtype); !approxEqual(got, tc.want, 1e-12) {
			t.Errorf("ArithmeticIntensity(%s, %s) = %v, want %v", tc.kernel, tc.dtype, got, tc.want)
		}
	}
}
