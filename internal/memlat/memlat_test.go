package memlat

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeFixture drops a CSV into a temp dir and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGradientQuadratic(t *testing.T) {
	// The second-order stencil is exact on quadratics, uniform grid or
	// not.
	x := []float64{0, 1, 3, 6}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = v * v
	}

	got := gradient(y, x)
	want := []float64{0, 2, 6, 12}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("gradient[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGradientLinear(t *testing.T) {
	x := []float64{1, 2, 4}
	y := []float64{3, 5, 9}
	got := gradient(y, x)
	for i, v := range got {
		if math.Abs(v-2) > 1e-9 {
			t.Errorf("gradient[%d] = %v, want 2", i, v)
		}
	}
}

func TestFormatNs(t *testing.T) {
	if got := formatNs(math.NaN()); got != "NaN" {
		t.Errorf("formatNs(NaN) = %q", got)
	}
	if got := formatNs(1.5); got != "1.5" {
		t.Errorf("formatNs(1.5) = %q", got)
	}
}
