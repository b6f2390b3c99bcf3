// Package memlat generates the cache and memory-hierarchy reports:
// zero-queue latency baselines, pattern/stride sweeps, read/write mix
// sweeps, loaded-latency curves with knee detection, working-set size
// sweeps, cache-miss impact, and TLB behavior. Inputs are the per-section
// CSVs produced by the measurement harness, plus raw Intel MLC output for
// the loaded-latency section.
package memlat

import (
	"fmt"
	"math"
	"strconv"

	"github.com/perfkit/benchreport/internal/table"
)

// formatNs renders a float cell for hand-built pivot tables, keeping
// missing values as the NaN sentinel.
func formatNs(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// load reads one section CSV and coerces its numeric columns, failing
// with the file name when a required column is missing.
func load(path string, required []string, numeric []string) (*table.Table, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(required...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Coerce(numeric...)
	return t, nil
}

// gradient computes dy/dx with second-order finite differences on a
// non-uniform grid: three-point one-sided stencils at the ends, the
// weighted central stencil in the interior. x must be strictly
// increasing and len(x) >= 3.
func gradient(y, x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)

	h1 := x[1] - x[0]
	h2 := x[2] - x[1]
	out[0] = -(2*h1+h2)/(h1*(h1+h2))*y[0] + (h1+h2)/(h1*h2)*y[1] - h1/(h2*(h1+h2))*y[2]

	for i := 1; i < n-1; i++ {
		hl := x[i] - x[i-1]
		hr := x[i+1] - x[i]
		out[i] = (hl*hl*y[i+1] + (hr*hr-hl*hl)*y[i] - hr*hr*y[i-1]) / (hl * hr * (hl + hr))
	}

	h1 = x[n-2] - x[n-3]
	h2 = x[n-1] - x[n-2]
	out[n-1] = h2/(h1*(h1+h2))*y[n-3] - (h1+h2)/(h1*h2)*y[n-2] + (h1+2*h2)/(h2*(h1+h2))*y[n-1]

	return out
}
