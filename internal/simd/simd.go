// Package simd generates the SIMD kernel benchmark reports: alignment
// penalty, tail-processing penalty, dtype comparison, stride scans,
// roofline analysis, and scalar-vs-vector speedup curves. Inputs are the
// simd.csv / scalar.csv tables produced by the kernel timing harness.
package simd

import (
	"fmt"

	"github.com/perfkit/benchreport/internal/table"
)

// Synonyms maps each canonical field to the column names that have named
// it across harness versions, in resolution order.
var Synonyms = map[string][]string{
	"gflops":  {"gflops", "gflops_per_s", "Gflops"},
	"cpe":     {"cpe", "cycles_per_element", "CPE"},
	"gibps":   {"gibps", "GiBps", "gib_per_s", "bandwidth_gib_per_s"},
	"version": {"version", "simd_or_scalar", "Version"},
}

// requiredFields must resolve in every kernel timing table.
var requiredFields = []string{"kernel", "dtype", "n", "stride", "misalign", "gflops", "cpe"}

// numericFields are coerced on load; unparseable cells become missing.
var numericFields = []string{
	"n", "stride", "misalign", "reps", "gflops", "cpe", "gibps",
	"verified", "max_rel_err", "time_ns_med", "time_ns_p05", "time_ns_p95",
}

// flopsPerElement is the per-element FLOP cost of each kernel.
var flopsPerElement = map[string]float64{
	"saxpy":   2,
	"dot":     2,
	"mul":     1,
	"stencil": 3,
}

// bytesPerElement is the per-element traffic of each kernel by dtype.
var bytesPerElement = map[string]map[string]float64{
	"f32": {"saxpy": 12, "dot": 8, "mul": 12, "stencil": 8},
	"f64": {"saxpy": 24, "dot": 16, "mul": 24, "stencil": 16},
}

// Load reads a kernel timing CSV, normalizes column names, verifies the
// required fields, and coerces the numeric columns.
func Load(path string) (*table.Table, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, err
	}
	t.Normalize(Synonyms)
	if err := t.Require(requiredFields...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Coerce(numericFields...)
	return t, nil
}

// FilterVerified keeps only rows whose results verified against the
// reference implementation. Tables without a verified column pass
// through unchanged; the harness only recently started emitting it.
func FilterVerified(t *table.Table) *table.Table {
	out, _ := t.Filter(table.Eq("verified", "1"), false)
	return out
}

// ArithmeticIntensity returns FLOPs per byte for a kernel/dtype pair.
// Unknown kernels fall back to 2 FLOPs over 12 bytes, the saxpy-like
// default of the harness.
func ArithmeticIntensity(kernel, dtype string) float64 {
	fpe, ok := flopsPerElement[kernel]
	if !ok {
		fpe = 2
	}
	bpe := 12.0
	if byKernel, ok := bytesPerElement[dtype]; ok {
		if b, ok := byKernel[kernel]; ok {
			bpe = b
		}
	}
	return fpe / bpe
}
