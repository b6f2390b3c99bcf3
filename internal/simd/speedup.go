package simd

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/config"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// timeFields carry the median and percentile timings the speedup curves
// need on top of the shared required fields.
var timeFields = []string{"time_ns_med", "time_ns_p05", "time_ns_p95"}

// SpeedupReport plots scalar-vs-vector time speedup and absolute GFLOP/s
// against N, with asymmetric error bounds from the timing percentiles.
type SpeedupReport struct {
	// Merged pairs scalar and vector samples on
	// (kernel, dtype, n, stride, misalign), restricted to stride=1
	// aligned runs, with a speedup column.
	Merged *table.Table

	machine config.Machine
}

// BuildSpeedup joins the two tables and computes the per-sample time
// speedup scalar_time / simd_time.
func BuildSpeedup(scalar, simd *table.Table, machine config.Machine) (*SpeedupReport, error) {
	for _, t := range []*table.Table{scalar, simd} {
		if err := t.Require(timeFields...); err != nil {
			return nil, err
		}
	}

	keys := []string{"kernel", "dtype", "n", "stride", "misalign"}
	cols := append(append([]string{}, keys...), "gflops")
	cols = append(cols, timeFields...)

	baseline := table.Predicates{"stride": {"1"}, "misalign": {"0"}}
	sc, err := scalar.Select(cols...).Filter(baseline, false)
	if err != nil {
		return nil, err
	}
	si, err := simd.Select(cols...).Filter(baseline, false)
	if err != nil {
		return nil, err
	}

	merged := table.Join(sc, si, keys, "_sc", "_si")
	speedups := make([]float64, merged.Len())
	for row := range speedups {
		scT := merged.Float("time_ns_med_sc", row)
		siT := merged.Float("time_ns_med_si", row)
		if math.IsNaN(scT) || math.IsNaN(siT) || siT == 0 {
			speedups[row] = math.NaN()
		} else {
			speedups[row] = scT / siT
		}
	}
	merged.AddColumn("speedup", speedups)
	merged.Sort("kernel", "dtype", "n")

	return &SpeedupReport{Merged: merged, machine: machine}, nil
}

// curve holds one (kernel, dtype) slice of the merged table, sorted by N.
type curve struct {
	n, med, low, high []float64
}

// speedupCurve extracts the speedup curve with order-corrected bounds.
// The worst-case bound pairs the slow scalar percentile with the fast
// vector percentile and vice versa; when a percentile is missing the
// bound collapses to the median.
func (r *SpeedupReport) speedupCurve(kernel, dtype string) curve {
	var c curve
	for row := 0; row < r.Merged.Len(); row++ {
		if r.Merged.String("kernel", row) != kernel || r.Merged.String("dtype", row) != dtype {
			continue
		}
		med := r.Merged.Float("speedup", row)
		if math.IsNaN(med) {
			continue
		}
		low := boundOr(med, r.Merged.Float("time_ns_p95_sc", row), r.Merged.Float("time_ns_p05_si", row))
		high := boundOr(med, r.Merged.Float("time_ns_p05_sc", row), r.Merged.Float("time_ns_p95_si", row))
		if low > high {
			low, high = high, low
		}
		c.n = append(c.n, r.Merged.Float("n", row))
		c.med = append(c.med, med)
		c.low = append(c.low, math.Max(0, med-low))
		c.high = append(c.high, math.Max(0, high-med))
	}
	return c
}

// gflopsCurve extracts one side's GFLOP/s curve. Bounds scale the median
// throughput by the ratio of the median time to the percentile times.
func (r *SpeedupReport) gflopsCurve(kernel, dtype, suffix string) curve {
	var c curve
	for row := 0; row < r.Merged.Len(); row++ {
		if r.Merged.String("kernel", row) != kernel || r.Merged.String("dtype", row) != dtype {
			continue
		}
		med := r.Merged.Float("gflops"+suffix, row)
		if math.IsNaN(med) {
			continue
		}
		tMed := r.Merged.Float("time_ns_med"+suffix, row)
		low := boundOr(med, med*tMed, r.Merged.Float("time_ns_p95"+suffix, row))
		high := boundOr(med, med*tMed, r.Merged.Float("time_ns_p05"+suffix, row))
		if low > high {
			low, high = high, low
		}
		c.n = append(c.n, r.Merged.Float("n", row))
		c.med = append(c.med, med)
		c.low = append(c.low, math.Max(0, med-low))
		c.high = append(c.high, math.Max(0, high-med))
	}
	return c
}

// boundOr returns num/den, or the fallback when the ratio is undefined.
func boundOr(fallback, num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return fallback
	}
	v := num / den
	if math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

// cacheRules converts the configured cache capacities to element counts
// for one kernel/dtype traffic profile.
func (r *SpeedupReport) cacheRules(kernel, dtype string) []chart.Rule {
	bpe := 12.0
	if byKernel, ok := bytesPerElement[dtype]; ok {
		if b, ok := byKernel[kernel]; ok {
			bpe = b
		}
	}
	caps := []struct {
		bytes float64
		label string
	}{
		{float64(r.machine.L1Bytes), "L1->L2"},
		{float64(r.machine.L2Bytes), "L2->LLC"},
		{float64(r.machine.L3Bytes), "LLC->DRAM"},
	}
	rules := make([]chart.Rule, 0, len(caps))
	for _, c := range caps {
		rules = append(rules, chart.Rule{
			X:     math.Max(1, math.Floor(c.bytes/bpe)),
			Label: c.label,
		})
	}
	return rules
}

// pairs lists the (kernel, dtype) combinations present in the join.
func (r *SpeedupReport) pairs() [][2]string {
	seen := make(map[[2]string]bool)
	var out [][2]string
	for row := 0; row < r.Merged.Len(); row++ {
		p := [2]string{r.Merged.String("kernel", row), r.Merged.String("dtype", row)}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// WriteCharts saves a speedup curve and a GFLOP/s comparison curve per
// (kernel, dtype), both with cache boundary rules.
func (r *SpeedupReport) WriteCharts(dir string) ([]string, error) {
	var paths []string
	for _, p := range r.pairs() {
		kernel, dtype := p[0], p[1]
		rules := r.cacheRules(kernel, dtype)

		sp := r.speedupCurve(kernel, dtype)
		if len(sp.n) > 0 {
			path := filepath.Join(dir, fmt.Sprintf("speedup_%s_%s.png", kernel, dtype))
			err := chart.ErrorLine(
				fmt.Sprintf("Speedup SIMD vs Scalar (%s, %s, stride=1, aligned)", kernel, dtype),
				"N (elements)", "Speedup (scalar_time / simd_time)",
				[]chart.LineSeries{{
					Label: "median ± (p05,p95)",
					X:     sp.n, Y: sp.med, ErrLow: sp.low, ErrHigh: sp.high,
				}},
				chart.LineOpts{LogX: true, Rules: rules}, path)
			if err != nil {
				return nil, fmt.Errorf("failed to render speedup curve %s/%s: %w", kernel, dtype, err)
			}
			paths = append(paths, path)
		}

		scC := r.gflopsCurve(kernel, dtype, "_sc")
		siC := r.gflopsCurve(kernel, dtype, "_si")
		if len(scC.n) > 0 || len(siC.n) > 0 {
			path := filepath.Join(dir, fmt.Sprintf("gflops_%s_%s.png", kernel, dtype))
			err := chart.ErrorLine(
				fmt.Sprintf("GFLOP/s vs N (%s, %s)", kernel, dtype),
				"N (elements)", "GFLOP/s",
				[]chart.LineSeries{
					{Label: "scalar median ± (p05,p95)", X: scC.n, Y: scC.med, ErrLow: scC.low, ErrHigh: scC.high},
					{Label: "simd median ± (p05,p95)", X: siC.n, Y: siC.med, ErrLow: siC.low, ErrHigh: siC.high},
				},
				chart.LineOpts{LogX: true, Rules: rules}, path)
			if err != nil {
				return nil, fmt.Errorf("failed to render gflops curve %s/%s: %w", kernel, dtype, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Document embeds the generated curves in a short Markdown index.
func (r *SpeedupReport) Document(chartDir string) *report.Document {
	doc := &report.Document{}
	doc.Heading(1, "Scalar vs SIMD Speedup Curves")
	doc.Para("Median speedup with (p05, p95) error bounds; vertical rules mark the N at which the working set crosses each cache capacity.")
	for _, p := range r.pairs() {
		kernel, dtype := p[0], p[1]
		doc.Heading(3, fmt.Sprintf("%s %s", kernel, dtype))
		doc.Image(fmt.Sprintf("speedup_%s_%s", kernel, dtype),
			filepath.Join(chartDir, fmt.Sprintf("speedup_%s_%s.png", kernel, dtype)))
		doc.Image(fmt.Sprintf("gflops_%s_%s", kernel, dtype),
			filepath.Join(chartDir, fmt.Sprintf("gflops_%s_%s.png", kernel, dtype)))
	}
	return doc
}
