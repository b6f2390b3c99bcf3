package memlat

import (
	"math"
	"path/filepath"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// CacheMissReport correlates SAXPY runtime with hardware cache-miss
// counters across stride levels.
type CacheMissReport struct {
	// Summary has one row per stride with runtime and miss-rate
	// mean ± std plus averaged LLC and L1d miss counts.
	Summary *table.Table
}

// BuildCacheMiss derives the miss rate per run and aggregates by stride.
// Runs with zero recorded references get a zero rate, as do counters the
// profiler could not read.
func BuildCacheMiss(path string) (*CacheMissReport, error) {
	t, err := load(path,
		[]string{"stride", "rep", "secs", "cache_misses", "cache_references"},
		[]string{"stride", "rep", "secs", "cache_misses", "cache_references",
			"LLC_load_misses", "L1_dcache_load_misses"})
	if err != nil {
		return nil, err
	}

	rates := make([]float64, t.Len())
	for row := range rates {
		refs := orZero(t.Float("cache_references", row))
		if refs > 0 {
			rates[row] = orZero(t.Float("cache_misses", row)) / refs
		}
	}
	t.AddColumn("miss_rate", rates)

	summary := t.Aggregate([]string{"stride"}, []table.Agg{
		{Out: "secs_mean", Src: "secs", Fn: table.Mean},
		{Out: "secs_std", Src: "secs", Fn: table.StdDev},
		{Out: "mr_mean", Src: "miss_rate", Fn: table.Mean},
		{Out: "mr_std", Src: "miss_rate", Fn: table.StdDev},
		{Out: "LLC_miss_avg", Src: "LLC_load_misses", Fn: table.Mean},
		{Out: "L1_miss_avg", Src: "L1_dcache_load_misses", Fn: table.Mean},
	})
	return &CacheMissReport{Summary: dropMissingKey(summary, "stride")}, nil
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// WriteCharts saves runtime-vs-stride and runtime-vs-miss-rate curves.
func (r *CacheMissReport) WriteCharts(dir string) ([]string, error) {
	var byStride, byRate chart.LineSeries
	for row := 0; row < r.Summary.Len(); row++ {
		secs := r.Summary.Float("secs_mean", row)
		std := r.Summary.Float("secs_std", row)

		byStride.X = append(byStride.X, r.Summary.Float("stride", row))
		byStride.Y = append(byStride.Y, secs)
		byStride.ErrLow = append(byStride.ErrLow, std)
		byStride.ErrHigh = append(byStride.ErrHigh, std)

		byRate.X = append(byRate.X, r.Summary.Float("mr_mean", row))
		byRate.Y = append(byRate.Y, secs)
		byRate.ErrLow = append(byRate.ErrLow, std)
		byRate.ErrHigh = append(byRate.ErrHigh, std)
	}

	runtimePath := filepath.Join(dir, "saxpy_runtime.png")
	err := chart.ErrorLine("SAXPY runtime vs stride (mean ± std)",
		"Stride", "Runtime (s)", []chart.LineSeries{byStride}, chart.LineOpts{}, runtimePath)
	if err != nil {
		return nil, err
	}

	missPath := filepath.Join(dir, "saxpy_runtime_vs_miss.png")
	err = chart.ErrorLine("SAXPY runtime vs cache miss rate (mean ± std)",
		"Cache miss rate", "Runtime (s)", []chart.LineSeries{byRate}, chart.LineOpts{}, missPath)
	if err != nil {
		return nil, err
	}
	return []string{runtimePath, missPath}, nil
}

// Document renders the per-stride table and AMAT discussion.
func (r *CacheMissReport) Document(chartDir string) *report.Document {
	doc := &report.Document{}
	doc.Heading(2, "7. Cache-Miss Impact on a Lightweight Kernel (SAXPY)")
	doc.Heading(3, "7.3 Results (mean ± std)")
	doc.Table(r.Summary, []report.Column{
		{Header: "Stride", Field: "stride", Kind: report.Int},
		{Header: "Runtime_mean(s)", Field: "secs_mean", Kind: report.Fixed, Prec: 6},
		{Header: "Runtime_std(s)", Field: "secs_std", Kind: report.Fixed, Prec: 6},
		{Header: "miss_rate_mean", Field: "mr_mean", Kind: report.Fixed, Prec: 6},
		{Header: "miss_rate_std", Field: "mr_std", Kind: report.Fixed, Prec: 6},
		{Header: "LLC_load_misses(avg)", Field: "LLC_miss_avg", Kind: report.Fixed, Prec: 1},
		{Header: "L1_dcache_load_misses(avg)", Field: "L1_miss_avg", Kind: report.Fixed, Prec: 1},
	})
	doc.Image("rt_stride", filepath.Join(chartDir, "saxpy_runtime.png"))
	doc.Image("rt_miss", filepath.Join(chartDir, "saxpy_runtime_vs_miss.png"))
	doc.Heading(3, "7.4 Discussion")
	doc.Bullet("Per AMAT = HitTime + MissRate x MissPenalty, increasing stride worsens locality, raises miss rate, and elongates runtime.")
	doc.Bullet("Compare L1 vs LLC miss components: larger strides typically inflate LLC-load-misses, which dominates end-to-end time.")
	return doc
}
