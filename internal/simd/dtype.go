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

var regionOrder = []string{"L1", "L2", "LLC", "DRAM"}

// DtypeReport compares vectorized against scalar runs of the same
// (kernel, dtype, n, stride, misalign) configuration.
type DtypeReport struct {
	// Summary holds geometric means per (dtype, kernel, region), with the
	// ALL-region rows appended after the per-region rows.
	Summary *table.Table

	// StrideOne is the same aggregation restricted to stride=1 samples.
	StrideOne *table.Table
}

var dtypeAggs = []table.Agg{
	{Out: "gmean_speedup", Src: "speedup", Fn: table.GeoMean},
	{Out: "gmean_gflops_simd", Src: "gflops_simd", Fn: table.GeoMean},
	{Out: "gmean_gflops_scalar", Src: "gflops_scalar", Fn: table.GeoMean},
	{Out: "gmean_cpe_simd", Src: "cpe_simd", Fn: table.GeoMean},
	{Out: "gmean_cpe_scalar", Src: "cpe_scalar", Fn: table.GeoMean},
	{Out: "samples", Src: "speedup", Fn: table.Count},
}

// BuildDtype joins the scalar and vectorized tables, computes the GFLOP/s
// speedup per matched sample, tags each sample's memory region by N, and
// reduces with geometric means.
func BuildDtype(scalar, simd *table.Table, machine config.Machine) (*DtypeReport, error) {
	keys := []string{"kernel", "dtype", "n", "stride", "misalign"}

	si := simd.Select(append(keys, "gflops", "cpe")...)
	si.Rename("gflops", "gflops_simd")
	si.Rename("cpe", "cpe_simd")
	sc := scalar.Select(append(keys, "gflops", "cpe")...)
	sc.Rename("gflops", "gflops_scalar")
	sc.Rename("cpe", "cpe_scalar")

	merged := table.Join(si, sc, keys, "_simd", "_scalar")

	// Speedup via GFLOP/s ratio. FLOP counts match per key, so this
	// equals the time speedup.
	speedups := make([]float64, merged.Len())
	regions := make([]string, merged.Len())
	for row := range speedups {
		base := merged.Float("gflops_scalar", row)
		vec := merged.Float("gflops_simd", row)
		if math.IsNaN(base) || base == 0 || math.IsNaN(vec) {
			speedups[row] = math.NaN()
		} else {
			speedups[row] = vec / base
		}
		regions[row] = machine.Region(merged.Float("n", row))
	}
	merged.AddColumn("speedup", speedups)
	merged.AddStringColumn("region", regions)

	summary := merged.Aggregate([]string{"dtype", "kernel", "region"}, dtypeAggs)

	overall := merged.Aggregate([]string{"dtype", "kernel"}, dtypeAggs)
	for row := 0; row < overall.Len(); row++ {
		cells := make([]string, 0, len(summary.Columns()))
		for _, col := range summary.Columns() {
			if col == "region" {
				cells = append(cells, "ALL")
			} else {
				cells = append(cells, overall.String(col, row))
			}
		}
		summary.AppendRow(cells)
	}

	s1, err := merged.Filter(table.Eq("stride", "1"), false)
	if err != nil {
		return nil, err
	}
	strideOne := s1.Aggregate([]string{"dtype", "kernel", "region"}, dtypeAggs)

	return &DtypeReport{Summary: summary, StrideOne: strideOne}, nil
}

// WriteCSV exports the full summary, stride=1 rows tagged in a note
// column.
func (r *DtypeReport) WriteCSV(path string) error {
	out := r.Summary.Select(r.Summary.Columns()...)
	notes := make([]string, out.Len())
	out.AddStringColumn("note", notes)
	for row := 0; row < r.StrideOne.Len(); row++ {
		cells := append(r.StrideOne.Row(row), "stride=1 only")
		out.AppendRow(cells)
	}
	return report.ExportCSV(out, path)
}

var dtypeColumns = []report.Column{
	{Header: "dtype", Field: "dtype", Kind: report.Text},
	{Header: "kernel", Field: "kernel", Kind: report.Text},
	{Header: "region", Field: "region", Kind: report.Text},
	{Header: "gmean_speedup", Field: "gmean_speedup", Kind: report.Fixed, Prec: 3},
	{Header: "gmean_gflops_simd", Field: "gmean_gflops_simd", Kind: report.Fixed, Prec: 3},
	{Header: "gmean_gflops_scalar", Field: "gmean_gflops_scalar", Kind: report.Fixed, Prec: 3},
	{Header: "gmean_cpe_simd", Field: "gmean_cpe_simd", Kind: report.Fixed, Prec: 3},
	{Header: "gmean_cpe_scalar", Field: "gmean_cpe_scalar", Kind: report.Fixed, Prec: 3},
	{Header: "samples", Field: "samples", Kind: report.Int},
}

// Document renders the Markdown summary, referencing the chart files
// produced by WriteCharts.
func (r *DtypeReport) Document(chartDir string) *report.Document {
	doc := &report.Document{}
	doc.Heading(1, "DType Comparison Summary")
	doc.Gap()
	doc.Heading(2, "How to read")
	doc.Bullet("**Speedup** = SIMD_GFLOP/s ÷ Scalar_GFLOP/s (for the same kernel, this equals time speedup since FLOPs are identical).")
	doc.Bullet("**Region** is derived from `N`: L1 ≤ 8K; L2 ≤ 128K; LLC ≤ 4M; DRAM > 4M.")
	doc.Bullet("Metrics are **geometric means (Geomean)** across samples; `samples` indicates the count per group.")
	doc.Gap()

	doc.Heading(2, "1) All samples (all strides; aligned/misaligned mixed)")
	doc.Table(r.Summary, dtypeColumns)

	doc.Heading(2, "2) stride=1 only")
	if r.StrideOne.Len() > 0 {
		doc.Table(r.StrideOne, dtypeColumns)
	} else {
		doc.Para("_No stride=1-only rows found in current CSV join._")
	}

	doc.Heading(2, "3) Figures")
	for _, dt := range distinct(r.Summary, "dtype") {
		doc.Heading(3, fmt.Sprintf("Speedup by Region — `%s`", dt))
		doc.Image("speedup_"+dt, filepath.Join(chartDir, "speedup_"+dt+".png"))
	}
	for _, k := range distinct(r.Summary, "kernel") {
		doc.Heading(3, fmt.Sprintf("SIMD GFLOP/s by dtype — `%s`", k))
		doc.Image("gflops_simd_"+k, filepath.Join(chartDir, "gflops_simd_"+k+".png"))
		doc.Heading(3, fmt.Sprintf("SIMD CPE by dtype — `%s`", k))
		doc.Image("cpe_simd_"+k, filepath.Join(chartDir, "cpe_simd_"+k+".png"))
	}
	return doc
}

// WriteCharts saves one speedup chart per dtype (kernels on the x axis,
// one bar per region) and GFLOP/s plus CPE charts per kernel (regions on
// the x axis, one bar per dtype).
func (r *DtypeReport) WriteCharts(dir string) ([]string, error) {
	dtypes := distinct(r.Summary, "dtype")
	kernels := distinct(r.Summary, "kernel")

	var paths []string
	for _, dt := range dtypes {
		series := make([]chart.BarSeries, 0, len(regionOrder))
		for _, region := range regionOrder {
			vals := make([]float64, len(kernels))
			any := false
			for i, k := range kernels {
				vals[i] = r.lookup(dt, k, region, "gmean_speedup")
				any = any || !math.IsNaN(vals[i])
			}
			if any {
				series = append(series, chart.BarSeries{Label: region, Values: vals})
			}
		}
		if len(series) == 0 {
			continue
		}
		path := filepath.Join(dir, "speedup_"+dt+".png")
		err := chart.GroupedBar(fmt.Sprintf("SIMD Speedup vs Scalar — %s", dt),
			"Kernel", "Geometric Mean Speedup", kernels, series, path)
		if err != nil {
			return nil, fmt.Errorf("failed to render speedup chart for %s: %w", dt, err)
		}
		paths = append(paths, path)
	}

	perKernel := []struct {
		field  string
		title  string
		ylabel string
		prefix string
	}{
		{"gmean_gflops_simd", "SIMD GFLOP/s by dtype — %s", "GFLOP/s (Geometric Mean)", "gflops_simd_"},
		{"gmean_cpe_simd", "SIMD CPE by dtype — %s", "CPE (Geometric Mean)", "cpe_simd_"},
	}
	for _, k := range kernels {
		for _, c := range perKernel {
			series := make([]chart.BarSeries, 0, len(dtypes))
			for _, dt := range dtypes {
				vals := make([]float64, len(regionOrder))
				any := false
				for i, region := range regionOrder {
					vals[i] = r.lookup(dt, k, region, c.field)
					any = any || !math.IsNaN(vals[i])
				}
				if any {
					series = append(series, chart.BarSeries{Label: dt, Values: vals})
				}
			}
			if len(series) == 0 {
				continue
			}
			path := filepath.Join(dir, c.prefix+k+".png")
			err := chart.GroupedBar(fmt.Sprintf(c.title, k), "Region", c.ylabel,
				regionOrder, series, path)
			if err != nil {
				return nil, fmt.Errorf("failed to render %s chart for %s: %w", c.field, k, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// lookup finds one aggregate cell by its (dtype, kernel, region) key.
func (r *DtypeReport) lookup(dtype, kernel, region, field string) float64 {
	for row := 0; row < r.Summary.Len(); row++ {
		if r.Summary.String("dtype", row) == dtype &&
			r.Summary.String("kernel", row) == kernel &&
			r.Summary.String("region", row) == region {
			return r.Summary.Float(field, row)
		}
	}
	return math.NaN()
}

// distinct returns the sorted unique values of a column.
func distinct(t *table.Table, col string) []string {
	seen := make(map[string]bool)
	var out []string
	for row := 0; row < t.Len(); row++ {
		v := t.String(col, row)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
