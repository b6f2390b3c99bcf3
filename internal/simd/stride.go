package simd

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

var strideLevels = []string{"1", "2", "4", "8"}

// StrideReport summarizes how non-unit strides change throughput, both in
// absolute terms and relative to the stride=1 baseline of the same
// (kernel, dtype, n) group.
type StrideReport struct {
	Abs *table.Table // kernel, dtype, n, stride, gflops, cpe
	Rel *table.Table // Abs plus gflops_rel (ratio to the stride=1 row)

	// Plotset collects the rows used for the grouped bar charts, one
	// representative small, middle and large N per dtype.
	Plotset *table.Table
}

// BuildStride filters to verified, aligned samples at the standard stride
// levels and derives the relative-to-stride-1 view.
func BuildStride(t *table.Table) (*StrideReport, error) {
	t = FilterVerified(t)
	t, err := t.Filter(table.Predicates{
		"misalign": {"0"},
		"stride":   strideLevels,
	}, false)
	if err != nil {
		return nil, err
	}

	abs := t.Select("kernel", "dtype", "n", "stride", "gflops", "cpe")
	abs.Sort("kernel", "dtype", "n", "stride")

	// The stride=1 row of each (kernel, dtype, n) group is the
	// normalization base. Groups without one get a missing ratio.
	base := make(map[string]float64)
	for row := 0; row < abs.Len(); row++ {
		if abs.Float("stride", row) != 1 {
			continue
		}
		base[strideGroupKey(abs, row)] = abs.Float("gflops", row)
	}
	rels := make([]float64, abs.Len())
	for row := range rels {
		b, ok := base[strideGroupKey(abs, row)]
		if !ok || b == 0 || math.IsNaN(b) {
			rels[row] = math.NaN()
			continue
		}
		rels[row] = abs.Float("gflops", row) / b
	}

	rel := abs.Select(abs.Columns()...)
	rel.AddColumn("gflops_rel", rels)

	plotset := buildPlotset(abs)

	return &StrideReport{Abs: abs, Rel: rel, Plotset: plotset}, nil
}

func strideGroupKey(t *table.Table, row int) string {
	return t.String("kernel", row) + "\x1f" + t.String("dtype", row) + "\x1f" +
		strconv.FormatFloat(t.Float("n", row), 'g', -1, 64)
}

// buildPlotset keeps only the representative N levels per dtype: the
// smallest, the median and the largest distinct N.
func buildPlotset(abs *table.Table) *table.Table {
	keep := make(map[string]map[float64]bool)
	for _, dt := range distinct(abs, "dtype") {
		var ns []float64
		seen := make(map[float64]bool)
		for row := 0; row < abs.Len(); row++ {
			if abs.String("dtype", row) != dt {
				continue
			}
			n := abs.Float("n", row)
			if math.IsNaN(n) || seen[n] {
				continue
			}
			seen[n] = true
			ns = append(ns, n)
		}
		sort.Float64s(ns)
		picked := make(map[float64]bool)
		switch {
		case len(ns) == 0:
		case len(ns) <= 2:
			for _, n := range ns {
				picked[n] = true
			}
		default:
			picked[ns[0]] = true
			picked[ns[len(ns)/2]] = true
			picked[ns[len(ns)-1]] = true
		}
		keep[dt] = picked
	}

	out := table.New(abs.Columns()...)
	for row := 0; row < abs.Len(); row++ {
		if keep[abs.String("dtype", row)][abs.Float("n", row)] {
			out.AppendRow(abs.Row(row))
		}
	}
	return out
}

// Document renders the per-sample stride table.
func (r *StrideReport) Document() *report.Document {
	doc := &report.Document{}
	doc.Heading(3, "Stride Scan Summary")
	doc.Table(r.Rel, []report.Column{
		{Header: "kernel", Field: "kernel", Kind: report.Text},
		{Header: "dtype", Field: "dtype", Kind: report.Text},
		{Header: "N", Field: "n", Kind: report.Int},
		{Header: "stride", Field: "stride", Kind: report.Int},
		{Header: "GFLOP/s", Field: "gflops", Kind: report.Fixed, Prec: 3},
		{Header: "CPE", Field: "cpe", Kind: report.Fixed, Prec: 3},
		{Header: "GFLOP/s rel(s=1)", Field: "gflops_rel", Kind: report.Fixed, Prec: 3},
	})
	return doc
}

// WriteCharts saves two grouped bar charts per (kernel, dtype): GFLOP/s
// and CPE across stride levels, one bar per representative N.
func (r *StrideReport) WriteCharts(dir string) ([]string, error) {
	var paths []string
	for _, k := range distinct(r.Plotset, "kernel") {
		for _, dt := range distinct(r.Plotset, "dtype") {
			for _, c := range []struct {
				field  string
				ylabel string
				suffix string
			}{
				{"gflops", "GFLOP/s", "_gflops_grouped_by_stride.png"},
				{"cpe", "CPE", "_cpe_grouped_by_stride.png"},
			} {
				series := r.strideSeries(k, dt, c.field)
				if len(series) == 0 {
					continue
				}
				path := filepath.Join(dir, k+"_"+dt+c.suffix)
				title := fmt.Sprintf("%s %s: %s vs stride (per-N grouped)", k, dt, c.ylabel)
				if err := chart.GroupedBar(title, "Stride", c.ylabel, strideLevels, series, path); err != nil {
					return nil, fmt.Errorf("failed to render stride chart %s: %w", path, err)
				}
				paths = append(paths, path)
			}
		}
	}
	return paths, nil
}

// strideSeries builds one bar series per representative N, values aligned
// to the stride level order.
func (r *StrideReport) strideSeries(kernel, dtype, field string) []chart.BarSeries {
	byN := make(map[float64][]float64)
	var ns []float64
	for row := 0; row < r.Plotset.Len(); row++ {
		if r.Plotset.String("kernel", row) != kernel || r.Plotset.String("dtype", row) != dtype {
			continue
		}
		n := r.Plotset.Float("n", row)
		vals, ok := byN[n]
		if !ok {
			vals = make([]float64, len(strideLevels))
			for i := range vals {
				vals[i] = math.NaN()
			}
			ns = append(ns, n)
		}
		stride := r.Plotset.Float("stride", row)
		for i, s := range strideLevels {
			if level, _ := strconv.ParseFloat(s, 64); stride == level {
				vals[i] = r.Plotset.Float(field, row)
			}
		}
		byN[n] = vals
	}
	sort.Float64s(ns)

	series := make([]chart.BarSeries, 0, len(ns))
	for _, n := range ns {
		series = append(series, chart.BarSeries{
			Label:  fmt.Sprintf("N=%d", int64(n)),
			Values: byN[n],
		})
	}
	return series
}
