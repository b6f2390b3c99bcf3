package simd

import (
	"fmt"
	"path/filepath"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// alignMetrics are the metrics compared between aligned and misaligned
// runs.
var alignMetrics = []string{"gflops", "cpe", "gibps"}

// AlignReport summarizes the performance change caused by misaligned
// buffers, per (kernel, dtype, stride).
type AlignReport struct {
	// Summary has one row per (kernel, dtype, stride) with the
	// geometric-mean delta percentage per metric, a samples count, and a
	// trailing ALL row.
	Summary *table.Table

	// Dropped counts samples present on only one side of the
	// aligned/misaligned join.
	Dropped int
}

// BuildAlign pairs each misaligned sample with its aligned counterpart on
// (kernel, dtype, stride, n) and aggregates the per-sample relative
// changes per (kernel, dtype, stride).
func BuildAlign(t *table.Table) (*AlignReport, error) {
	t = FilterVerified(t)

	aligned, err := t.Filter(table.Eq("misalign", "0"), false)
	if err != nil {
		return nil, err
	}
	misaligned, err := t.Filter(table.Eq("misalign", "1"), false)
	if err != nil {
		return nil, err
	}

	summary, dropped := table.Delta(aligned, misaligned, table.DeltaSpec{
		PairKeys:  []string{"kernel", "dtype", "stride", "n"},
		GroupKeys: []string{"kernel", "dtype", "stride"},
		Metrics:   alignMetrics,
	})

	if summary.Len() > 0 {
		summary.AppendOverall(
			map[string]string{"kernel": "ALL", "dtype": "-", "stride": "0"},
			[]string{"gflops_delta_pct", "cpe_delta_pct", "gibps_delta_pct"},
			[]string{"samples"},
		)
	}

	return &AlignReport{Summary: summary, Dropped: dropped}, nil
}

// Document renders the Markdown summary.
func (r *AlignReport) Document() *report.Document {
	doc := &report.Document{}
	doc.Heading(3, "Aligned vs Misaligned Overall Performance Change Summary")
	doc.Table(r.Summary, []report.Column{
		{Header: "kernel", Field: "kernel", Kind: report.Text},
		{Header: "dtype", Field: "dtype", Kind: report.Text},
		{Header: "stride", Field: "stride", Kind: report.Int},
		{Header: "ΔGFLOP/s (%)", Field: "gflops_delta_pct", Kind: report.Signed},
		{Header: "ΔCPE (%)", Field: "cpe_delta_pct", Kind: report.Signed},
		{Header: "ΔGiB/s (%)", Field: "gibps_delta_pct", Kind: report.Signed},
		{Header: "samples", Field: "samples", Kind: report.Int},
	})
	if r.Dropped > 0 {
		doc.Para("_%d samples had no counterpart on the other side and were dropped by the inner join._", r.Dropped)
	}
	return doc
}

// WriteCharts saves one delta bar chart per metric and returns the
// file paths.
func (r *AlignReport) WriteCharts(dir string) ([]string, error) {
	labels := make([]string, r.Summary.Len())
	for row := range labels {
		labels[row] = fmt.Sprintf("%s-%s-s%.0f",
			r.Summary.String("kernel", row),
			r.Summary.String("dtype", row),
			r.Summary.Float("stride", row))
	}

	charts := []struct {
		field  string
		ylabel string
		file   string
	}{
		{"gflops_delta_pct", "ΔGFLOP/s (%)", "aln_vs_mis_delta_gflops.png"},
		{"cpe_delta_pct", "ΔCPE (%)", "aln_vs_mis_delta_cpe.png"},
		{"gibps_delta_pct", "ΔGiB/s (%)", "aln_vs_mis_delta_gibps.png"},
	}

	var paths []string
	for _, c := range charts {
		path := filepath.Join(dir, c.file)
		err := chart.Bar("Aligned vs Misaligned: Geometric-Mean Delta (%)",
			c.ylabel, labels, r.Summary.Floats(c.field), path)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", c.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
