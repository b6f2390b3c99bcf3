package simd

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/config"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// TailReport summarizes the cost of tail processing: problem sizes that
// are not an exact multiple of the vector width take a remainder loop,
// and this report quantifies the resulting performance change.
type TailReport struct {
	// Geo holds the per-group geometric means, one row per
	// (kernel, dtype, stride, tail_flag).
	Geo *table.Table

	// Summary compares tail_flag=1 against tail_flag=0 per
	// (kernel, dtype, stride), with a trailing ALL row.
	Summary *table.Table
}

// BuildTail flags each aligned, verified sample by whether its problem
// size needs tail processing, reduces each side with geometric means, and
// compares tail against exact groups. Sample-level pairing is impossible
// here (the two sides have disjoint problem sizes by construction), so
// the comparison joins the per-group aggregates.
func BuildTail(t *table.Table, machine config.Machine) (*TailReport, error) {
	t = FilterVerified(t)
	t, err := t.Filter(table.Eq("misalign", "0"), false)
	if err != nil {
		return nil, err
	}

	flags := make([]string, t.Len())
	for row := range flags {
		n := t.Float("n", row)
		lanes := float64(machine.Lanes(t.String("dtype", row)))
		if math.IsNaN(n) || lanes <= 0 {
			flags[row] = "NaN"
		} else if math.Mod(n, lanes) != 0 {
			flags[row] = "1"
		} else {
			flags[row] = "0"
		}
	}
	t.AddStringColumn("tail_flag", flags)

	geo := t.Aggregate([]string{"kernel", "dtype", "stride", "tail_flag"}, []table.Agg{
		{Out: "samples", Src: "gflops", Fn: table.Count},
		{Out: "geo_gflops", Src: "gflops", Fn: table.GeoMean},
		{Out: "geo_cpe", Src: "cpe", Fn: table.GeoMean},
		{Out: "geo_gibps", Src: "gibps", Fn: table.GeoMean},
	})

	exact, err := geo.Filter(table.Eq("tail_flag", "0"), false)
	if err != nil {
		return nil, err
	}
	tail, err := geo.Filter(table.Eq("tail_flag", "1"), false)
	if err != nil {
		return nil, err
	}

	keys := []string{"kernel", "dtype", "stride"}
	merged := table.Join(exact.Select("kernel", "dtype", "stride", "samples", "geo_gflops", "geo_cpe", "geo_gibps"),
		tail.Select("kernel", "dtype", "stride", "samples", "geo_gflops", "geo_cpe", "geo_gibps"),
		keys, "_exact", "_tail")
	merged.AddRelChangePct("delta_gflops_pct", "geo_gflops_tail", "geo_gflops_exact")
	merged.AddRelChangePct("delta_cpe_pct", "geo_cpe_tail", "geo_cpe_exact")
	merged.AddRelChangePct("delta_gibps_pct", "geo_gibps_tail", "geo_gibps_exact")

	summary := merged.Select("kernel", "dtype", "stride",
		"delta_gflops_pct", "delta_cpe_pct", "delta_gibps_pct",
		"samples_exact", "samples_tail")
	summary.Sort(keys...)

	if summary.Len() > 0 {
		summary.AppendOverall(
			map[string]string{"kernel": "ALL", "dtype": "-", "stride": "0"},
			[]string{"delta_gflops_pct", "delta_cpe_pct", "delta_gibps_pct"},
			[]string{"samples_exact", "samples_tail"},
		)
	}

	return &TailReport{Geo: geo, Summary: summary}, nil
}

// Document renders the Markdown summary.
func (r *TailReport) Document() *report.Document {
	doc := &report.Document{}
	doc.Heading(3, "Tail Processing Performance Change Summary")

	// The samples column pairs exact/tail counts, so build it by hand.
	var b []string
	for row := 0; row < r.Summary.Len(); row++ {
		b = append(b, fmt.Sprintf("%.0f/%.0f",
			r.Summary.Float("samples_exact", row),
			r.Summary.Float("samples_tail", row)))
	}
	rendered := r.Summary.Select("kernel", "dtype", "stride",
		"delta_gflops_pct", "delta_cpe_pct", "delta_gibps_pct")
	rendered.AddStringColumn("samples", b)

	doc.Table(rendered, []report.Column{
		{Header: "kernel", Field: "kernel", Kind: report.Text},
		{Header: "dtype", Field: "dtype", Kind: report.Text},
		{Header: "stride", Field: "stride", Kind: report.Int},
		{Header: "ΔGFLOP/s (%)", Field: "delta_gflops_pct", Kind: report.Signed},
		{Header: "ΔCPE (%)", Field: "delta_cpe_pct", Kind: report.Signed},
		{Header: "ΔGiB/s (%)", Field: "delta_gibps_pct", Kind: report.Signed},
		{Header: "samples(exact/tail)", Field: "samples", Kind: report.Text},
	})
	return doc
}

// WriteCharts saves one delta bar chart per metric.
func (r *TailReport) WriteCharts(dir string) ([]string, error) {
	labels := make([]string, r.Summary.Len())
	for row := range labels {
		stride := r.Summary.Float("stride", row)
		s := "-"
		if !math.IsNaN(stride) {
			s = strconv.FormatFloat(stride, 'f', 0, 64)
		}
		labels[row] = fmt.Sprintf("%s-%s-s%s",
			r.Summary.String("kernel", row), r.Summary.String("dtype", row), s)
	}

	charts := []struct {
		field  string
		ylabel string
		file   string
	}{
		{"delta_gflops_pct", "ΔGFLOP/s (%)", "tail_delta_gflops.png"},
		{"delta_cpe_pct", "ΔCPE (%)", "tail_delta_cpe.png"},
		{"delta_gibps_pct", "ΔGiB/s (%)", "tail_delta_gibps.png"},
	}

	var paths []string
	for _, c := range charts {
		path := filepath.Join(dir, c.file)
		err := chart.Bar("Tail (N%lanes!=0) vs Exact Multiples",
			c.ylabel, labels, r.Summary.Floats(c.field), path)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", c.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
