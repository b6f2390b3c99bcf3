package memlat

import (
	"fmt"
	"path/filepath"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// StrideSweepReport summarizes latency and bandwidth against access
// stride, per access mode (sequential or random), mean ± std across
// repeat runs.
type StrideSweepReport struct {
	// Summary has one row per (mode, stride_B) with lat_mean, lat_std,
	// bw_mean, bw_std and samples.
	Summary *table.Table
}

// BuildStrideSweep aggregates the raw sweep rows.
func BuildStrideSweep(path string) (*StrideSweepReport, error) {
	t, err := load(path,
		[]string{"mode", "stride_B", "lat_ns", "bw_gbs"},
		[]string{"stride_B", "lat_ns", "bw_gbs"})
	if err != nil {
		return nil, err
	}

	summary := t.Aggregate([]string{"mode", "stride_B"}, []table.Agg{
		{Out: "lat_mean", Src: "lat_ns", Fn: table.Mean},
		{Out: "lat_std", Src: "lat_ns", Fn: table.StdDev},
		{Out: "bw_mean", Src: "bw_gbs", Fn: table.Mean},
		{Out: "bw_std", Src: "bw_gbs", Fn: table.StdDev},
		{Out: "samples", Src: "lat_ns", Fn: table.Count},
	})
	return &StrideSweepReport{Summary: summary}, nil
}

// series builds one error-bar curve per mode for the given mean/std
// column pair, stride on X.
func (r *StrideSweepReport) series(meanCol, stdCol string) []chart.LineSeries {
	var out []chart.LineSeries
	for _, mode := range distinctStrings(r.Summary, "mode") {
		var s chart.LineSeries
		s.Label = mode
		for row := 0; row < r.Summary.Len(); row++ {
			if r.Summary.String("mode", row) != mode {
				continue
			}
			err := r.Summary.Float(stdCol, row)
			s.X = append(s.X, r.Summary.Float("stride_B", row))
			s.Y = append(s.Y, r.Summary.Float(meanCol, row))
			s.ErrLow = append(s.ErrLow, err)
			s.ErrHigh = append(s.ErrHigh, err)
		}
		if len(s.X) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// WriteCharts saves the latency and bandwidth curves.
func (r *StrideSweepReport) WriteCharts(dir string) ([]string, error) {
	latPath := filepath.Join(dir, "latency_vs_stride.png")
	err := chart.ErrorLine("Latency vs Stride (mean ± std)",
		"Stride (Bytes, log scale)", "Latency (ns/access)",
		r.series("lat_mean", "lat_std"), chart.LineOpts{LogX: true}, latPath)
	if err != nil {
		return nil, fmt.Errorf("failed to render latency sweep: %w", err)
	}

	bwPath := filepath.Join(dir, "bandwidth_vs_stride.png")
	err = chart.ErrorLine("Bandwidth vs Stride (mean ± std)",
		"Stride (Bytes, log scale)", "Bandwidth (GB/s)",
		r.series("bw_mean", "bw_std"), chart.LineOpts{LogX: true}, bwPath)
	if err != nil {
		return nil, fmt.Errorf("failed to render bandwidth sweep: %w", err)
	}
	return []string{latPath, bwPath}, nil
}

// pivot lays strides out as rows with one column per mode.
func (r *StrideSweepReport) pivot(valueCol string) (*table.Table, []report.Column) {
	modes := distinctStrings(r.Summary, "mode")
	out := table.New(append([]string{"stride_B"}, modes...)...)

	for _, stride := range distinctStrings(r.Summary, "stride_B") {
		cells := []string{stride}
		for _, mode := range modes {
			cell := "NaN"
			for row := 0; row < r.Summary.Len(); row++ {
				if r.Summary.String("mode", row) == mode && r.Summary.String("stride_B", row) == stride {
					cell = formatNs(r.Summary.Float(valueCol, row))
				}
			}
			cells = append(cells, cell)
		}
		out.AppendRow(cells)
	}
	out.Sort("stride_B")

	cols := []report.Column{{Header: "stride_B", Field: "stride_B", Kind: report.Int}}
	for _, mode := range modes {
		cols = append(cols, report.Column{Header: mode, Field: mode, Kind: report.Fixed, Prec: 3})
	}
	return out, cols
}

// Document renders the four mean/std pivots plus the figures.
func (r *StrideSweepReport) Document(chartDir string) *report.Document {
	doc := &report.Document{}
	doc.Heading(2, "3. Pattern & Stride Sweep (Latency & Bandwidth)")
	doc.Heading(3, "3.3 Results (Mean ± Std)")

	for _, section := range []struct {
		title string
		col   string
	}{
		{"Mean Latency (ns/access)", "lat_mean"},
		{"StdDev Latency (ns/access)", "lat_std"},
		{"Mean Bandwidth (GB/s)", "bw_mean"},
		{"StdDev Bandwidth (GB/s)", "bw_std"},
	} {
		doc.Para("**%s**", section.title)
		t, cols := r.pivot(section.col)
		doc.Table(t, cols)
	}

	doc.Image("Latency", filepath.Join(chartDir, "latency_vs_stride.png"))
	doc.Image("Bandwidth", filepath.Join(chartDir, "bandwidth_vs_stride.png"))
	doc.Heading(3, "3.4 Result Analysis")
	doc.Bullet("**Prefetch & stride effects**: smaller strides and sequential access enable HW prefetchers and DRAM row-buffer hits, reducing latency and boosting bandwidth.")
	doc.Bullet("**Random & larger strides**: reduce prefetch efficacy, increase row misses and TLB pressure, raising latency and lowering bandwidth.")
	doc.Bullet("**Error bars** represent run-to-run variability (std) over repeat trials.")
	return doc
}

// distinctStrings returns the first-seen order unique values of a column.
func distinctStrings(t *table.Table, col string) []string {
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
	return out
}
