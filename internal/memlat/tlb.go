package memlat

import (
	"path/filepath"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// TLBReport contrasts bandwidth and dTLB miss counts across page-crossing
// strides, with transparent huge pages on and off.
type TLBReport struct {
	// Summary has one row per (strideB, thp) with bandwidth and dTLB
	// miss mean ± std.
	Summary *table.Table
}

// BuildTLB aggregates the sweep per (stride, THP setting).
func BuildTLB(path string) (*TLBReport, error) {
	t, err := load(path,
		[]string{"strideB", "thp", "bandwidth_gbs"},
		[]string{"strideB", "thp", "bandwidth_gbs", "dtlb_load_misses"})
	if err != nil {
		return nil, err
	}

	summary := t.Aggregate([]string{"strideB", "thp"}, []table.Agg{
		{Out: "count", Src: "bandwidth_gbs", Fn: table.Count},
		{Out: "bw_mean", Src: "bandwidth_gbs", Fn: table.Mean},
		{Out: "bw_std", Src: "bandwidth_gbs", Fn: table.StdDev},
		{Out: "dtlb_mean", Src: "dtlb_load_misses", Fn: table.Mean},
		{Out: "dtlb_std", Src: "dtlb_load_misses", Fn: table.StdDev},
	})
	return &TLBReport{Summary: dropMissingKey(summary, "strideB")}, nil
}

// WriteSummaryCSV exports the aggregate for the report appendix.
func (r *TLBReport) WriteSummaryCSV(path string) error {
	return report.ExportCSV(r.Summary, path)
}

var thpSettings = []struct {
	value string
	label string
}{
	{"0", "THP off"},
	{"1", "THP on"},
}

// thpSeries extracts one curve per THP setting; positiveOnly drops
// non-positive Y values for log-scale plots.
func (r *TLBReport) thpSeries(meanCol, stdCol string, positiveOnly bool) []chart.LineSeries {
	var out []chart.LineSeries
	for _, setting := range thpSettings {
		var s chart.LineSeries
		s.Label = setting.label
		for row := 0; row < r.Summary.Len(); row++ {
			if r.Summary.String("thp", row) != setting.value {
				continue
			}
			y := r.Summary.Float(meanCol, row)
			if positiveOnly && !(y > 0) {
				continue
			}
			s.X = append(s.X, r.Summary.Float("strideB", row))
			s.Y = append(s.Y, y)
			if stdCol != "" {
				std := r.Summary.Float(stdCol, row)
				s.ErrLow = append(s.ErrLow, std)
				s.ErrHigh = append(s.ErrHigh, std)
			}
		}
		if len(s.X) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// WriteCharts saves the bandwidth curve and the dTLB miss curve.
func (r *TLBReport) WriteCharts(dir string) ([]string, error) {
	bwPath := filepath.Join(dir, "tlb_bw.png")
	err := chart.ErrorLine("Bandwidth vs Stride (THP on/off, mean ± std)",
		"Stride (B, log2)", "Bandwidth (GB/s)",
		r.thpSeries("bw_mean", "bw_std", false),
		chart.LineOpts{LogX: true}, bwPath)
	if err != nil {
		return nil, err
	}

	missSeries := r.thpSeries("dtlb_mean", "", true)
	missPath := filepath.Join(dir, "tlb_miss.png")
	err = chart.ErrorLine("dTLB Misses vs Stride (THP on/off)",
		"Stride (B, log2)", "dTLB-load-misses (log)",
		missSeries, chart.LineOpts{LogX: true, LogY: len(missSeries) > 0}, missPath)
	if err != nil {
		return nil, err
	}
	return []string{bwPath, missPath}, nil
}

// Document renders the aggregate table and the THP reach analysis.
func (r *TLBReport) Document(chartDir string) *report.Document {
	show := r.Summary.Select(r.Summary.Columns()...)
	labels := make([]string, show.Len())
	for row := range labels {
		labels[row] = "off"
		if show.Float("thp", row) == 1 {
			labels[row] = "on"
		}
	}
	show.AddStringColumn("thp_label", labels)

	doc := &report.Document{}
	doc.Heading(2, "8. TLB Miss Impact on a Lightweight Kernel")
	doc.Heading(3, "8.3 Results")
	doc.Table(show, []report.Column{
		{Header: "strideB", Field: "strideB", Kind: report.Int},
		{Header: "thp", Field: "thp_label", Kind: report.Text},
		{Header: "count", Field: "count", Kind: report.Int},
		{Header: "bw_mean", Field: "bw_mean", Kind: report.Fixed, Prec: 3},
		{Header: "bw_std", Field: "bw_std", Kind: report.Fixed, Prec: 3},
		{Header: "dtlb_mean", Field: "dtlb_mean", Kind: report.Fixed, Prec: 1},
		{Header: "dtlb_std", Field: "dtlb_std", Kind: report.Fixed, Prec: 1},
	})
	doc.Image("tlb_bw", filepath.Join(chartDir, "tlb_bw.png"))
	doc.Image("tlb_miss", filepath.Join(chartDir, "tlb_miss.png"))
	doc.Heading(3, "8.4 Analysis")
	doc.Bullet("THP merges 4 KiB pages into larger physical pages, extending dTLB reach and cutting page-crossing overhead; with THP disabled, large strides sharply raise dTLB misses and depress bandwidth.")
	doc.Bullet("DTLB reach (entries x page size) explains the shift: huge pages grow the coverable working set from MiB to tens of MiB, delaying the TLB-limited region, consistent with the smoother THP-on curves.")
	return doc
}
