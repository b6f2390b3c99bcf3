package memlat

import (
	"math"
	"path/filepath"
	"sort"

	"github.com/perfkit/benchreport/internal/chart"
	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/table"
)

// bwBucket aligns repeated runs on a common throughput grid.
const bwBucket = 0.25

// Knee is the point of maximum curvature on the bucketed
// throughput/latency curve, where queueing delay starts to dominate.
type Knee struct {
	BWGBs     float64
	LatencyNs float64
}

// LoadedReport is the loaded-latency sweep: injected throughput against
// observed latency, bucketed so repeats align.
type LoadedReport struct {
	// Summary has one row per throughput bucket with samples, lat_mean
	// and lat_std, ascending by bandwidth.
	Summary *table.Table

	// Knee is nil when the curve has too few buckets to differentiate.
	Knee *Knee
}

// BuildLoaded buckets the raw (rep, bandwidth, latency) rows at 0.25 GB/s
// granularity, reduces each bucket to mean ± std, and locates the knee.
func BuildLoaded(path string) (*LoadedReport, error) {
	t, err := load(path,
		[]string{"rep", "bandwidth_gbs", "latency_ns"},
		[]string{"rep", "bandwidth_gbs", "latency_ns"})
	if err != nil {
		return nil, err
	}

	buckets := make([]float64, t.Len())
	for row := range buckets {
		bw := t.Float("bandwidth_gbs", row)
		if math.IsNaN(bw) || math.IsNaN(t.Float("latency_ns", row)) {
			buckets[row] = math.NaN()
		} else {
			buckets[row] = math.Round(bw/bwBucket) * bwBucket
		}
	}
	t.AddColumn("bw_bucket", buckets)

	summary := t.Aggregate([]string{"bw_bucket"}, []table.Agg{
		{Out: "samples", Src: "latency_ns", Fn: table.Count},
		{Out: "lat_mean", Src: "latency_ns", Fn: table.Mean},
		{Out: "lat_std", Src: "latency_ns", Fn: table.StdDev},
	})

	// Buckets born from missing rows carry no usable coordinates.
	r := &LoadedReport{Summary: dropMissingKey(summary, "bw_bucket")}
	r.Knee = findKnee(r.Summary)
	return r, nil
}

// dropMissingKey removes aggregate rows whose group key is the missing
// sentinel.
func dropMissingKey(t *table.Table, key string) *table.Table {
	out := table.New(t.Columns()...)
	for row := 0; row < t.Len(); row++ {
		if math.IsNaN(t.Float(key, row)) {
			continue
		}
		out.AppendRow(t.Row(row))
	}
	return out
}

// findKnee runs the curvature criterion |y''| / (1 + y'^2)^1.5 over the
// mean curve and returns its maximum. Needs at least three strictly
// increasing buckets.
func findKnee(summary *table.Table) *Knee {
	type pt struct{ x, y float64 }
	var pts []pt
	for row := 0; row < summary.Len(); row++ {
		x := summary.Float("bw_bucket", row)
		y := summary.Float("lat_mean", row)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		pts = append(pts, pt{x, y})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })
	if len(pts) < 3 {
		return nil
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].x <= pts[i-1].x {
			return nil
		}
	}

	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		x[i], y[i] = p.x, p.y
	}
	d1 := gradient(y, x)
	d2 := gradient(d1, x)

	best, bestCurv := -1, math.Inf(-1)
	for i := range x {
		curv := math.Abs(d2[i]) / math.Pow(1+d1[i]*d1[i], 1.5)
		if !math.IsNaN(curv) && curv > bestCurv {
			best, bestCurv = i, curv
		}
	}
	if best < 0 {
		return nil
	}
	return &Knee{BWGBs: x[best], LatencyNs: y[best]}
}

// WriteChart saves the throughput/latency curve with std error bars.
func (r *LoadedReport) WriteChart(dir string) (string, error) {
	var s chart.LineSeries
	for row := 0; row < r.Summary.Len(); row++ {
		std := r.Summary.Float("lat_std", row)
		s.X = append(s.X, r.Summary.Float("bw_bucket", row))
		s.Y = append(s.Y, r.Summary.Float("lat_mean", row))
		s.ErrLow = append(s.ErrLow, std)
		s.ErrHigh = append(s.ErrHigh, std)
	}
	path := filepath.Join(dir, "throughput_latency.png")
	err := chart.ErrorLine("Throughput-Latency (loaded latency, mean ± std)",
		"Throughput (GB/s)", "Latency (ns)",
		[]chart.LineSeries{s}, chart.LineOpts{}, path)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Document renders the bucketed table, the knee estimate and the figure.
func (r *LoadedReport) Document(chartDir string) *report.Document {
	doc := &report.Document{}
	doc.Heading(2, "5. Access Intensity Sweep (Loaded Latency)")
	doc.Heading(3, "5.3 Output Results (bucketed by throughput)")
	doc.Table(r.Summary, []report.Column{
		{Header: "Throughput (GB/s)", Field: "bw_bucket", Kind: report.Fixed, Prec: 2},
		{Header: "Mean Latency (ns)", Field: "lat_mean", Kind: report.Fixed, Prec: 2},
		{Header: "Std (ns)", Field: "lat_std", Kind: report.Fixed, Prec: 2},
		{Header: "Count", Field: "samples", Kind: report.Int},
	})

	if r.Knee != nil {
		doc.Para("**Knee (approx.)**: BW≈%.2f GB/s, Lat≈%.1f ns", r.Knee.BWGBs, r.Knee.LatencyNs)
	} else {
		doc.Para("**Knee (approx.)**: N/A")
	}
	doc.Image("Throughput-Latency", filepath.Join(chartDir, "throughput_latency.png"))
	doc.Heading(3, "5.4 Analysis")
	doc.Bullet("As injected throughput rises, queueing delays increase, so average latency climbs; after the knee, returns diminish.")
	doc.Bullet("Error bars denote standard deviation across repeat runs per throughput bucket.")
	return doc
}
