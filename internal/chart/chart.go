// Package chart renders the report figures as static PNG images using
// gonum/plot: category bar charts for delta summaries, grouped bars for
// per-region comparisons, and error-bar curves for sweep measurements.
package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// palette holds the series colors, applied in declaration order.
var palette = []color.RGBA{
	{R: 54, G: 162, B: 235, A: 255},  // blue
	{R: 255, G: 159, B: 64, A: 255},  // orange
	{R: 100, G: 200, B: 100, A: 255}, // green
	{R: 255, G: 100, B: 100, A: 255}, // red
	{R: 153, G: 102, B: 255, A: 255}, // purple
	{R: 120, G: 120, B: 120, A: 255}, // gray
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// Bar saves a single-series bar chart with one bar per category label.
// Missing values render as zero-height bars.
func Bar(title, ylabel string, labels []string, values []float64, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	vals := make(plotter.Values, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			vals[i] = v
		}
	}

	bar, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return err
	}
	bar.Color = seriesColor(0)
	bar.LineStyle.Width = 0
	p.Add(bar)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = -0.9
	p.X.Tick.Label.YAlign = -0.4

	return p.Save(12*vg.Inch, 4.5*vg.Inch, path)
}

// BarSeries is one series of a grouped bar chart, with optional symmetric
// error bars (standard deviations).
type BarSeries struct {
	Label  string
	Values []float64
	Errs   []float64
}

// GroupedBar saves a grouped bar chart: one bar per series within each
// category group, series offset side by side.
func GroupedBar(title, xlabel, ylabel string, groups []string, series []BarSeries, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	barWidth := vg.Points(60 / float64(len(series)+1))
	groupWidth := barWidth * vg.Length(len(series)-1)

	for i, s := range series {
		vals := make(plotter.Values, len(s.Values))
		for j, v := range s.Values {
			if !math.IsNaN(v) {
				vals[j] = v
			}
		}
		bar, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return err
		}
		bar.Color = seriesColor(i)
		bar.LineStyle.Width = 0
		bar.Offset = barWidth*vg.Length(i) - groupWidth/2
		p.Add(bar)
		p.Legend.Add(s.Label, bar)

		if len(s.Errs) == len(s.Values) {
			off := float64(i) - float64(len(series)-1)/2
			eb, err := errorBars(centered(s.Values, s.Errs, off, float64(len(series)+1)))
			if err != nil {
				return err
			}
			p.Add(eb)
		}
	}

	p.Legend.Top = true
	p.NominalX(groups...)
	return p.Save(7.8*vg.Inch, 4.6*vg.Inch, path)
}

// centered positions symmetric error bars over offset grouped bars. The
// nominal X of group j is j; bars within the group are spread by
// 1/(series+1) of a group slot.
func centered(values, errs []float64, offsetSlots, slotsPerGroup float64) errPoints {
	var pts errPoints
	for j := range values {
		if math.IsNaN(values[j]) || math.IsNaN(errs[j]) {
			continue
		}
		pts.XYs = append(pts.XYs, plotter.XY{X: float64(j) + offsetSlots/slotsPerGroup, Y: values[j]})
		pts.low = append(pts.low, errs[j])
		pts.high = append(pts.high, errs[j])
	}
	return pts
}

// LineSeries is one error-bar curve. ErrLow/ErrHigh are magnitudes below
// and above Y; leave both nil for a plain line.
type LineSeries struct {
	Label   string
	X       []float64
	Y       []float64
	ErrLow  []float64
	ErrHigh []float64
}

// Rule is a labeled vertical reference line (cache capacity boundaries).
type Rule struct {
	X     float64
	Label string
}

// LineOpts adjusts axis behavior for error-bar line charts.
type LineOpts struct {
	LogX  bool // logarithmic X with ticks at the data points
	LogY  bool
	Rules []Rule
}

// ErrorLine saves one or more curves with per-point error bars.
func ErrorLine(title, xlabel, ylabel string, series []LineSeries, opts LineOpts, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	if opts.LogX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = dataTicks(series)
	}
	if opts.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	yMin, yMax := math.Inf(1), math.Inf(-1)
	for i, s := range series {
		pts, low, high := cleanSeries(s)
		if len(pts) == 0 {
			continue
		}
		for j := range pts {
			if pts[j].Y < yMin {
				yMin = pts[j].Y
			}
			if pts[j].Y > yMax {
				yMax = pts[j].Y
			}
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = seriesColor(i)
		line.Width = vg.Points(2)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		scatter.Color = seriesColor(i)

		p.Add(line, scatter)
		if s.Label != "" {
			p.Legend.Add(s.Label, line, scatter)
		}

		if low != nil {
			eb, err := errorBars(errPoints{XYs: pts, low: low, high: high})
			if err != nil {
				return err
			}
			p.Add(eb)
		}
	}

	for _, r := range rulesInRange(opts.Rules, yMin, yMax) {
		p.Add(r)
	}

	p.Legend.Top = true
	return p.Save(7*vg.Inch, 4.5*vg.Inch, path)
}

// cleanSeries drops points with missing coordinates and aligns the error
// magnitudes with what remains.
func cleanSeries(s LineSeries) (plotter.XYs, []float64, []float64) {
	var pts plotter.XYs
	var low, high []float64
	hasErr := len(s.ErrLow) == len(s.Y) && len(s.ErrHigh) == len(s.Y)
	for i := range s.Y {
		if math.IsNaN(s.X[i]) || math.IsNaN(s.Y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
		if hasErr {
			low = append(low, orZero(s.ErrLow[i]))
			high = append(high, orZero(s.ErrHigh[i]))
		}
	}
	if !hasErr {
		return pts, nil, nil
	}
	return pts, low, high
}

func orZero(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// rulesInRange renders vertical reference lines spanning the data's Y
// extent.
func rulesInRange(rules []Rule, yMin, yMax float64) []*plotter.Line {
	if len(rules) == 0 || math.IsInf(yMin, 1) {
		return nil
	}
	var out []*plotter.Line
	for _, r := range rules {
		line, err := plotter.NewLine(plotter.XYs{{X: r.X, Y: yMin}, {X: r.X, Y: yMax}})
		if err != nil {
			continue
		}
		line.Color = color.RGBA{R: 220, G: 60, B: 60, A: 200}
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		out = append(out, line)
	}
	return out
}

// dataTicks places X ticks at each distinct data point, labeled with the
// raw value; log-spaced sweeps read best with ticks on the measured
// points rather than decade marks.
func dataTicks(series []LineSeries) plot.ConstantTicks {
	seen := make(map[float64]bool)
	var ticks []plot.Tick
	for _, s := range series {
		for _, x := range s.X {
			if math.IsNaN(x) || x <= 0 || seen[x] {
				continue
			}
			seen[x] = true
			ticks = append(ticks, plot.Tick{Value: x, Label: compactNumber(x)})
		}
	}
	return plot.ConstantTicks(ticks)
}

func compactNumber(v float64) string {
	switch {
	case v >= 1<<20 && math.Mod(v, 1<<20) == 0:
		return fmt.Sprintf("%.0fM", v/(1<<20))
	case v >= 1<<10 && math.Mod(v, 1<<10) == 0:
		return fmt.Sprintf("%.0fK", v/(1<<10))
	default:
		return fmt.Sprintf("%g", v)
	}
}

// errPoints adapts XY points plus low/high magnitudes to the plotter
// error-bar interfaces.
type errPoints struct {
	plotter.XYs
	low  []float64
	high []float64
}

func (e errPoints) YError(i int) (float64, float64) {
	return e.low[i], e.high[i]
}

func errorBars(pts errPoints) (*plotter.YErrorBars, error) {
	eb, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return nil, err
	}
	eb.LineStyle.Color = color.Gray{Y: 96}
	eb.CapWidth = vg.Points(4)
	return eb, nil
}
