package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RooflinePoint is one measured (AI, GFLOP/s) aggregate to overlay on the
// roofline model.
type RooflinePoint struct {
	Label  string
	AI     float64 // arithmetic intensity, FLOPs per byte
	GFLOPS float64
}

// Roofline saves a log-log roofline chart: the cap curve
// y = min(peak, bmem·AI), a dashed peak line, and the measured points.
func Roofline(title string, peak, bmem float64, points []RooflinePoint, path string) error {
	var xs []float64
	for _, pt := range points {
		if !math.IsNaN(pt.AI) && pt.AI > 0 {
			xs = append(xs, pt.AI)
		}
	}
	if len(xs) == 0 {
		return fmt.Errorf("roofline %q: no points with a positive arithmetic intensity", title)
	}

	xMin, xMax := xs[0], xs[0]
	for _, x := range xs {
		xMin = math.Min(xMin, x)
		xMax = math.Max(xMax, x)
	}
	xMin = math.Max(xMin/2, 1e-3)
	xMax = math.Max(xMax*2, 10)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Arithmetic Intensity (FLOPs / Byte)"
	p.Y.Label.Text = "GFLOP/s (measured)"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	roof := make(plotter.XYs, 0, 200)
	for i := 0; i < 200; i++ {
		x := xMin * math.Pow(xMax/xMin, float64(i)/199)
		roof = append(roof, plotter.XY{X: x, Y: math.Min(peak, bmem*x)})
	}
	roofLine, err := plotter.NewLine(roof)
	if err != nil {
		return err
	}
	roofLine.Color = seriesColor(0)
	roofLine.Width = vg.Points(2)
	p.Add(roofLine)
	p.Legend.Add(fmt.Sprintf("roof: min(P=%.1f, B·AI), B=%.1f GiB/s", peak, bmem), roofLine)

	peakLine, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: peak}, {X: xMax, Y: peak}})
	if err != nil {
		return err
	}
	peakLine.Color = color.Gray{Y: 128}
	peakLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(peakLine)

	var pts plotter.XYs
	var labels []string
	for _, pt := range points {
		if math.IsNaN(pt.AI) || pt.AI <= 0 || math.IsNaN(pt.GFLOPS) || pt.GFLOPS <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: pt.AI, Y: pt.GFLOPS})
		labels = append(labels, pt.Label)
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Color = seriesColor(3)
	scatter.Radius = vg.Points(3)
	p.Add(scatter)

	tags, err := plotter.NewLabels(plotter.XYLabels{XYs: offsetLabels(pts), Labels: labels})
	if err != nil {
		return err
	}
	p.Add(tags)

	p.Legend.Top = true
	return p.Save(7*vg.Inch, 5*vg.Inch, path)
}

// offsetLabels nudges label anchors off the markers.
func offsetLabels(pts plotter.XYs) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		out[i] = plotter.XY{X: pt.X * 1.05, Y: pt.Y * 1.05}
	}
	return out
}
