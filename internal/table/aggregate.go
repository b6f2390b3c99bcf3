package table

import (
	"math"
	"strconv"

	"github.com/montanaflynn/stats"
)

// Reducer collapses the non-missing samples of one metric within a group
// to a single statistic. Reducers receive the raw column values including
// NaN sentinels and must return NaN when the statistic is undefined.
type Reducer func(samples []float64) float64

// Agg names one output column: Src column reduced by Fn.
type Agg struct {
	Out string
	Src string
	Fn  Reducer
}

// Mean is the arithmetic mean of the non-missing samples; NaN if none.
func Mean(samples []float64) float64 {
	s := dropNaN(samples)
	v, err := stats.Mean(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// StdDev is the sample standard deviation (N−1 denominator); NaN for
// fewer than two non-missing samples.
func StdDev(samples []float64) float64 {
	s := dropNaN(samples)
	if len(s) < 2 {
		return math.NaN()
	}
	v, err := stats.StandardDeviationSample(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Count is the number of non-missing samples.
func Count(samples []float64) float64 {
	return float64(len(dropNaN(samples)))
}

// Sum is the total of the non-missing samples; NaN if none.
func Sum(samples []float64) float64 {
	s := dropNaN(samples)
	if len(s) == 0 {
		return math.NaN()
	}
	v, err := stats.Sum(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// GeoMean is exp(mean(ln(x))) over the samples that are present and
// strictly positive. Throughput and rate metrics are assumed positive; a
// zero or negative sample is a measurement artifact and is excluded
// rather than propagated. NaN if no eligible samples remain.
func GeoMean(samples []float64) float64 {
	var s []float64
	for _, v := range samples {
		if !math.IsNaN(v) && v > 0 {
			s = append(s, v)
		}
	}
	if len(s) == 0 {
		return math.NaN()
	}
	v, err := stats.GeometricMean(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// GeoMeanDelta aggregates per-sample relative changes x as
// exp(mean(ln(1+x)))−1. Missing samples are dropped, but negative changes
// are legitimate and kept. Any sample with 1+x ≤ 0 (a change of −100% or
// worse) would make the logarithm invalid, so the whole group is
// undefined (NaN) rather than a crash or a partial answer.
func GeoMeanDelta(samples []float64) float64 {
	var shifted []float64
	for _, v := range samples {
		if math.IsNaN(v) {
			continue
		}
		if 1+v <= 0 {
			return math.NaN()
		}
		shifted = append(shifted, 1+v)
	}
	if len(shifted) == 0 {
		return math.NaN()
	}
	gm, err := stats.GeometricMean(shifted)
	if err != nil {
		return math.NaN()
	}
	return gm - 1
}

// Percentile returns a reducer for the p-th percentile (0–100) of the
// non-missing samples.
func Percentile(p float64) Reducer {
	return func(samples []float64) float64 {
		s := dropNaN(samples)
		v, err := stats.Percentile(s, p)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

func dropNaN(samples []float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Aggregate partitions rows by equality of the group-key tuple and
// reduces each partition to one output row. The result holds the group
// key columns followed by one column per Agg, sorted ascending by the
// key tuple for reproducible report output.
func (t *Table) Aggregate(groupKeys []string, aggs []Agg) *Table {
	groups := make(map[string][]int)
	var order []string
	for row := 0; row < t.Len(); row++ {
		k := keyOf(t, groupKeys, row)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}

	outNames := append([]string(nil), groupKeys...)
	for _, a := range aggs {
		outNames = append(outNames, a.Out)
	}
	out := New(outNames...)

	for _, k := range order {
		rows := groups[k]
		cells := make([]string, 0, len(outNames))
		for _, gk := range groupKeys {
			cells = append(cells, t.String(gk, rows[0]))
		}
		for _, a := range aggs {
			samples := make([]float64, len(rows))
			for i, r := range rows {
				samples[i] = t.Float(a.Src, r)
			}
			cells = append(cells, formatFloat(a.Fn(samples)))
		}
		out.AppendRow(cells)
	}

	out.Sort(groupKeys...)
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
