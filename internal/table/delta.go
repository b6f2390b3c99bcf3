package table

import (
	"math"
	"strconv"
)

// DeltaSpec configures the comparative delta engine.
type DeltaSpec struct {
	// PairKeys identify one raw sample; baseline and treatment rows with
	// equal pair-key tuples are compared point for point.
	PairKeys []string

	// GroupKeys partition the paired samples for aggregation. They are a
	// subset of PairKeys (the key minus the dimension distinguishing
	// baseline from treatment, plus any per-sample dimensions such as
	// problem size that should be averaged over).
	GroupKeys []string

	// Metrics are the numeric columns to compare. For metric m the
	// result carries a column m+"_delta_pct".
	Metrics []string

	// CountCol names the output sample-count column. Defaults to
	// "samples".
	CountCol string
}

// Delta pairs baseline and treatment samples on the full pair-key tuple,
// computes the per-sample relative change (treatment/baseline − 1) for
// each metric, and aggregates per group with the geometric mean of
// relative changes, expressed as a percentage.
//
// A pair whose baseline value is missing or zero contributes an undefined
// (NaN) change, never a division by zero. Keys present on only one side
// are dropped by the inner join; the number of unmatched rows is returned
// so callers can report it.
//
// Several report generators historically disagreed on whether to average
// per-sample ratios or to take the ratio of independently aggregated
// geometric means; those two are not the same when sample counts differ
// per side. This engine applies the per-sample form uniformly.
func Delta(baseline, treatment *Table, spec DeltaSpec) (*Table, int) {
	countCol := spec.CountCol
	if countCol == "" {
		countCol = "samples"
	}

	baseCols := append(append([]string(nil), spec.PairKeys...), spec.Metrics...)
	treatCols := append(append([]string(nil), spec.PairKeys...), spec.Metrics...)
	merged := Join(baseline.Select(baseCols...), treatment.Select(treatCols...),
		spec.PairKeys, "_base", "_treat")
	dropped := baseline.Len() + treatment.Len() - 2*merged.Len()
	if dropped < 0 {
		dropped = 0
	}

	for _, m := range spec.Metrics {
		changes := make([]float64, merged.Len())
		for row := range changes {
			base := merged.Float(m+"_base", row)
			treat := merged.Float(m+"_treat", row)
			if math.IsNaN(base) || base == 0 || math.IsNaN(treat) {
				changes[row] = math.NaN()
				continue
			}
			changes[row] = treat/base - 1
		}
		merged.AddColumn(m+"_change", changes)
	}

	aggs := make([]Agg, 0, len(spec.Metrics)+1)
	for _, m := range spec.Metrics {
		m := m
		aggs = append(aggs, Agg{
			Out: m + "_delta_pct",
			Src: m + "_change",
			Fn: func(samples []float64) float64 {
				return GeoMeanDelta(samples) * 100
			},
		})
	}
	if len(spec.Metrics) > 0 {
		aggs = append(aggs, Agg{Out: countCol, Src: spec.Metrics[0] + "_change", Fn: Count})
	}

	return merged.Aggregate(spec.GroupKeys, aggs), dropped
}

// AppendOverall appends one synthetic summary row: the unweighted
// arithmetic mean of each metric column across all existing rows, the SUM
// of each count column, and the given sentinel values for the key
// columns. Callers must invoke it exactly once per finished table;
// a second call would fold the summary row into its own average.
func (t *Table) AppendOverall(sentinels map[string]string, metricCols, countCols []string) {
	row := make([]string, len(t.names))
	for i, n := range t.names {
		switch {
		case contains(metricCols, n):
			row[i] = formatFloat(Mean(t.Floats(n)))
		case contains(countCols, n):
			row[i] = strconv.FormatFloat(Sum(t.Floats(n)), 'g', -1, 64)
		default:
			if v, ok := sentinels[n]; ok {
				row[i] = v
			} else {
				row[i] = "-"
			}
		}
	}
	t.AppendRow(row)
}

// AddRelChangePct adds a column holding the relative change
// (treat/base − 1) × 100 between two existing columns. A missing or zero
// baseline propagates as missing, never a division by zero.
func (t *Table) AddRelChangePct(out, treatCol, baseCol string) {
	changes := make([]float64, t.Len())
	for row := range changes {
		base := t.Float(baseCol, row)
		treat := t.Float(treatCol, row)
		if math.IsNaN(base) || base == 0 || math.IsNaN(treat) {
			changes[row] = math.NaN()
			continue
		}
		changes[row] = (treat/base - 1) * 100
	}
	t.AddColumn(out, changes)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
