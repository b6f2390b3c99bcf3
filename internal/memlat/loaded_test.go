package memlat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/perfkit/benchreport/internal/table"
)

func TestBuildLoadedBuckets(t *testing.T) {
	path := writeFixture(t, "loaded_raw.csv",
		"rep,bandwidth_gbs,latency_ns\n"+
			"1,0.98,100\n"+
			"2,1.02,110\n"+
			"1,2.01,200\n"+
			"1,,300\n")

	rep, err := BuildLoaded(path)
	if err != nil {
		t.Fatalf("BuildLoaded: %v", err)
	}
	// 0.98 and 1.02 share the 1.00 bucket; the row without a bandwidth
	// is dropped.
	if rep.Summary.Len() != 2 {
		t.Fatalf("Summary has %d buckets, want 2:\n%v", rep.Summary.Len(), rep.Summary.Columns())
	}
	if got := rep.Summary.Float("bw_bucket", 0); got != 1.0 {
		t.Errorf("first bucket = %v, want 1.0", got)
	}
	if got := rep.Summary.Float("lat_mean", 0); got != 105 {
		t.Errorf("bucket mean = %v, want 105", got)
	}
	if got := rep.Summary.Float("samples", 0); got != 2 {
		t.Errorf("bucket samples = %v, want 2", got)
	}
	if rep.Knee != nil {
		t.Errorf("two buckets cannot locate a knee, got %+v", rep.Knee)
	}
}

func TestFindKneeHockeyStick(t *testing.T) {
	summary := table.New("bw_bucket", "lat_mean")
	for i, y := range []float64{100, 100, 100, 100, 300, 900} {
		summary.AppendRow([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%g", y),
		})
	}

	knee := findKnee(summary)
	if knee == nil {
		t.Fatal("no knee found on a hockey-stick curve")
	}
	// Curvature peaks at the last flat bucket before the latency takes
	// off.
	if knee.BWGBs != 3 {
		t.Errorf("knee at BW=%v, want 3", knee.BWGBs)
	}
	if knee.LatencyNs != 100 {
		t.Errorf("knee latency = %v, want 100", knee.LatencyNs)
	}
}

func TestFindKneeTooFewBuckets(t *testing.T) {
	summary := table.New("bw_bucket", "lat_mean")
	summary.AppendRow([]string{"1", "100"})
	summary.AppendRow([]string{"2", "200"})
	if knee := findKnee(summary); knee != nil {
		t.Errorf("expected no knee from two buckets, got %+v", knee)
	}
}

func TestFindKneeNonMonotonicGrid(t *testing.T) {
	summary := table.New("bw_bucket", "lat_mean")
	for _, row := range [][]string{{"1", "100"}, {"1", "110"}, {"2", "200"}} {
		summary.AppendRow(row)
	}
	if knee := findKnee(summary); knee != nil {
		t.Errorf("duplicate buckets must disable knee detection, got %+v", knee)
	}
}

func TestBuildLoadedMissingColumn(t *testing.T) {
	path := writeFixture(t, "loaded_raw.csv", "rep,bandwidth_gbs\n1,0.98\n")
	_, err := BuildLoaded(path)
	if err == nil || !strings.Contains(err.Error(), "latency_ns") {
		t.Errorf("expected a missing latency_ns error, got %v", err)
	}
}

func TestBuildLoadedAllMissing(t *testing.T) {
	path := writeFixture(t, "loaded_raw.csv", "rep,bandwidth_gbs,latency_ns\n1,,\n")
	rep, err := BuildLoaded(path)
	if err != nil {
		t.Fatalf("BuildLoaded: %v", err)
	}
	if rep.Summary.Len() != 0 {
		t.Errorf("Summary has %d rows, want none", rep.Summary.Len())
	}
	if rep.Knee != nil {
		t.Errorf("expected no knee, got %+v", rep.Knee)
	}
}
