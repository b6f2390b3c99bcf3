package memlat

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func close6(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func TestParseMLCHeaderTable(t *testing.T) {
	raw := strings.Join([]string{
		"Intel(R) Memory Latency Checker - v3.9",
		"Measuring loaded latencies...",
		"",
		"Bandwidth (GB/s)   Latency (ns)",
		"40.55  341.71",
		"37.21  148.19",
		"",
		"trailer row 99 100",
	}, "\n")

	pairs, err := ParseMLC(raw)
	if err != nil {
		t.Fatalf("ParseMLC: %v", err)
	}
	// The blank line after the data rows ends the table; the trailer
	// numbers must not leak in.
	if len(pairs) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(pairs))
	}
	if !close6(pairs[0].BWGBs, 40.55) || !close6(pairs[0].LatencyNs, 341.71) {
		t.Errorf("pair 0 = %+v", pairs[0])
	}
}

func TestParseMLCHeaderUnits(t *testing.T) {
	raw := strings.Join([]string{
		"Bandwidth (MB/s)  Latency (ns)",
		"40551.6  341.71",
		"37213.1  148.19",
		"",
	}, "\n")

	pairs, err := ParseMLC(raw)
	if err != nil {
		t.Fatalf("ParseMLC: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(pairs))
	}
	if !close6(pairs[0].BWGBs, 40.5516) {
		t.Errorf("MB/s not converted to GB/s: %v", pairs[0].BWGBs)
	}
	if !close6(pairs[0].LatencyNs, 341.71) {
		t.Errorf("latency = %v, want 341.71", pairs[0].LatencyNs)
	}
}

func TestParseMLCInlinePairs(t *testing.T) {
	raw := strings.Join([]string{
		"delay 0: 40.5 GB/s at 341.71 ns",
		"delay 2: 37.2 GB/s at 0.148 us",
	}, "\n")

	pairs, err := ParseMLC(raw)
	if err != nil {
		t.Fatalf("ParseMLC: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(pairs))
	}
	if !close6(pairs[0].BWGBs, 40.5) || !close6(pairs[0].LatencyNs, 341.71) {
		t.Errorf("pair 0 = %+v", pairs[0])
	}
	if !close6(pairs[1].LatencyNs, 148) {
		t.Errorf("us not converted to ns: %v", pairs[1].LatencyNs)
	}
}

func TestParseMLCCrossLine(t *testing.T) {
	raw := strings.Join([]string{
		"bandwidth: 40.5 GB/s",
		"some unrelated output",
		"latency: 341.71 ns",
		"bandwidth: 2000 MB/s",
		"latency: 2 ms",
	}, "\n")

	pairs, err := ParseMLC(raw)
	if err != nil {
		t.Fatalf("ParseMLC: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("parsed %d pairs, want 2", len(pairs))
	}
	if !close6(pairs[0].BWGBs, 40.5) || !close6(pairs[0].LatencyNs, 341.71) {
		t.Errorf("pair 0 = %+v", pairs[0])
	}
	if !close6(pairs[1].BWGBs, 2) {
		t.Errorf("MB/s not converted: %v", pairs[1].BWGBs)
	}
	if !close6(pairs[1].LatencyNs, 2e6) {
		t.Errorf("ms not converted to ns: %v", pairs[1].LatencyNs)
	}
}

func TestParseMLCCarriageReturns(t *testing.T) {
	raw := "progress...\r12.5 GB/s at 100 ns\rdone"
	pairs, err := ParseMLC(raw)
	if err != nil {
		t.Fatalf("ParseMLC: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("parsed %d pairs, want 1", len(pairs))
	}
}

func TestParseMLCNoPairs(t *testing.T) {
	if _, err := ParseMLC("nothing numeric here"); err == nil {
		t.Error("expected an error for output without pairs")
	}
}

func TestAppendMLCSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loaded_raw.csv")
	pairs := []BWLat{{BWGBs: 40.5, LatencyNs: 341.71}}

	if err := AppendMLCSamples(path, 1, pairs); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := AppendMLCSamples(path, 2, pairs); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), data)
	}
	if lines[0] != "rep,bandwidth_gbs,latency_ns" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "rep,") != 1 {
		t.Error("header written more than once")
	}
	if !strings.HasPrefix(lines[2], "2,") {
		t.Errorf("second append row = %q, want rep 2", lines[2])
	}
}
