package memlat

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// BWLat is one (throughput, latency) sample parsed from raw Intel MLC
// loaded-latency output, normalized to GB/s and nanoseconds.
type BWLat struct {
	BWGBs     float64
	LatencyNs float64
}

var (
	reBandwidth = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(GB/s|GB/sec|GBps|MB/s|MB/sec|MBps)`)
	reLatency   = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(ns|us|usec|ms|msec)`)
	reNumber    = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
)

func toGBs(val string, unit string, assumeMB bool) float64 {
	v, _ := strconv.ParseFloat(val, 64)
	if unit != "" {
		if strings.HasPrefix(strings.ToLower(unit), "mb") {
			return v / 1000
		}
		return v
	}
	if assumeMB {
		return v / 1000
	}
	return v
}

func toNs(val string, unit string) float64 {
	v, _ := strconv.ParseFloat(val, 64)
	switch strings.ToLower(unit) {
	case "us", "usec":
		return v * 1e3
	case "ms", "msec":
		return v * 1e6
	default:
		return v
	}
}

// ParseMLC extracts (throughput, latency) pairs from raw MLC output. MLC
// formats vary across versions, so three strategies run in order:
//
//  1. a header line naming both Bandwidth and Latency, units in the
//     header, followed by bare numeric rows;
//  2. lines carrying both a bandwidth and a latency value with inline
//     units;
//  3. cross-line pairing, matching each bandwidth line with the nearest
//     following latency line.
//
// MLC writes carriage returns for live progress, so CRs are treated as
// line breaks before splitting.
func ParseMLC(raw string) ([]BWLat, error) {
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.ReplaceAll(raw, "\t", "    ")
	lines := strings.Split(raw, "\n")

	pairs := parseHeaderTable(lines)
	if len(pairs) == 0 {
		pairs = parseInlinePairs(lines)
	}
	if len(pairs) == 0 {
		pairs = parseCrossLine(lines)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no (throughput, latency) pairs parsed from MLC output")
	}
	return pairs, nil
}

func parseHeaderTable(lines []string) []BWLat {
	hdrIdx := -1
	var hdr string
	for i, ln := range lines {
		low := strings.ToLower(ln)
		if strings.Contains(low, "bandwidth") && strings.Contains(low, "latency") {
			hdrIdx, hdr = i, low
			break
		}
	}
	if hdrIdx < 0 {
		return nil
	}

	bwIsMB := strings.Contains(hdr, "mb/s") || strings.Contains(hdr, "mbps")
	var pairs []BWLat
	for _, ln := range lines[hdrIdx+1:] {
		if strings.TrimSpace(ln) == "" {
			if len(pairs) > 0 {
				break
			}
			continue
		}
		nums := reNumber.FindAllString(ln, -1)
		if len(nums) < 2 {
			if len(pairs) > 0 {
				break
			}
			continue
		}
		pairs = append(pairs, BWLat{
			BWGBs:     toGBs(nums[0], "", bwIsMB),
			LatencyNs: toNs(nums[1], ""),
		})
	}
	return pairs
}

func parseInlinePairs(lines []string) []BWLat {
	var pairs []BWLat
	for _, ln := range lines {
		bw := reBandwidth.FindStringSubmatch(ln)
		lat := reLatency.FindStringSubmatch(ln)
		if bw != nil && lat != nil {
			pairs = append(pairs, BWLat{
				BWGBs:     toGBs(bw[1], bw[2], false),
				LatencyNs: toNs(lat[1], lat[2]),
			})
		}
	}
	return pairs
}

func parseCrossLine(lines []string) []BWLat {
	var pairs []BWLat
	pendingBW := 0.0
	pending := false
	for _, ln := range lines {
		bw := reBandwidth.FindStringSubmatch(ln)
		lat := reLatency.FindStringSubmatch(ln)
		if bw != nil && lat == nil {
			pendingBW = toGBs(bw[1], bw[2], false)
			pending = true
			continue
		}
		if lat != nil && pending {
			pairs = append(pairs, BWLat{
				BWGBs:     pendingBW,
				LatencyNs: toNs(lat[1], lat[2]),
			})
			pending = false
		}
	}
	return pairs
}

// AppendMLCSamples appends rep-tagged pairs to the raw loaded-latency
// CSV, creating it with a header when absent.
func AppendMLCSamples(path string, rep int, pairs []BWLat) error {
	_, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write([]string{"rep", "bandwidth_gbs", "latency_ns"}); err != nil {
			return err
		}
	}
	for _, p := range pairs {
		row := []string{
			strconv.Itoa(rep),
			strconv.FormatFloat(p.BWGBs, 'f', 6, 64),
			strconv.FormatFloat(p.LatencyNs, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
