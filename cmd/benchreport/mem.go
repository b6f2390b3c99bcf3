package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/perfkit/benchreport/internal/memlat"
)

var memCmd = &cobra.Command{
	Use:   "mem",
	Short: "Cache and memory-hierarchy reports from the per-section CSVs",
}

var zeroqCmd = &cobra.Command{
	Use:   "zeroq",
	Short: "Zero-queue latency baseline by level and direction",
	Run:   runZeroQ,
}

var memStrideCmd = &cobra.Command{
	Use:   "stride",
	Short: "Latency and bandwidth vs access stride",
	Run:   runMemStride,
}

var rwmixCmd = &cobra.Command{
	Use:   "rwmix",
	Short: "Bandwidth vs read/write mix",
	Run:   runRWMix,
}

var loadedCmd = &cobra.Command{
	Use:   "loaded",
	Short: "Loaded-latency curve with knee detection",
	Run:   runLoaded,
}

var wssCmd = &cobra.Command{
	Use:   "wss",
	Short: "Latency vs working-set size",
	Run:   runWSS,
}

var cachemissCmd = &cobra.Command{
	Use:   "cachemiss",
	Short: "Cache-miss impact on SAXPY runtime",
	Run:   runCacheMiss,
}

var tlbCmd = &cobra.Command{
	Use:   "tlb",
	Short: "dTLB miss impact with THP on/off",
	Run:   runTLB,
}

var parseMLCCmd = &cobra.Command{
	Use:   "parse-mlc",
	Short: "Extract (throughput, latency) pairs from raw MLC output",
	Long: `Parse raw Intel MLC loaded-latency output and append rep-tagged
(bandwidth_gbs, latency_ns) rows to the loaded-latency CSV consumed by
'benchreport mem loaded'.`,
	Run: runParseMLC,
}

func init() {
	for _, c := range []*cobra.Command{zeroqCmd, memStrideCmd, rwmixCmd, loadedCmd, wssCmd, cachemissCmd, tlbCmd} {
		c.Flags().String("input", "", "Section CSV (required)")
		c.MarkFlagRequired("input")
	}
	zeroqCmd.Flags().Float64("mhz", 0, "CPU clock in MHz")
	wssCmd.Flags().Float64("mhz", 0, "CPU clock in MHz")

	parseMLCCmd.Flags().String("raw", "", "Raw MLC output file (required)")
	parseMLCCmd.Flags().Int("rep", 0, "Repeat index to tag the parsed rows with")
	parseMLCCmd.Flags().String("out", "loaded_raw.csv", "CSV to append parsed rows to")
	parseMLCCmd.MarkFlagRequired("raw")

	memCmd.AddCommand(zeroqCmd, memStrideCmd, rwmixCmd, loadedCmd, wssCmd, cachemissCmd, tlbCmd, parseMLCCmd)
	rootCmd.AddCommand(memCmd)
}

func inputFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("input")
	return path
}

func runZeroQ(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	input := inputFlag(cmd)
	r, err := memlat.BuildZeroQ(input, machine)
	if err != nil {
		fatalf("%v", err)
	}
	nsCSV := strings.TrimSuffix(input, ".csv") + "_ns.csv"
	if err := r.WriteSamplesCSV(filepath.Join(dir, filepath.Base(nsCSV))); err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteChart(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_2_zero_queue.md"))
}

func runMemStride(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := memlat.BuildStrideSweep(inputFlag(cmd))
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_3_pattern_stride.md"))
}

func runRWMix(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := memlat.BuildRWMix(inputFlag(cmd))
	if err != nil {
		fatalf("%v", err)
	}
	if err := r.WriteSummaryCSV(filepath.Join(dir, "rwmix_summary.csv")); err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteChart(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_4_rwmix.md"))
}

func runLoaded(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := memlat.BuildLoaded(inputFlag(cmd))
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteChart(dir); err != nil {
		fatalf("%v", err)
	}
	if r.Knee != nil {
		fmt.Printf("Knee: BW=%.2f GB/s, latency=%.1f ns\n", r.Knee.BWGBs, r.Knee.LatencyNs)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_5_loaded_latency.md"))
}

func runWSS(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	r, err := memlat.BuildWSS(inputFlag(cmd), machine)
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteChart(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_6_wss.md"))
}

func runCacheMiss(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := memlat.BuildCacheMiss(inputFlag(cmd))
	if err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_7_cache_miss.md"))
}

func runTLB(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := memlat.BuildTLB(inputFlag(cmd))
	if err != nil {
		fatalf("%v", err)
	}
	if err := r.WriteSummaryCSV(filepath.Join(dir, "tlb_agg.csv")); err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "section_8_tlb.md"))
}

func runParseMLC(cmd *cobra.Command, args []string) {
	rawPath, _ := cmd.Flags().GetString("raw")
	rep, _ := cmd.Flags().GetInt("rep")
	out, _ := cmd.Flags().GetString("out")

	raw, err := os.ReadFile(rawPath)
	if err != nil {
		fatalf("failed to read MLC output: %v", err)
	}
	pairs, err := memlat.ParseMLC(string(raw))
	if err != nil {
		preview := raw
		if len(preview) > 2048 {
			preview = preview[:2048]
		}
		fmt.Fprintf(os.Stderr, "=== MLC output preview ===\n%s\n==========================\n", preview)
		fatalf("%v", err)
	}
	if err := memlat.AppendMLCSamples(out, rep, pairs); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Parsed %d pairs into %s\n", len(pairs), out)
}
