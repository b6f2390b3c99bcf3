package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perfkit/benchreport/internal/report"
	"github.com/perfkit/benchreport/internal/simd"
	"github.com/perfkit/benchreport/internal/table"
)

var simdCmd = &cobra.Command{
	Use:   "simd",
	Short: "SIMD kernel reports from the timing harness CSVs",
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Aligned vs misaligned performance change",
	Run:   runAlign,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Tail-processing (N not a lane multiple) performance change",
	Run:   runTail,
}

var dtypeCmd = &cobra.Command{
	Use:   "dtype",
	Short: "Scalar vs SIMD speedup by dtype and memory region",
	Run:   runDtype,
}

var strideCmd = &cobra.Command{
	Use:   "stride",
	Short: "Throughput across stride levels, absolute and relative",
	Run:   runStride,
}

var rooflineCmd = &cobra.Command{
	Use:   "roofline",
	Short: "Roofline placement and bottleneck classification",
	Run:   runRoofline,
}

var speedupCmd = &cobra.Command{
	Use:   "speedup",
	Short: "Speedup and GFLOP/s curves vs N with error bounds",
	Run:   runSpeedup,
}

func init() {
	for _, c := range []*cobra.Command{alignCmd, tailCmd, strideCmd, rooflineCmd} {
		c.Flags().String("input", "data/simd.csv", "Kernel timing CSV (vectorized runs)")
	}
	for _, c := range []*cobra.Command{dtypeCmd, speedupCmd} {
		c.Flags().String("simd", "data/simd.csv", "Vectorized kernel timing CSV")
		c.Flags().String("scalar", "data/scalar.csv", "Scalar kernel timing CSV")
	}
	for _, c := range []*cobra.Command{tailCmd, rooflineCmd, speedupCmd} {
		c.Flags().Float64("mhz", 0, "CPU clock in MHz")
		c.Flags().Int("f32-lanes", 0, "f32 vector lanes")
		c.Flags().Int("f64-lanes", 0, "f64 vector lanes")
	}
	rooflineCmd.Flags().Float64("bmem", 0, "Memory bandwidth GiB/s (default: estimated from the CSV)")
	rooflineCmd.Flags().Float64("peak-gflops", 0, "Peak GFLOP/s (default: estimated from small-N samples)")

	simdCmd.AddCommand(alignCmd, tailCmd, dtypeCmd, strideCmd, rooflineCmd, speedupCmd)
	rootCmd.AddCommand(simdCmd)
}

func loadInput(cmd *cobra.Command, flag string) *table.Table {
	path, _ := cmd.Flags().GetString(flag)
	t, err := simd.Load(path)
	if err != nil {
		fatalf("%v", err)
	}
	return t
}

func writeReport(doc *report.Document, path string) {
	if err := report.WriteMarkdown(doc, path); err != nil {
		fatalf("%v", err)
	}
}

func runAlign(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := simd.BuildAlign(loadInput(cmd, "input"))
	if err != nil {
		fatalf("failed to build alignment report: %v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(), filepath.Join(dir, "align_summary.md"))
}

func runTail(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	r, err := simd.BuildTail(loadInput(cmd, "input"), machine)
	if err != nil {
		fatalf("failed to build tail report: %v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(), filepath.Join(dir, "tail_summary.md"))
}

func runDtype(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	r, err := simd.BuildDtype(loadInput(cmd, "scalar"), loadInput(cmd, "simd"), machine)
	if err != nil {
		fatalf("failed to build dtype report: %v", err)
	}
	if err := r.WriteCSV(filepath.Join(dir, "dtype_summary.csv")); err != nil {
		fatalf("%v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "dtype_summary.md"))
}

func runStride(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	r, err := simd.BuildStride(loadInput(cmd, "input"))
	if err != nil {
		fatalf("failed to build stride report: %v", err)
	}
	for path, t := range map[string]*table.Table{
		filepath.Join(dir, "stride_abs.csv"):     r.Abs,
		filepath.Join(dir, "stride_rel.csv"):     r.Rel,
		filepath.Join(dir, "stride_plotset.csv"): r.Plotset,
	} {
		if err := report.ExportCSV(t, path); err != nil {
			fatalf("%v", err)
		}
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(), filepath.Join(dir, "stride_summary.md"))
}

func runRoofline(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	r, err := simd.BuildRoofline(loadInput(cmd, "input"), machine)
	if err != nil {
		fatalf("failed to build roofline report: %v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Roofline parameters: P_peak=%.2f GFLOP/s, B_mem=%.2f GiB/s\n",
		r.PeakGFLOPS, r.BMemGiBps)
	writeReport(r.Document(""), filepath.Join(dir, "roofline.md"))
}

func runSpeedup(cmd *cobra.Command, args []string) {
	dir := outputDir(cmd)
	machine := machineFromFlags(cmd)
	r, err := simd.BuildSpeedup(loadInput(cmd, "scalar"), loadInput(cmd, "simd"), machine)
	if err != nil {
		fatalf("failed to build speedup report: %v", err)
	}
	if _, err := r.WriteCharts(dir); err != nil {
		fatalf("%v", err)
	}
	writeReport(r.Document(""), filepath.Join(dir, "speedup_summary.md"))
}
