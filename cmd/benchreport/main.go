package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perfkit/benchreport/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "benchreport",
	Short: "Generate Markdown reports and charts from benchmark CSVs",
	Long: `benchreport turns raw benchmark CSVs into summary statistics,
Markdown tables, and chart images.

Two report families are available:

  simd   SIMD kernel reports (alignment, tail, dtype, stride,
         roofline, speedup) from the kernel timing harness CSVs
  mem    cache and memory-hierarchy reports (zero-queue latency,
         stride and read/write sweeps, loaded latency, working-set
         size, cache misses, TLB) from the per-section CSVs

Machine parameters (clock, vector lanes, cache sizes, roofline
overrides) come from benchreport.yaml when present, overridable
per run with flags.
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Machine parameter file (default: ./benchreport.yaml)")
	rootCmd.PersistentFlags().String("output-dir", "reports", "Directory for generated reports and charts")
}

// fatalf prints a clear message and terminates the run.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// machineFromFlags loads the configured machine parameters and applies
// any numeric overrides set on this command.
func machineFromFlags(cmd *cobra.Command) config.Machine {
	path, _ := cmd.Flags().GetString("config")
	machine, err := config.Load(path)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	if f := cmd.Flags().Lookup("mhz"); f != nil && f.Changed {
		machine.ClockMHz, _ = cmd.Flags().GetFloat64("mhz")
	}
	if f := cmd.Flags().Lookup("f32-lanes"); f != nil && f.Changed {
		machine.F32Lanes, _ = cmd.Flags().GetInt("f32-lanes")
	}
	if f := cmd.Flags().Lookup("f64-lanes"); f != nil && f.Changed {
		machine.F64Lanes, _ = cmd.Flags().GetInt("f64-lanes")
	}
	if f := cmd.Flags().Lookup("bmem"); f != nil && f.Changed {
		machine.BMemGiBps, _ = cmd.Flags().GetFloat64("bmem")
	}
	if f := cmd.Flags().Lookup("peak-gflops"); f != nil && f.Changed {
		machine.PeakGFLOPS, _ = cmd.Flags().GetFloat64("peak-gflops")
	}
	return machine
}

// outputDir resolves and creates the report output directory.
func outputDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("output-dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		fatalf("failed to create output directory %s: %v", dir, err)
	}
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
