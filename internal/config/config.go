// Package config loads the machine description every report generator
// shares: clock frequency, SIMD lane widths, cache capacities, and the
// region thresholds that map a problem size N onto the memory hierarchy.
//
// Values come from built-in defaults, overridden by an optional
// benchreport.yaml config file, overridden in turn by command-line flags.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Machine describes the benchmarked host.
type Machine struct {
	// ClockMHz converts measured cycles to nanoseconds (ns = cycles * 1000 / MHz).
	ClockMHz float64 `mapstructure:"clock_mhz"`

	// F32Lanes and F64Lanes are the SIMD vector widths used to decide
	// whether a problem size needs tail processing (AVX2: 8/4, AVX-512: 16/8).
	F32Lanes int `mapstructure:"f32_lanes"`
	F64Lanes int `mapstructure:"f64_lanes"`

	// Cache capacities in bytes, drawn on sweep charts as boundaries.
	L1Bytes int64 `mapstructure:"l1_bytes"`
	L2Bytes int64 `mapstructure:"l2_bytes"`
	L3Bytes int64 `mapstructure:"l3_bytes"`

	// Region thresholds on element count N.
	L1MaxN  float64 `mapstructure:"l1_max_n"`
	L2MaxN  float64 `mapstructure:"l2_max_n"`
	LLCMaxN float64 `mapstructure:"llc_max_n"`

	// Roofline overrides; zero means estimate from the data.
	BMemGiBps  float64 `mapstructure:"bmem_gibps"`
	PeakGFLOPS float64 `mapstructure:"peak_gflops"`
}

// Default returns the built-in machine description.
func Default() Machine {
	return Machine{
		ClockMHz: 3000,
		F32Lanes: 8,
		F64Lanes: 4,
		L1Bytes:  48 * 1024,
		L2Bytes:  2 * 1024 * 1024,
		L3Bytes:  36 * 1024 * 1024,
		L1MaxN:   8192,
		L2MaxN:   131072,
		LLCMaxN:  4194304,
	}
}

// Load reads the machine description, merging the config file at path
// (or a benchreport.yaml in the working directory when path is empty, if
// one exists) over the defaults.
func Load(path string) (Machine, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("clock_mhz", def.ClockMHz)
	v.SetDefault("f32_lanes", def.F32Lanes)
	v.SetDefault("f64_lanes", def.F64Lanes)
	v.SetDefault("l1_bytes", def.L1Bytes)
	v.SetDefault("l2_bytes", def.L2Bytes)
	v.SetDefault("l3_bytes", def.L3Bytes)
	v.SetDefault("l1_max_n", def.L1MaxN)
	v.SetDefault("l2_max_n", def.L2MaxN)
	v.SetDefault("llc_max_n", def.LLCMaxN)
	v.SetDefault("bmem_gibps", def.BMemGiBps)
	v.SetDefault("peak_gflops", def.PeakGFLOPS)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Machine{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("benchreport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Machine{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var m Machine
	if err := v.Unmarshal(&m); err != nil {
		return Machine{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return m, nil
}

// Region maps an element count onto the memory hierarchy level whose
// capacity it fits.
func (m Machine) Region(n float64) string {
	switch {
	case n <= m.L1MaxN:
		return "L1"
	case n <= m.L2MaxN:
		return "L2"
	case n <= m.LLCMaxN:
		return "LLC"
	default:
		return "DRAM"
	}
}

// Lanes returns the vector width for a data type; unknown types use the
// f64 width, the conservative choice.
func (m Machine) Lanes(dtype string) int {
	if dtype == "f32" {
		return m.F32Lanes
	}
	return m.F64Lanes
}

// CyclesToNs converts a cycle count to nanoseconds at the configured clock.
func (m Machine) CyclesToNs(cycles float64) float64 {
	return cycles * 1000.0 / m.ClockMHz
}
