package config

import (
	"github.com/spf13/viper"
)

// pprof endpoints on the monitoring server
type Profiler struct {
	Enabled bool

	// Passed to runtime.SetBlockProfileRate, 0 leaves it untouched
	BlockProfileRate int

	// Passed to runtime.SetMutexProfileFraction, 0 leaves it untouched
	MutexProfileFraction int
}

func setProfilerDefaults() {
	viper.SetDefault("Profiler.Enabled", "false")
	viper.SetDefault("Profiler.BlockProfileRate", "0")
	viper.SetDefault("Profiler.MutexProfileFraction", "0")
}
