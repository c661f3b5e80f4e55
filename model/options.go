package model

// OptimizationOptions carries every tunable named in the external
// interface (spec §6). Zero values are invalid; callers should start from
// DefaultOptions and override.
type OptimizationOptions struct {
	MaxTimeShiftEntryMinutes      int `yaml:"max_time_shift_entry_minutes"`
	MaxTimeShiftExitEarlyMinutes  int `yaml:"max_time_shift_exit_early_minutes"`
	MaxTimeShiftExitLateMinutes   int `yaml:"max_time_shift_exit_late_minutes"`
	MinBufferMinutes              int `yaml:"min_buffer_minutes"`
	CapacityMaxDiff               int `yaml:"capacity_max_diff"`
	ILPTimeLimitSeconds           int `yaml:"ilp_time_limit_seconds"`
	JobTimeLimitSeconds           int `yaml:"job_time_limit_seconds"`
	FallbackSpeedKMH              float64 `yaml:"fallback_speed_kmh"`
	LocalSearchMaxPasses          int `yaml:"local_search_max_passes"`
	RandomSeed                    int64 `yaml:"random_seed"`
}

// DefaultOptions returns the spec §6 default values.
func DefaultOptions() OptimizationOptions {
	return OptimizationOptions{
		MaxTimeShiftEntryMinutes:     5,
		MaxTimeShiftExitEarlyMinutes: 5,
		MaxTimeShiftExitLateMinutes:  10,
		MinBufferMinutes:             5,
		CapacityMaxDiff:              20,
		ILPTimeLimitSeconds:          60,
		JobTimeLimitSeconds:          300,
		FallbackSpeedKMH:             45,
		LocalSearchMaxPasses:         5,
		RandomSeed:                   0,
	}
}

// RouterConfig configures the Router Client.
type RouterConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConnectTimeout int    `yaml:"connect_timeout_seconds"`
	ReadTimeout    int    `yaml:"read_timeout_seconds"`
	CachePath      string `yaml:"cache_path"`
}

// DefaultRouterConfig returns the spec §5/§4.A default timeouts.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		BaseURL:        "http://localhost:5000",
		ConnectTimeout: 3,
		ReadTimeout:    7,
		CachePath:      "",
	}
}
