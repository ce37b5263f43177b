package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds every tunable of an agent. Durations are milliseconds.
type Config struct {
	TimeLimitMs              int64    `json:"time_limit_ms"`
	SafetyMarginMs           int64    `json:"safety_margin_ms"`
	MinSliceMs               int64    `json:"min_slice_ms"`
	IncreaseHeadroomMs       int64    `json:"increase_headroom_ms"`
	DecreaseHeadroomMs       int64    `json:"decrease_headroom_ms"`
	InitialSamples           int      `json:"initial_samples"`
	MinSamples               int      `json:"min_samples"`
	MaxSamples               int      `json:"max_samples"`
	InitialRadius            int      `json:"initial_radius"`
	MaxRadius                int      `json:"max_radius"`
	MaximizerStrategies      []string `json:"maximizer_strategies"`
	MinimizerStrategies      []string `json:"minimizer_strategies"`
	AngleMaximizerStrategies []string `json:"angle_maximizer_strategies"`
	AngleMinimizerStrategies []string `json:"angle_minimizer_strategies"`
	Deterministic            bool     `json:"deterministic"`
	Seed                     uint64   `json:"seed"`
	LogLevel                 string   `json:"log_level"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		TimeLimitMs:              300000,
		SafetyMarginMs:           50000,
		MinSliceMs:               5,
		IncreaseHeadroomMs:       1000,
		DecreaseHeadroomMs:       100,
		InitialSamples:           10,
		MinSamples:               1,
		MaxSamples:               200,
		InitialRadius:            1,
		MaxRadius:                64,
		MaximizerStrategies:      []string{"vertex-on-edge", "dense-region", "diagonal-crossing-angle", "point-reflection", "random-sample"},
		MinimizerStrategies:      []string{"sparse-region", "neighbour-nearby", "border", "random-sample"},
		AngleMaximizerStrategies: []string{"point-reflection", "border-reflection", "diagonal-crossing-angle", "random-sample"},
		AngleMinimizerStrategies: []string{"grid-angle", "neighbour-nearby", "random-sample"},
		LogLevel:                 "info",
	}
}

// StrategyNames returns the configured strategy list for a role and
// objective
func (c Config) StrategyNames(maximizer, angles bool) []string {
	switch {
	case maximizer && angles:
		return c.AngleMaximizerStrategies
	case angles:
		return c.AngleMinimizerStrategies
	case maximizer:
		return c.MaximizerStrategies
	default:
		return c.MinimizerStrategies
	}
}

// Load overlays a JSON file onto the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the budget tracker cannot work with
func (c Config) Validate() error {
	var errs []error
	if c.TimeLimitMs <= 0 {
		errs = append(errs, errors.New("time_limit_ms must be positive"))
	}
	if c.SafetyMarginMs < 0 || c.SafetyMarginMs >= c.TimeLimitMs {
		errs = append(errs, errors.New("safety_margin_ms must be in [0, time_limit_ms)"))
	}
	if c.MinSliceMs <= 0 {
		errs = append(errs, errors.New("min_slice_ms must be positive"))
	}
	if c.DecreaseHeadroomMs > c.IncreaseHeadroomMs {
		errs = append(errs, errors.New("decrease_headroom_ms must not exceed increase_headroom_ms"))
	}
	if c.MinSamples < 1 || c.MaxSamples < c.MinSamples {
		errs = append(errs, errors.New("samples bounds must satisfy 1 <= min_samples <= max_samples"))
	}
	if c.InitialRadius < 1 || c.MaxRadius < c.InitialRadius {
		errs = append(errs, errors.New("radius bounds must satisfy 1 <= initial_radius <= max_radius"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the configured log level, falling back to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func (c Config) TimeLimit() time.Duration    { return ms(c.TimeLimitMs) }
func (c Config) SafetyMargin() time.Duration { return ms(c.SafetyMarginMs) }
func (c Config) MinSlice() time.Duration     { return ms(c.MinSliceMs) }

func (c Config) IncreaseHeadroom() time.Duration { return ms(c.IncreaseHeadroomMs) }
func (c Config) DecreaseHeadroom() time.Duration { return ms(c.DecreaseHeadroomMs) }

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
