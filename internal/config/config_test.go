package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	body := `{"time_limit_ms": 60000, "safety_margin_ms": 5000, "minimizer_strategies": ["random-sample"], "log_level": "debug"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.TimeLimit() != time.Minute || cfg.SafetyMargin() != 5*time.Second {
		t.Fatalf("expected overridden durations, got %s and %s", cfg.TimeLimit(), cfg.SafetyMargin())
	}
	if cfg.InitialSamples != Default().InitialSamples {
		t.Fatalf("expected untouched keys to keep defaults")
	}
	if len(cfg.MinimizerStrategies) != 1 || cfg.MinimizerStrategies[0] != "random-sample" {
		t.Fatalf("expected minimizer strategies override, got %v", cfg.MinimizerStrategies)
	}
}

func TestStrategyNamesPerRoleAndObjective(t *testing.T) {
	cfg := Default()
	cfg.AngleMinimizerStrategies = []string{"grid-angle"}
	if got := cfg.StrategyNames(false, true); len(got) != 1 || got[0] != "grid-angle" {
		t.Fatalf("expected the angle minimizer list, got %v", got)
	}
	if got := cfg.StrategyNames(true, false); got[0] != cfg.MaximizerStrategies[0] {
		t.Fatalf("expected the crossing maximizer list, got %v", got)
	}
	if got := cfg.StrategyNames(true, true); got[0] != cfg.AngleMaximizerStrategies[0] {
		t.Fatalf("expected the angle maximizer list, got %v", got)
	}
	if got := cfg.StrategyNames(false, false); got[0] != cfg.MinimizerStrategies[0] {
		t.Fatalf("expected the crossing minimizer list, got %v", got)
	}
}

func TestValidateRejectsBadBudget(t *testing.T) {
	cfg := Default()
	cfg.SafetyMarginMs = cfg.TimeLimitMs
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected margin equal to the limit to be rejected")
	}

	cfg = Default()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown log level to be rejected")
	}
}
