package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tyon-geoscience/tyon/internal/formation"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
analysis:
  mode: hydrocarbon
  window_size: 15

zones:
  threshold_mode: absolute
  threshold: 0.25
  max_zones: 5

drilling:
  default_clay_content: 0.2

storage:
  dsn: "./data/runs.db"
  max_runs: 50

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true
  retry_delay_base: 2s

logging:
  level: "debug"
  format: "json"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Analysis.Mode != "hydrocarbon" {
		t.Errorf("Unexpected mode: %s", cfg.Analysis.Mode)
	}
	if cfg.Analysis.WindowSize != 15 {
		t.Errorf("Unexpected window size: %d", cfg.Analysis.WindowSize)
	}
	if cfg.Zones.Threshold != 0.25 {
		t.Errorf("Unexpected threshold: %f", cfg.Zones.Threshold)
	}
	if cfg.Telegram.RetryDelayBase != 2*time.Second {
		t.Errorf("Unexpected retry delay: %v", cfg.Telegram.RetryDelayBase)
	}
	// Unset keys keep their defaults
	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.Telegram.MaxRetries)
	}

	opts := cfg.ZoneOptions()
	if opts.ThresholdMode != formation.ThresholdAbsolute || opts.MaxZones != 5 {
		t.Errorf("Unexpected zone options: %+v", opts)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", path, err)
		}
		if cfg.Analysis.Mode != "groundwater" || cfg.Analysis.WindowSize != formation.DefaultWindowSize {
			t.Errorf("Unexpected analysis defaults: %+v", cfg.Analysis)
		}
		if cfg.Storage.DSN != ":memory:" {
			t.Errorf("Unexpected storage DSN: %s", cfg.Storage.DSN)
		}
		if cfg.Drilling.DefaultClayContent != 0.3 {
			t.Errorf("Unexpected clay default: %f", cfg.Drilling.DefaultClayContent)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TYON_ANALYSIS_MODE", "geothermal")
	t.Setenv("TYON_ANALYSIS_WINDOW_SIZE", "20")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Mode != "geothermal" {
		t.Errorf("Expected env mode override, got %s", cfg.Analysis.Mode)
	}
	if cfg.Analysis.WindowSize != 20 {
		t.Errorf("Expected env window override, got %d", cfg.Analysis.WindowSize)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("analysis: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed config file")
	}
}

func validConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{Mode: "groundwater", WindowSize: 10},
		Zones:    ZonesConfig{ThresholdMode: "mean"},
		Drilling: DrillingConfig{DefaultClayContent: 0.3},
		Storage:  StorageConfig{DSN: ":memory:", MaxRuns: 10},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown mode", func(c *Config) { c.Analysis.Mode = "lunar" }},
		{"zero window", func(c *Config) { c.Analysis.WindowSize = 0 }},
		{"bad threshold mode", func(c *Config) { c.Zones.ThresholdMode = "median" }},
		{"negative separation", func(c *Config) { c.Zones.MinSeparation = -1 }},
		{"negative max zones", func(c *Config) { c.Zones.MaxZones = -1 }},
		{"clay above one", func(c *Config) { c.Drilling.DefaultClayContent = 1.5 }},
		{"negative ridge", func(c *Config) { c.Drilling.Ridge = -0.1 }},
		{"no runs kept", func(c *Config) { c.Storage.MaxRuns = 0 }},
		{"missing telegram token when enabled", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"}
		}},
		{"missing telegram chat when enabled", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t"}
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error")
			}
		})
	}
}
