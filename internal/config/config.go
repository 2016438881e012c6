package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tyon-geoscience/tyon/internal/formation"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Zones    ZonesConfig    `mapstructure:"zones"`
	Drilling DrillingConfig `mapstructure:"drilling"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds the windowed feature extraction settings
type AnalysisConfig struct {
	Mode       string `mapstructure:"mode"`
	WindowSize int    `mapstructure:"window_size"`
}

// ZonesConfig holds target zone selection settings
type ZonesConfig struct {
	ThresholdMode string  `mapstructure:"threshold_mode"`
	Threshold     float64 `mapstructure:"threshold"`
	MinSeparation float64 `mapstructure:"min_separation"`
	MaxZones      int     `mapstructure:"max_zones"`
}

// DrillingConfig holds drilling-rate prediction settings
type DrillingConfig struct {
	DefaultClayContent float64 `mapstructure:"default_clay_content"`
	Ridge              float64 `mapstructure:"ridge"`
}

// StorageConfig holds run history settings
type StorageConfig struct {
	DSN     string `mapstructure:"dsn"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path, or a path that does not exist, leaves the defaults in place.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// TYON_ANALYSIS_MODE overrides analysis.mode
	v.SetEnvPrefix("TYON")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.mode", string(formation.Groundwater))
	v.SetDefault("analysis.window_size", formation.DefaultWindowSize)

	// Zone defaults
	v.SetDefault("zones.threshold_mode", string(formation.ThresholdMean))
	v.SetDefault("zones.threshold", 0.0)
	v.SetDefault("zones.min_separation", 0.0)
	v.SetDefault("zones.max_zones", 0)

	// Drilling defaults
	v.SetDefault("drilling.default_clay_content", 0.3)
	v.SetDefault("drilling.ridge", 0.0)

	// Storage defaults
	v.SetDefault("storage.dsn", ":memory:")
	v.SetDefault("storage.max_runs", 100)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Analysis config
	if _, err := formation.ParseMode(c.Analysis.Mode); err != nil {
		return fmt.Errorf("analysis.mode: %w", err)
	}
	if c.Analysis.WindowSize < 1 {
		return fmt.Errorf("analysis.window_size must be at least 1")
	}

	// Validate Zones config
	switch formation.ThresholdMode(c.Zones.ThresholdMode) {
	case formation.ThresholdMean, formation.ThresholdAbsolute:
	default:
		return fmt.Errorf("zones.threshold_mode must be one of: mean, absolute")
	}
	if c.Zones.MinSeparation < 0 {
		return fmt.Errorf("zones.min_separation must not be negative")
	}
	if c.Zones.MaxZones < 0 {
		return fmt.Errorf("zones.max_zones must not be negative")
	}

	// Validate Drilling config
	if c.Drilling.DefaultClayContent < 0 || c.Drilling.DefaultClayContent > 1 {
		return fmt.Errorf("drilling.default_clay_content must be between 0.0 and 1.0")
	}
	if c.Drilling.Ridge < 0 {
		return fmt.Errorf("drilling.ridge must not be negative")
	}

	// Validate Storage config
	if c.Storage.MaxRuns < 1 {
		return fmt.Errorf("storage.max_runs must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ZoneOptions converts the zones section into detector options
func (c *Config) ZoneOptions() formation.ZoneOptions {
	return formation.ZoneOptions{
		ThresholdMode: formation.ThresholdMode(c.Zones.ThresholdMode),
		Threshold:     c.Zones.Threshold,
		MinSeparation: c.Zones.MinSeparation,
		MaxZones:      c.Zones.MaxZones,
	}
}
