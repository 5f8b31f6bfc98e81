// Package config loads and validates status bus configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/statusbus/internal/milestone"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging    LoggingConfig   `mapstructure:"logging"`
	HTTP       HTTPConfig      `mapstructure:"http"`
	Display    DisplayConfig   `mapstructure:"display"`
	Workers    WorkersConfig   `mapstructure:"workers"`
	Milestones []milestone.Row `mapstructure:"milestones"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig controls the observability endpoint.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// DisplayConfig controls the status line renderer.
type DisplayConfig struct {
	IntervalMs     int    `mapstructure:"interval_ms"`
	RunningMessage string `mapstructure:"running_message"`
}

// Interval converts the configured cadence to a duration.
func (d DisplayConfig) Interval() time.Duration {
	return time.Duration(d.IntervalMs) * time.Millisecond
}

// WorkersConfig governs the synthetic demo producers.
type WorkersConfig struct {
	Count  int `mapstructure:"count"`
	Events int `mapstructure:"events"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STATUSBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)
	v.SetDefault("http.port", 9090)
	v.SetDefault("display.interval_ms", 100)
	v.SetDefault("display.running_message", milestone.DefaultRunning)
	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.events", 45)
	v.SetDefault("milestones", []map[string]any{
		{"threshold": 10, "message": "reached {count}"},
		{"threshold": 30, "message": "reached {count}"},
		{"threshold": 40, "message": "reached {count}, wait", "pause_seconds": 2.0},
	})
}

// Validate rejects impossible settings. The milestone table is validated by
// constructing it, so thresholds must be positive and strictly increasing.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Display.IntervalMs <= 0 {
		return fmt.Errorf("display.interval_ms must be positive, got %d", c.Display.IntervalMs)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be positive, got %d", c.Workers.Count)
	}
	if c.Workers.Events <= 0 {
		return fmt.Errorf("workers.events must be positive, got %d", c.Workers.Events)
	}
	if _, err := c.MilestoneTable(); err != nil {
		return fmt.Errorf("milestones: %w", err)
	}
	return nil
}

// MilestoneTable builds the validated milestone table from configuration.
func (c Config) MilestoneTable() (milestone.Table, error) {
	return milestone.NewTable(c.Display.RunningMessage, c.Milestones)
}
