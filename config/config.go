// Package config provides configuration parsing for sysmon.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// Duration wraps time.Duration so it reads and writes as a YAML string
// such as "1s" or "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", value.Line, err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config represents the sysmon configuration.
type Config struct {
	// Sampler holds poll cadence and history window settings.
	Sampler SamplerConfig `yaml:"sampler"`

	// Metrics lists the metric ids to track. Empty tracks every supported metric.
	Metrics []string `yaml:"metrics"`

	// Sources holds metric source settings.
	Sources SourcesConfig `yaml:"sources"`

	// Retry holds the per-metric circuit breaker settings.
	Retry RetryConfig `yaml:"retry"`

	// Display holds TUI rendering settings.
	Display DisplayConfig `yaml:"display"`

	// Log holds logging settings.
	Log LogConfig `yaml:"log"`
}

// SamplerConfig controls the history sampler.
type SamplerConfig struct {
	// Interval is the time between ticks.
	Interval Duration `yaml:"interval"`
	// Window is how much history to keep; capacity is ceil(window/interval).
	Window Duration `yaml:"window"`
	// ReadTimeout bounds each metric read within a tick.
	ReadTimeout Duration `yaml:"read_timeout"`
	// MaxConcurrentReads limits parallel reads per tick (0 = unlimited).
	MaxConcurrentReads int `yaml:"max_concurrent_reads"`
}

// SourcesConfig holds metric source settings.
type SourcesConfig struct {
	// DiskPath is the mount point reported by disk_used_percent.
	DiskPath string `yaml:"disk_path"`
}

// RetryConfig mirrors retry.Config.
type RetryConfig struct {
	Enabled           bool     `yaml:"enabled"`
	MaxFailures       int      `yaml:"max_failures"`
	ResetTimeout      Duration `yaml:"reset_timeout"`
	MaxResetTimeout   Duration `yaml:"max_reset_timeout"`
	BackoffMultiplier float64  `yaml:"backoff_multiplier"`
}

// DisplayConfig holds TUI rendering settings.
type DisplayConfig struct {
	// RefreshInterval is how often the TUI re-reads snapshots.
	RefreshInterval Duration `yaml:"refresh_interval"`
	// ProcessLimit caps rows in the process table.
	ProcessLimit int `yaml:"process_limit"`
	// ProcessSort is "cpu" or "memory".
	ProcessSort string `yaml:"process_sort"`
	// Mouse enables clickable tabs.
	Mouse bool `yaml:"mouse"`
	// Theme names a built-in color theme.
	Theme string `yaml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File is the log output path. The TUI owns the terminal, so logs never go to stderr.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config populated with sensible defaults: one
// sample per second, one minute of history.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Sampler: SamplerConfig{
			Interval:    Duration{time.Second},
			Window:      Duration{time.Minute},
			ReadTimeout: Duration{500 * time.Millisecond},
		},
		Metrics: nil,
		Sources: SourcesConfig{
			DiskPath: sysmetrics.DefaultDiskPath,
		},
		Retry: RetryConfig{
			Enabled:           true,
			MaxFailures:       3,
			ResetTimeout:      Duration{10 * time.Second},
			MaxResetTimeout:   Duration{5 * time.Minute},
			BackoffMultiplier: 2.0,
		},
		Display: DisplayConfig{
			RefreshInterval: Duration{time.Second},
			ProcessLimit:    25,
			ProcessSort:     string(sysinfo.SortByCPU),
			Mouse:           true,
			Theme:           "dark",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(home, ".local", "state", "sysmon", "sysmon.log"),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/sysmon/config.yaml, falling back to
// ~/.config/sysmon/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sysmon", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sysmon", "config.yaml")
}

// LoadConfig loads configuration from a YAML file, merging with defaults.
// A missing file yields the defaults. Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides lets SYSMON_* variables override file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SYSMON_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: SYSMON_INTERVAL: %w", err)
		}
		cfg.Sampler.Interval = Duration{d}
	}
	if v := os.Getenv("SYSMON_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: SYSMON_WINDOW: %w", err)
		}
		cfg.Sampler.Window = Duration{d}
	}
	if v := os.Getenv("SYSMON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SYSMON_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// Capacity returns the per-metric history capacity implied by the sampler settings.
func (c *Config) Capacity() int {
	return sampler.CapacityFor(c.Sampler.Window.Duration, c.Sampler.Interval.Duration)
}

// TrackedMetrics returns the configured metric ids, or the full catalog
// when none are listed.
func (c *Config) TrackedMetrics() []sampler.MetricID {
	if len(c.Metrics) == 0 {
		all := sysmetrics.Catalog()
		ids := make([]sampler.MetricID, len(all))
		for i, d := range all {
			ids[i] = d.ID
		}
		return ids
	}
	ids := make([]sampler.MetricID, len(c.Metrics))
	for i, m := range c.Metrics {
		ids[i] = sampler.MetricID(m)
	}
	return ids
}

// Validate checks the configuration for required fields and logical consistency.
func (c *Config) Validate() error {
	// Sampler validation
	if c.Sampler.Interval.Duration <= 0 {
		return fmt.Errorf("sampler.interval must be positive, got %s", c.Sampler.Interval.Duration)
	}
	if c.Sampler.Window.Duration < c.Sampler.Interval.Duration {
		return fmt.Errorf("sampler.window (%s) must be at least sampler.interval (%s)",
			c.Sampler.Window.Duration, c.Sampler.Interval.Duration)
	}
	if c.Sampler.ReadTimeout.Duration <= 0 {
		return fmt.Errorf("sampler.read_timeout must be positive, got %s", c.Sampler.ReadTimeout.Duration)
	}
	if c.Sampler.ReadTimeout.Duration > c.Sampler.Interval.Duration {
		return fmt.Errorf("sampler.read_timeout (%s) must not exceed sampler.interval (%s)",
			c.Sampler.ReadTimeout.Duration, c.Sampler.Interval.Duration)
	}
	if c.Sampler.MaxConcurrentReads < 0 {
		return fmt.Errorf("sampler.max_concurrent_reads must be non-negative, got %d", c.Sampler.MaxConcurrentReads)
	}

	// Metrics validation
	seen := make(map[string]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		if _, ok := sysmetrics.Lookup(sampler.MetricID(m)); !ok {
			return fmt.Errorf("metrics[%d]: unknown metric %q", i, m)
		}
		if seen[m] {
			return fmt.Errorf("metrics[%d]: duplicate metric %q", i, m)
		}
		seen[m] = true
	}

	// Retry validation
	if c.Retry.Enabled {
		if c.Retry.MaxFailures < 1 {
			return fmt.Errorf("retry.max_failures must be at least 1, got %d", c.Retry.MaxFailures)
		}
		if c.Retry.BackoffMultiplier < 1 {
			return fmt.Errorf("retry.backoff_multiplier must be at least 1, got %g", c.Retry.BackoffMultiplier)
		}
	}

	// Display validation
	if c.Display.RefreshInterval.Duration <= 0 {
		return fmt.Errorf("display.refresh_interval must be positive, got %s", c.Display.RefreshInterval.Duration)
	}
	if c.Display.ProcessLimit < 0 {
		return fmt.Errorf("display.process_limit must be non-negative, got %d", c.Display.ProcessLimit)
	}
	switch sysinfo.SortBy(c.Display.ProcessSort) {
	case sysinfo.SortByCPU, sysinfo.SortByMemory:
	default:
		return fmt.Errorf("display.process_sort must be 'cpu' or 'memory', got %q", c.Display.ProcessSort)
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if strings.TrimSpace(c.Log.File) == "" {
		return errors.New("log.file must not be empty")
	}

	return nil
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
