package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.Sampler.Interval.Duration)
	assert.Equal(t, time.Minute, cfg.Sampler.Window.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.ReadTimeout.Duration)
	assert.Equal(t, "/", cfg.Sources.DiskPath)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, "cpu", cfg.Display.ProcessSort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60, cfg.Capacity())

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Sampler, cfg.Sampler)
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sampler:
  interval: 2s
  window: 5m
metrics:
  - cpu_usage_percent
  - memory_used_percent
display:
  process_sort: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Sampler.Interval.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Sampler.Window.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.ReadTimeout.Duration, "unset field keeps default")
	assert.Equal(t, 150, cfg.Capacity())
	assert.Equal(t, []sampler.MetricID{sysmetrics.CPUUsagePercent, sysmetrics.MemoryUsedPercent}, cfg.TrackedMetrics())
	assert.Equal(t, "memory", cfg.Display.ProcessSort)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampler:\n  interval: soon\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SYSMON_INTERVAL", "250ms")
	t.Setenv("SYSMON_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.Interval.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("SYSMON_WINDOW", "forever")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "SYSMON_WINDOW")
}

func TestTrackedMetrics_DefaultsToCatalog(t *testing.T) {
	cfg := DefaultConfig()
	ids := cfg.TrackedMetrics()
	assert.Len(t, ids, len(sysmetrics.Catalog()))
	assert.Contains(t, ids, sysmetrics.NetDownloadKiBPerSec)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.Sampler.Interval.Duration = 0 }, "sampler.interval"},
		{"window shorter than interval", func(c *Config) { c.Sampler.Window.Duration = 100 * time.Millisecond }, "sampler.window"},
		{"read timeout above interval", func(c *Config) { c.Sampler.ReadTimeout.Duration = 2 * time.Second }, "sampler.read_timeout"},
		{"negative concurrency", func(c *Config) { c.Sampler.MaxConcurrentReads = -1 }, "max_concurrent_reads"},
		{"unknown metric", func(c *Config) { c.Metrics = []string{"gpu_temp"} }, "unknown metric"},
		{"duplicate metric", func(c *Config) { c.Metrics = []string{"load_avg_1", "load_avg_1"} }, "duplicate metric"},
		{"retry max failures", func(c *Config) { c.Retry.MaxFailures = 0 }, "retry.max_failures"},
		{"bad sort", func(c *Config) { c.Display.ProcessSort = "pid" }, "process_sort"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"empty log file", func(c *Config) { c.Log.File = "" }, "log.file"},
		{"blank log file", func(c *Config) { c.Log.File = "  " }, "log.file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_RetryDisabledSkipsRetryChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.Enabled = false
	cfg.Retry.MaxFailures = 0
	assert.NoError(t, cfg.Validate())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Sampler.Interval = Duration{3 * time.Second}
	cfg.Metrics = []string{"cpu_usage_percent"}

	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 3s")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sampler, loaded.Sampler)
	assert.Equal(t, cfg.Metrics, loaded.Metrics)
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/sysmon/config.yaml", DefaultPath())
}
