package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors"
	"gitlab.com/tinyland/lab/sysmon/collectors/retry"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysinfo"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/config"
	"gitlab.com/tinyland/lab/sysmon/sampler"
	"gitlab.com/tinyland/lab/sysmon/status"
)

func TestBuildSampler_RegistersCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	mux, src := buildSource(cfg, zap.NewNop())
	_, isBreaker := src.(*retry.CircuitBreaker)
	assert.True(t, isBreaker, "retry enabled by default")

	s, err := buildSampler(cfg, mux, src, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.Metrics(), len(sysmetrics.Catalog()))

	snap, err := s.Snapshot(sysmetrics.NetUploadKiBPerSec)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.Capacity)
	assert.Equal(t, sampler.KindRate, snap.Kind)
}

func TestBuildSource_RetryDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retry.Enabled = false
	mux, src := buildSource(cfg, zap.NewNop())
	assert.Same(t, mux, src)
}

func TestBuildSampler_CustomWindowAndMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sampler.Interval = config.Duration{Duration: 2 * time.Second}
	cfg.Sampler.Window = config.Duration{Duration: 5 * time.Minute}
	cfg.Metrics = []string{"cpu_usage_percent", "load_avg_1"}

	mux, src := buildSource(cfg, zap.NewNop())
	s, err := buildSampler(cfg, mux, src, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []sampler.MetricID{sysmetrics.CPUUsagePercent, sysmetrics.LoadAvg1}, s.Metrics())

	snap, _ := s.Snapshot(sysmetrics.LoadAvg1)
	assert.Equal(t, 150, snap.Capacity)
}

func TestBuildSampler_UnsupportedMetric(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics = []string{"gpu_temp"}

	mux, src := buildSource(cfg, zap.NewNop())
	_, err := buildSampler(cfg, mux, src, zap.NewNop())
	assert.ErrorIs(t, err, collectors.ErrUnsupportedMetric)
}

// scriptedSampler returns a sampler over a source that fails memory reads.
func scriptedSampler(t *testing.T) *sampler.Sampler {
	t.Helper()
	src := collectors.SourceFunc(func(_ context.Context, id sampler.MetricID) (float64, error) {
		if id == sysmetrics.MemoryUsedPercent {
			return 0, assert.AnError
		}
		return 25, nil
	})
	s := sampler.New(src, sampler.Config{})
	require.NoError(t, s.Register(sysmetrics.CPUUsagePercent, sampler.KindPercent, 5))
	require.NoError(t, s.Register(sysmetrics.MemoryUsedPercent, sampler.KindPercent, 5))
	return s
}

func TestPrimeHistory(t *testing.T) {
	s := scriptedSampler(t)
	require.NoError(t, primeHistory(context.Background(), s, 3, time.Millisecond))

	cpu, _ := s.Snapshot(sysmetrics.CPUUsagePercent)
	mem, _ := s.Snapshot(sysmetrics.MemoryUsedPercent)
	assert.Equal(t, 3, cpu.Len())
	assert.Equal(t, 0, cpu.Gaps())
	assert.Equal(t, 3, mem.Gaps())
}

func TestPrimeHistory_Cancelled(t *testing.T) {
	s := scriptedSampler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := primeHistory(ctx, s, 3, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteSummary(t *testing.T) {
	s := scriptedSampler(t)
	require.NoError(t, primeHistory(context.Background(), s, 2, time.Millisecond))

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, s.SnapshotAll(), 80))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "CPU"))
	assert.Contains(t, lines[0], "25.0%")
	assert.Contains(t, lines[0], "gaps 0")
	assert.True(t, strings.HasPrefix(lines[1], "Memory"))
	assert.Contains(t, lines[1], "--")
	assert.Contains(t, lines[1], "gaps 2")
	for _, l := range lines {
		assert.LessOrEqual(t, len([]rune(l)), 80)
	}
}

func TestWriteJSON(t *testing.T) {
	s := scriptedSampler(t)
	require.NoError(t, primeHistory(context.Background(), s, 1, time.Millisecond))

	var buf bytes.Buffer
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writeJSON(&buf, s.SnapshotAll(), now))

	var dump jsonDump
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	assert.Equal(t, version, dump.Version)
	require.Len(t, dump.Metrics, 2)
	assert.Equal(t, sysmetrics.CPUUsagePercent, dump.Metrics[0].Metric)
	assert.Equal(t, 25.0, dump.Metrics[0].Samples[0].Value)
	assert.True(t, dump.Metrics[1].Samples[0].Gap)
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, status.SystemStatus{
		Overall: status.LevelWarning,
		Metrics: []status.MetricStatus{
			{Metric: sysmetrics.CPUUsagePercent, Level: status.LevelHealthy, Reason: "normal"},
			{Metric: sysmetrics.MemoryUsedPercent, Level: status.LevelWarning, Reason: "memory_used_percent at 90.0%"},
		},
	}))
	assert.Equal(t, "status: warning (memory_used_percent at 90.0%)\n", buf.String())

	buf.Reset()
	require.NoError(t, writeStatus(&buf, status.SystemStatus{Overall: status.LevelUnknown}))
	assert.Equal(t, "status: unknown\n", buf.String())
}

type fakeHost struct {
	cores int
	err   error
}

func (f fakeHost) Host(context.Context) (sysinfo.HostInfo, error) {
	return sysinfo.HostInfo{LogicalCores: f.cores}, f.err
}

func TestEvaluateHealth_ScalesLoadByCores(t *testing.T) {
	snaps := []sampler.Snapshot{{
		Metric:  sysmetrics.LoadAvg1,
		Kind:    sampler.KindLoad,
		Samples: []sampler.Sample{{Value: 3}},
	}}

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, evaluateHealth(context.Background(), fakeHost{cores: 8}, snaps, zap.NewNop())))
	assert.Equal(t, "status: healthy\n", buf.String())

	buf.Reset()
	require.NoError(t, writeStatus(&buf, evaluateHealth(context.Background(), fakeHost{cores: 1}, snaps, zap.NewNop())))
	assert.Equal(t, "status: critical (load_avg_1 at 3.00)\n", buf.String())

	buf.Reset()
	st := evaluateHealth(context.Background(), fakeHost{err: errors.New("denied")}, snaps, zap.NewNop())
	require.NoError(t, writeStatus(&buf, st))
	assert.Equal(t, "status: unknown (core count unknown)\n", buf.String())
}

func TestInitializeLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "sysmon.log")
	logger, err := initializeLogger("warn", file, false)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("metric", "cpu_usage_percent"))
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"metric":"cpu_usage_percent"`)

	verbose, err := initializeLogger("warn", file, true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zap.DebugLevel))

	_, err = initializeLogger("chatty", file, false)
	assert.Error(t, err)
}
