package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// DefaultDiskPath is the filesystem whose usage backs disk_used_percent.
const DefaultDiskPath = "/"

// counter is the last observed cumulative byte counter for a rate metric.
type counter struct {
	bytes uint64
	at    time.Time
}

// Source reads local system metrics. Network rates are derived from
// cumulative interface counters, so the first read of each returns
// collectors.ErrWarmingUp.
type Source struct {
	logger   *zap.Logger
	diskPath string

	mu   sync.Mutex
	prev map[sampler.MetricID]counter

	// Overridable gopsutil calls for testing.
	cpuPercent    func(ctx context.Context) ([]float64, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	swapMemory    func(ctx context.Context) (*mem.SwapMemoryStat, error)
	diskUsage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	loadAvg       func(ctx context.Context) (*load.AvgStat, error)
	pids          func(ctx context.Context) ([]int32, error)
	ioCounters    func(ctx context.Context) ([]net.IOCountersStat, error)
	now           func() time.Time
}

// New creates a Source. An empty diskPath uses DefaultDiskPath; a nil
// logger is replaced by a no-op logger.
func New(diskPath string, logger *zap.Logger) *Source {
	if diskPath == "" {
		diskPath = DefaultDiskPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		logger:   logger,
		diskPath: diskPath,
		prev:     make(map[sampler.MetricID]counter),
		cpuPercent: func(ctx context.Context) ([]float64, error) {
			// Interval 0 compares against the previous call.
			return cpu.PercentWithContext(ctx, 0, false)
		},
		virtualMemory: mem.VirtualMemoryWithContext,
		swapMemory:    mem.SwapMemoryWithContext,
		diskUsage:     disk.UsageWithContext,
		loadAvg:       load.AvgWithContext,
		pids:          process.PidsWithContext,
		ioCounters: func(ctx context.Context) ([]net.IOCountersStat, error) {
			return net.IOCountersWithContext(ctx, false)
		},
		now: time.Now,
	}
}

// Register routes every catalog metric on mux to s.
func (s *Source) Register(mux *collectors.Mux) {
	for _, d := range catalog {
		mux.Handle(s, d.ID)
	}
}

// Read implements sampler.Source.
func (s *Source) Read(ctx context.Context, id sampler.MetricID) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch id {
	case CPUUsagePercent:
		return s.readCPU(ctx)
	case MemoryUsedPercent:
		vm, err := s.virtualMemory(ctx)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: virtual memory: %w", err)
		}
		return clampPercent(vm.UsedPercent), nil
	case MemoryUsedBytes:
		vm, err := s.virtualMemory(ctx)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: virtual memory: %w", err)
		}
		return float64(vm.Used), nil
	case SwapUsedBytes:
		sw, err := s.swapMemory(ctx)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: swap memory: %w", err)
		}
		return float64(sw.Used), nil
	case DiskUsedPercent:
		du, err := s.diskUsage(ctx, s.diskPath)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: disk usage %s: %w", s.diskPath, err)
		}
		return clampPercent(du.UsedPercent), nil
	case LoadAvg1:
		avg, err := s.loadAvg(ctx)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: load average: %w", err)
		}
		return avg.Load1, nil
	case ProcessCount:
		pids, err := s.pids(ctx)
		if err != nil {
			return 0, fmt.Errorf("sysmetrics: list pids: %w", err)
		}
		return float64(len(pids)), nil
	case NetUploadKiBPerSec, NetDownloadKiBPerSec:
		return s.readRate(ctx, id)
	default:
		return 0, fmt.Errorf("%w: %s", collectors.ErrUnsupportedMetric, id)
	}
}

func (s *Source) readCPU(ctx context.Context) (float64, error) {
	pcts, err := s.cpuPercent(ctx)
	if err != nil {
		return 0, fmt.Errorf("sysmetrics: cpu percent: %w", err)
	}
	if len(pcts) == 0 {
		return 0, errors.New("sysmetrics: cpu percent returned no values")
	}
	return clampPercent(pcts[0]), nil
}

// readRate sums the interface byte counters and converts the delta since
// the previous read of the same id into KiB/s. Counter resets (interface
// removed, wraparound) saturate to zero.
func (s *Source) readRate(ctx context.Context, id sampler.MetricID) (float64, error) {
	stats, err := s.ioCounters(ctx)
	if err != nil {
		return 0, fmt.Errorf("sysmetrics: net io counters: %w", err)
	}

	var total uint64
	for _, st := range stats {
		if id == NetUploadKiBPerSec {
			total += st.BytesSent
		} else {
			total += st.BytesRecv
		}
	}

	now := s.now()

	s.mu.Lock()
	prev, seen := s.prev[id]
	s.prev[id] = counter{bytes: total, at: now}
	s.mu.Unlock()

	if !seen {
		return 0, fmt.Errorf("%w: %s", collectors.ErrWarmingUp, id)
	}

	elapsed := now.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return 0, nil
	}
	var delta uint64
	if total > prev.bytes {
		delta = total - prev.bytes
	}
	rate := float64(delta) / 1024.0 / elapsed

	s.logger.Debug("net rate",
		zap.String("metric", string(id)),
		zap.Uint64("delta_bytes", delta),
		zap.Float64("kib_per_sec", rate),
	)
	return rate, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Compile-time interface compliance check.
var _ sampler.Source = (*Source)(nil)
