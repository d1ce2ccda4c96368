// Package status grades the latest sampled values into a health level per
// metric and an overall level for the machine.
package status

import (
	"fmt"
	"time"

	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/internal/format"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// Level represents system health.
type Level int

const (
	LevelHealthy  Level = iota // Everything normal
	LevelWarning               // Something needs attention
	LevelCritical              // Immediate attention needed
	LevelUnknown               // Insufficient data
)

// String returns the human-readable name for a Level.
func (l Level) String() string {
	switch l {
	case LevelHealthy:
		return "healthy"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// levelSeverity returns the sort order for levels. Higher is worse.
// Critical > Warning > Unknown > Healthy.
func levelSeverity(l Level) int {
	switch l {
	case LevelUnknown:
		return 1
	case LevelWarning:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// worstLevel returns whichever Level is more severe.
func worstLevel(a, b Level) Level {
	if levelSeverity(a) >= levelSeverity(b) {
		return a
	}
	return b
}

// MetricStatus holds the evaluation result for one metric.
type MetricStatus struct {
	Metric sampler.MetricID
	Level  Level
	Reason string
}

// SystemStatus is the aggregate evaluation result.
type SystemStatus struct {
	Overall     Level // Worst of all graded metrics
	Metrics     []MetricStatus
	EvaluatedAt time.Time
}

// Worst returns the most severe metric status, or false when nothing was graded.
func (s SystemStatus) Worst() (MetricStatus, bool) {
	if len(s.Metrics) == 0 {
		return MetricStatus{}, false
	}
	worst := s.Metrics[0]
	for _, m := range s.Metrics[1:] {
		if levelSeverity(m.Level) > levelSeverity(worst.Level) {
			worst = m
		}
	}
	return worst, true
}

// Threshold is a warning/critical pair; values strictly above trip the level.
type Threshold struct {
	Warning  float64
	Critical float64
}

// EvaluatorConfig holds thresholds for evaluation rules.
type EvaluatorConfig struct {
	CPU    Threshold // Default: 80 / 95 percent
	Memory Threshold // Default: 85 / 95 percent
	Disk   Threshold // Default: 90 / 98 percent
	// LoadPerCore grades load_avg_1 divided by LogicalCores. Default: 1 / 2.
	LoadPerCore Threshold
	// LogicalCores scales the load average. Zero means the core count is
	// not known yet and load grades as unknown.
	LogicalCores int
}

// DefaultEvaluatorConfig returns an EvaluatorConfig with sensible defaults.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		CPU:         Threshold{Warning: 80, Critical: 95},
		Memory:      Threshold{Warning: 85, Critical: 95},
		Disk:        Threshold{Warning: 90, Critical: 98},
		LoadPerCore: Threshold{Warning: 1, Critical: 2},
	}
}

// Evaluator grades snapshots against thresholds.
type Evaluator struct {
	config EvaluatorConfig
	now    func() time.Time
}

// NewEvaluator creates an Evaluator with the given configuration.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	if cfg.LogicalCores < 0 {
		cfg.LogicalCores = 0
	}
	return &Evaluator{config: cfg, now: time.Now}
}

// Evaluate grades every snapshot that has a rule. Metrics without a rule
// (byte counts, rates) are skipped.
func (e *Evaluator) Evaluate(snaps []sampler.Snapshot) SystemStatus {
	st := SystemStatus{Overall: LevelUnknown, EvaluatedAt: e.now()}
	graded := false
	for _, snap := range snaps {
		ms, ok := e.evaluate(snap)
		if !ok {
			continue
		}
		st.Metrics = append(st.Metrics, ms)
		if !graded {
			st.Overall = ms.Level
			graded = true
			continue
		}
		st.Overall = worstLevel(st.Overall, ms.Level)
	}
	return st
}

func (e *Evaluator) evaluate(snap sampler.Snapshot) (MetricStatus, bool) {
	var th Threshold
	scale := 1.0
	switch snap.Metric {
	case sysmetrics.CPUUsagePercent:
		th = e.config.CPU
	case sysmetrics.MemoryUsedPercent:
		th = e.config.Memory
	case sysmetrics.DiskUsedPercent:
		th = e.config.Disk
	case sysmetrics.LoadAvg1:
		if e.config.LogicalCores == 0 {
			return MetricStatus{Metric: snap.Metric, Level: LevelUnknown, Reason: "core count unknown"}, true
		}
		th = e.config.LoadPerCore
		scale = 1 / float64(e.config.LogicalCores)
	default:
		return MetricStatus{}, false
	}

	ms := MetricStatus{Metric: snap.Metric}
	latest, ok := snap.Latest()
	if !ok {
		ms.Level = LevelUnknown
		ms.Reason = "no data"
		return ms, true
	}

	shown := format.Value(snap.Kind, latest.Value)
	v := latest.Value * scale
	switch {
	case v > th.Critical:
		ms.Level = LevelCritical
		ms.Reason = fmt.Sprintf("%s at %s", snap.Metric, shown)
	case v > th.Warning:
		ms.Level = LevelWarning
		ms.Reason = fmt.Sprintf("%s at %s", snap.Metric, shown)
	default:
		ms.Level = LevelHealthy
		ms.Reason = "normal"
	}
	return ms, true
}
