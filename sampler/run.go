package sampler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll cadence used when Run is given a
// non-positive interval: 60 samples cover one minute.
const DefaultInterval = time.Second

// errTracker deduplicates repeated identical read errors per metric.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// Run ticks immediately, then every interval, until ctx is cancelled.
// onTick, if non-nil, receives every report after it has been logged.
// An in-flight tick always completes; its reads are bounded by the
// configured read timeout.
func (s *Sampler) Run(ctx context.Context, interval time.Duration, onTick func(TickReport)) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.runOnce(ctx, onTick)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sampler stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			s.runOnce(ctx, onTick)
		}
	}
}

func (s *Sampler) runOnce(ctx context.Context, onTick func(TickReport)) {
	report := s.Tick(ctx)
	for id, err := range report.Failures {
		s.logReadError(id, err)
	}
	s.logger.Debug("tick",
		zap.Time("at", report.Time),
		zap.Int("recorded", report.Recorded),
		zap.Int("gaps", report.Gaps),
	)
	if onTick != nil {
		onTick(report)
	}
}

// logReadError suppresses a failure message that repeats within an hour,
// emitting a summary every 100 repeats. A warming-up network counter or a
// permanently missing sensor would otherwise log once per second.
func (s *Sampler) logReadError(id MetricID, err error) {
	msg := err.Error()
	tracker := s.errs[id]
	if tracker == nil {
		tracker = &errTracker{}
		s.errs[id] = tracker
	}
	now := time.Now()
	if msg == tracker.lastMsg && now.Sub(tracker.lastTime) < time.Hour {
		tracker.suppressed++
		if tracker.suppressed%100 == 0 {
			s.logger.Warn("metric read failing",
				zap.String("metric", string(id)),
				zap.Int64("repeated", tracker.suppressed),
				zap.Error(err))
		}
		return
	}
	if tracker.suppressed > 0 {
		s.logger.Info("previous metric error repeated",
			zap.String("metric", string(id)),
			zap.Int64("times", tracker.suppressed))
	}
	s.logger.Warn("metric read failed", zap.String("metric", string(id)), zap.Error(err))
	tracker.lastMsg = msg
	tracker.lastTime = now
	tracker.suppressed = 0
}
