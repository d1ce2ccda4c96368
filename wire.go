package main

import (
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors"
	"gitlab.com/tinyland/lab/sysmon/collectors/retry"
	"gitlab.com/tinyland/lab/sysmon/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/sysmon/config"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// buildSource assembles the metric source: every sysmetrics id routed
// through a mux, optionally behind the per-metric circuit breaker.
func buildSource(cfg *config.Config, logger *zap.Logger) (*collectors.Mux, sampler.Source) {
	mux := collectors.NewMux()
	sysmetrics.New(cfg.Sources.DiskPath, logger.Named("sysmetrics")).Register(mux)

	if !cfg.Retry.Enabled {
		return mux, mux
	}
	return mux, retry.NewCircuitBreaker(mux, retry.Config{
		MaxFailures:       cfg.Retry.MaxFailures,
		ResetTimeout:      cfg.Retry.ResetTimeout.Duration,
		MaxResetTimeout:   cfg.Retry.MaxResetTimeout.Duration,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		Logger:            logger.Named("retry"),
	})
}

// buildSampler creates the sampler and registers every tracked metric with
// the capacity implied by the configured window and interval.
func buildSampler(cfg *config.Config, mux *collectors.Mux, src sampler.Source, logger *zap.Logger) (*sampler.Sampler, error) {
	s := sampler.New(src, sampler.Config{
		ReadTimeout:        cfg.Sampler.ReadTimeout.Duration,
		MaxConcurrentReads: cfg.Sampler.MaxConcurrentReads,
		Logger:             logger.Named("sampler"),
	})

	capacity := cfg.Capacity()
	for _, id := range cfg.TrackedMetrics() {
		if _, ok := mux.Get(id); !ok {
			return nil, fmt.Errorf("%w: %s", collectors.ErrUnsupportedMetric, id)
		}
		desc, ok := sysmetrics.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", collectors.ErrUnsupportedMetric, id)
		}
		if err := s.Register(id, desc.Kind, capacity); err != nil {
			return nil, err
		}
	}
	logger.Info("sampler ready",
		zap.Int("metrics", len(s.Metrics())),
		zap.Int("capacity", capacity),
		zap.Duration("interval", cfg.Sampler.Interval.Duration),
	)
	return s, nil
}
