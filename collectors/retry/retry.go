// Package retry provides a circuit breaker that wraps a metric source to
// handle persistent read failures gracefully. When a metric fails
// repeatedly, its circuit "opens" and reads are short-circuited for
// increasing intervals, so a missing sensor costs one cheap gap per tick
// instead of a slow failing syscall and a log line.
package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/tinyland/lab/sysmon/collectors"
	"gitlab.com/tinyland/lab/sysmon/sampler"
)

// ErrCircuitOpen is returned for reads skipped while a metric's circuit is open.
var ErrCircuitOpen = errors.New("retry: circuit open")

// Compile-time check: CircuitBreaker satisfies the sampler.Source interface.
var _ sampler.Source = (*CircuitBreaker)(nil)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; reads pass through to the source.
	StateClosed State = iota
	// StateOpen means failures exceeded the threshold; reads are blocked.
	StateOpen
	// StateHalfOpen is a probe state testing whether the source has recovered.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int
	// ResetTimeout is the initial wait duration before transitioning from Open to HalfOpen.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier is the factor by which ResetTimeout increases on each re-open.
	BackoffMultiplier float64
	// Logger for circuit breaker events. Nil is safe (a no-op logger is used).
	Logger *zap.Logger
	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns defaults tuned for a 1 Hz sampler: three failed
// ticks open the circuit for ten seconds, backing off to five minutes.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      10 * time.Second,
		MaxResetTimeout:   5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds circuit statistics for one metric.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	LastFailure      time.Time
	LastSuccess      time.Time
	CurrentTimeout   time.Duration
	ConsecutiveSkips int
}

// circuit is the per-metric breaker state.
type circuit struct {
	state            State
	failures         int
	lastFailure      time.Time
	lastSuccess      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// CircuitBreaker wraps a sampler.Source with independent failure tracking
// per metric id.
type CircuitBreaker struct {
	source sampler.Source
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	circuits map[sampler.MetricID]*circuit
}

// NewCircuitBreaker wraps src with circuit breaker logic. Zero-valued
// config fields fall back to DefaultConfig.
func NewCircuitBreaker(src sampler.Source, cfg Config) *CircuitBreaker {
	def := DefaultConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.MaxResetTimeout < cfg.ResetTimeout {
		cfg.MaxResetTimeout = cfg.ResetTimeout
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		source:   src,
		config:   cfg,
		logger:   logger,
		circuits: make(map[sampler.MetricID]*circuit),
	}
}

// get returns the circuit for id, creating it closed. Caller holds cb.mu.
func (cb *CircuitBreaker) get(id sampler.MetricID) *circuit {
	c, ok := cb.circuits[id]
	if !ok {
		c = &circuit{state: StateClosed, currentTimeout: cb.config.ResetTimeout}
		cb.circuits[id] = c
	}
	return c
}

// Read checks id's circuit and either reads the wrapped source or returns
// ErrCircuitOpen without touching it.
func (cb *CircuitBreaker) Read(ctx context.Context, id sampler.MetricID) (float64, error) {
	cb.mu.Lock()
	c := cb.get(id)

	switch c.state {
	case StateClosed:
		cb.mu.Unlock()
		return cb.readClosed(ctx, id)

	case StateOpen:
		elapsed := cb.config.Now().Sub(c.lastFailure)
		if elapsed < c.currentTimeout {
			remaining := c.currentTimeout - elapsed
			c.consecutiveSkips++
			failures := c.failures
			cb.mu.Unlock()

			cb.logger.Debug("circuit open, skipping read",
				zap.String("metric", string(id)),
				zap.Duration("retry_in", remaining.Truncate(time.Second)),
			)
			// The message must not change while open; sampler.Run dedupes on it.
			return 0, fmt.Errorf("%w for %s (failures: %d)", ErrCircuitOpen, id, failures)
		}

		// Timeout elapsed, transition to half-open.
		c.state = StateHalfOpen
		cb.logger.Info("circuit breaker transitioning to half-open",
			zap.String("metric", string(id)),
		)
		cb.mu.Unlock()
		return cb.readHalfOpen(ctx, id)

	case StateHalfOpen:
		cb.mu.Unlock()
		return cb.readHalfOpen(ctx, id)

	default:
		state := c.state
		cb.mu.Unlock()
		return 0, fmt.Errorf("circuit breaker in unknown state: %d", state)
	}
}

// countsAsFailure reports whether err should move the circuit. Warm-up
// reads are expected and never trip it.
func countsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, collectors.ErrWarmingUp)
}

// readClosed reads the source in closed (normal) state.
func (cb *CircuitBreaker) readClosed(ctx context.Context, id sampler.MetricID) (float64, error) {
	v, err := cb.source.Read(ctx, id)
	if countsAsFailure(err) {
		cb.recordFailure(id)
		return v, err
	}
	if err == nil {
		cb.recordSuccess(id)
	}
	return v, err
}

// readHalfOpen reads the source as a probe to test recovery.
func (cb *CircuitBreaker) readHalfOpen(ctx context.Context, id sampler.MetricID) (float64, error) {
	v, err := cb.source.Read(ctx, id)
	if countsAsFailure(err) {
		cb.mu.Lock()
		c := cb.get(id)
		c.failures++
		c.totalFailures++
		c.lastFailure = cb.config.Now()

		// Increase timeout with backoff, capped at max.
		c.currentTimeout = time.Duration(float64(c.currentTimeout) * cb.config.BackoffMultiplier)
		if c.currentTimeout > cb.config.MaxResetTimeout {
			c.currentTimeout = cb.config.MaxResetTimeout
		}

		c.state = StateOpen
		cb.logger.Warn("circuit breaker re-opened after half-open failure",
			zap.String("metric", string(id)),
			zap.Int("failures", c.failures),
			zap.Duration("next_timeout", c.currentTimeout),
		)
		cb.mu.Unlock()
		return v, err
	}

	// Success in half-open: close the circuit.
	cb.mu.Lock()
	c := cb.get(id)
	c.state = StateClosed
	c.failures = 0
	c.consecutiveSkips = 0
	c.totalSuccesses++
	c.lastSuccess = cb.config.Now()
	c.currentTimeout = cb.config.ResetTimeout
	cb.logger.Info("circuit breaker closed after successful probe",
		zap.String("metric", string(id)),
	)
	cb.mu.Unlock()
	return v, err
}

// recordFailure increments failure counters and optionally opens the circuit.
func (cb *CircuitBreaker) recordFailure(id sampler.MetricID) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(id)
	c.failures++
	c.totalFailures++
	c.lastFailure = cb.config.Now()

	if c.failures >= cb.config.MaxFailures {
		c.state = StateOpen
		c.currentTimeout = cb.config.ResetTimeout
		cb.logger.Warn("circuit breaker opened",
			zap.String("metric", string(id)),
			zap.Int("failures", c.failures),
			zap.Duration("timeout", c.currentTimeout),
		)
	}
}

// recordSuccess resets the consecutive failure counter.
func (cb *CircuitBreaker) recordSuccess(id sampler.MetricID) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(id)
	c.failures = 0
	c.consecutiveSkips = 0
	c.totalSuccesses++
	c.lastSuccess = cb.config.Now()
}

// State returns the current circuit state for id.
func (cb *CircuitBreaker) State(id sampler.MetricID) State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.get(id).state
}

// Stats returns a snapshot of the circuit statistics for id.
func (cb *CircuitBreaker) Stats(id sampler.MetricID) Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.get(id)
	return Stats{
		State:            c.state,
		ConsecutiveFails: c.failures,
		TotalFailures:    c.totalFailures,
		TotalSuccesses:   c.totalSuccesses,
		LastFailure:      c.lastFailure,
		LastSuccess:      c.lastSuccess,
		CurrentTimeout:   c.currentTimeout,
		ConsecutiveSkips: c.consecutiveSkips,
	}
}

// Reset forces id's circuit back to the closed state, clearing all failure
// counters and restoring the initial timeout.
func (cb *CircuitBreaker) Reset(id sampler.MetricID) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(id)
	c.state = StateClosed
	c.failures = 0
	c.consecutiveSkips = 0
	c.currentTimeout = cb.config.ResetTimeout
	cb.logger.Info("circuit breaker manually reset",
		zap.String("metric", string(id)),
	)
}
