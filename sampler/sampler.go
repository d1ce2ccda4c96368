package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultReadTimeout bounds a single source read when Config.ReadTimeout is unset.
const DefaultReadTimeout = 500 * time.Millisecond

// Source is the external metrics capability polled by Tick. Implementations
// should honour ctx; a read that does not return before the sampler's read
// timeout is abandoned and recorded as a gap.
type Source interface {
	Read(ctx context.Context, id MetricID) (float64, error)
}

// Reader is the read-only view handed to rendering code.
type Reader interface {
	Metrics() []MetricID
	Snapshot(id MetricID) (Snapshot, error)
}

// Clock returns the current time. Tests inject synthetic clocks.
type Clock func() time.Time

// Config configures a Sampler.
type Config struct {
	// ReadTimeout is the upper bound for one source read. Zero uses
	// DefaultReadTimeout; a negative value disables the bound.
	ReadTimeout time.Duration
	// MaxConcurrentReads limits parallel reads within one tick. Zero or
	// negative means one goroutine per metric.
	MaxConcurrentReads int
	// Clock stamps each tick. Nil uses time.Now.
	Clock Clock
	// Logger receives read-failure logs. Nil is safe.
	Logger *zap.Logger
}

type entry struct {
	kind   Kind
	buffer *ring
}

// Sampler owns one history buffer per registered metric. It is an explicit
// registry object: create one at startup and pass it to both the poll loop
// and the renderer.
type Sampler struct {
	source Source
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	order   []MetricID
	entries map[MetricID]*entry

	// errs deduplicates repeated read failures; only touched by Run.
	errs map[MetricID]*errTracker
}

// New creates a Sampler reading from src. src may be nil when the caller
// only uses Record and Snapshot directly.
func New(src Source, cfg Config) *Sampler {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		source:  src,
		cfg:     cfg,
		logger:  logger,
		entries: make(map[MetricID]*entry),
		errs:    make(map[MetricID]*errTracker),
	}
}

// Register creates an empty history buffer for id.
func (s *Sampler) Register(id MetricID, kind Kind, capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("register %s: %w", id, ErrInvalidCapacity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return fmt.Errorf("register %s: %w", id, ErrDuplicateMetric)
	}
	s.entries[id] = &entry{kind: kind, buffer: newRing(capacity)}
	s.order = append(s.order, id)
	return nil
}

// Metrics returns the registered ids in registration order.
func (s *Sampler) Metrics() []MetricID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MetricID, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Sampler) lookup(id MetricID) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("metric %s: %w", id, ErrUnknownMetric)
	}
	return e, nil
}

// Record appends a value sample for id at ts.
func (s *Sampler) Record(id MetricID, value float64, ts time.Time) error {
	return s.append(id, Sample{Time: ts, Value: value})
}

// RecordGap appends a gap marker for id at ts, so renderers can show
// missing data distinctly from a zero reading.
func (s *Sampler) RecordGap(id MetricID, ts time.Time) error {
	return s.append(id, Sample{Time: ts, Gap: true})
}

func (s *Sampler) append(id MetricID, smp Sample) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := e.buffer.Append(smp); err != nil {
		return fmt.Errorf("record %s at %s: %w", id, smp.Time.Format(time.RFC3339Nano), err)
	}
	return nil
}

// Snapshot returns an independent copy of id's history, oldest first.
func (s *Sampler) Snapshot(id MetricID) (Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Metric:   id,
		Kind:     e.kind,
		Capacity: e.buffer.Cap(),
		Samples:  e.buffer.Samples(),
	}, nil
}

// SnapshotAll returns a snapshot of every registered metric in
// registration order.
func (s *Sampler) SnapshotAll() []Snapshot {
	return lo.FilterMap(s.Metrics(), func(id MetricID, _ int) (Snapshot, bool) {
		snap, err := s.Snapshot(id)
		return snap, err == nil
	})
}

// TickReport summarises one Tick.
type TickReport struct {
	Time     time.Time
	Recorded int
	Gaps     int
	// Failures maps each metric that did not get a value sample to the
	// reason. Read failures wrap ErrSourceRead.
	Failures map[MetricID]error
}

type readResult struct {
	value float64
	err   error
}

// Tick reads one value per registered metric from the source and records
// it, or records a gap when the read fails or exceeds the read timeout.
// A failing metric never prevents the others from being recorded.
func (s *Sampler) Tick(ctx context.Context) TickReport {
	now := s.cfg.Clock()
	ids := s.Metrics()
	report := TickReport{Time: now, Failures: make(map[MetricID]error)}

	results := make([]readResult, len(ids))
	var g errgroup.Group
	if s.cfg.MaxConcurrentReads > 0 {
		g.SetLimit(s.cfg.MaxConcurrentReads)
	}
	for i, id := range ids {
		g.Go(func() error {
			v, err := s.read(ctx, id)
			results[i] = readResult{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		res := results[i]
		if res.err != nil {
			report.Failures[id] = fmt.Errorf("%w: %s: %w", ErrSourceRead, id, res.err)
			if err := s.RecordGap(id, now); err != nil {
				report.Failures[id] = err
				continue
			}
			report.Gaps++
			continue
		}
		if err := s.Record(id, res.value, now); err != nil {
			report.Failures[id] = err
			continue
		}
		report.Recorded++
	}
	return report
}

// read performs one bounded source read.
func (s *Sampler) read(ctx context.Context, id MetricID) (float64, error) {
	if s.source == nil {
		return 0, ErrNoSource
	}
	if s.cfg.ReadTimeout < 0 {
		return s.source.Read(ctx, id)
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	// Buffered so an abandoned read can still complete and exit.
	ch := make(chan readResult, 1)
	go func() {
		v, err := s.source.Read(rctx, id)
		ch <- readResult{value: v, err: err}
	}()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-rctx.Done():
		return 0, fmt.Errorf("read timed out after %s: %w", s.cfg.ReadTimeout, rctx.Err())
	}
}
