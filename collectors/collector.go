// Package collectors provides the metric source plumbing for sysmon. Each
// source answers reads for one or more metric ids; a Mux routes a tick's
// reads to the source that owns each id.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"gitlab.com/tinyland/lab/sysmon/sampler"
)

var (
	// ErrUnsupportedMetric is returned for an id no source handles.
	ErrUnsupportedMetric = errors.New("collectors: unsupported metric")

	// ErrWarmingUp is returned by delta-based metrics (network rates) on
	// their first read, before a baseline exists. It is a normal gap, not
	// a fault.
	ErrWarmingUp = errors.New("collectors: metric warming up")
)

// SourceFunc adapts a plain function to sampler.Source.
type SourceFunc func(ctx context.Context, id sampler.MetricID) (float64, error)

// Read calls f.
func (f SourceFunc) Read(ctx context.Context, id sampler.MetricID) (float64, error) {
	return f(ctx, id)
}

// Mux routes reads to per-metric sources.
type Mux struct {
	mu      sync.RWMutex
	sources map[sampler.MetricID]sampler.Source
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{sources: make(map[sampler.MetricID]sampler.Source)}
}

// Handle routes reads of the given ids to src. If an id is already
// handled, its source is replaced.
func (m *Mux) Handle(src sampler.Source, ids ...sampler.MetricID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.sources[id] = src
	}
}

// Get returns the source handling id. The second return value indicates
// whether one was found.
func (m *Mux) Get(id sampler.MetricID) (sampler.Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[id]
	return src, ok
}

// Supported returns all handled ids, sorted.
func (m *Mux) Supported() []sampler.MetricID {
	m.mu.RLock()
	ids := lo.Keys(m.sources)
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Read implements sampler.Source.
func (m *Mux) Read(ctx context.Context, id sampler.MetricID) (float64, error) {
	src, ok := m.Get(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedMetric, id)
	}
	return src.Read(ctx, id)
}

// Compile-time interface compliance check.
var _ sampler.Source = (*Mux)(nil)
