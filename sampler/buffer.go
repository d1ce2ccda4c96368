package sampler

import (
	"sync"
	"time"
)

// ring is a fixed-capacity ring of samples for one metric. It is safe
// for one writer and many concurrent readers.
type ring struct {
	mu    sync.RWMutex
	data  []Sample
	head  int // next write position
	count int // number of valid samples
	last  time.Time
}

// newRing creates an empty ring holding at most capacity samples. Capacity
// is at least 1.
func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{data: make([]Sample, capacity)}
}

// Cap returns the ring capacity.
func (b *ring) Cap() int {
	return len(b.data)
}

// Len returns the number of samples currently held.
func (b *ring) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Append adds s, evicting the oldest sample when full. A timestamp before
// the previous sample is rejected with ErrNonMonotonicSample and the ring
// is left unchanged.
func (b *ring) Append(s Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count > 0 && s.Time.Before(b.last) {
		return ErrNonMonotonicSample
	}

	b.data[b.head] = s
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
	b.last = s.Time
	return nil
}

// Samples returns a copy of the held samples in arrival order, oldest first.
func (b *ring) Samples() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Sample, b.count)
	size := len(b.data)
	start := (b.head - b.count + size) % size
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%size]
	}
	return out
}
