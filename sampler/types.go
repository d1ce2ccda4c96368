// Package sampler keeps a bounded rolling history for each tracked system
// metric. A single producer (the scheduled Tick) appends one sample per
// metric per interval into a fixed-capacity ring buffer, and any number of
// readers take point-in-time snapshots for rendering.
package sampler

import (
	"fmt"
	"math"
	"time"
)

// MetricID names an independently tracked metric, e.g. "cpu_usage_percent".
type MetricID string

// Kind describes the unit of a metric's samples.
type Kind int

const (
	// KindPercent is a 0-100 percentage.
	KindPercent Kind = iota
	// KindBytes is an unsigned byte count stored as float64.
	KindBytes
	// KindRate is a throughput in KiB per second.
	KindRate
	// KindCount is a plain unsigned count (processes, threads).
	KindCount
	// KindLoad is a load average.
	KindLoad
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPercent:
		return "percent"
	case KindBytes:
		return "bytes"
	case KindRate:
		return "kib_per_sec"
	case KindCount:
		return "count"
	case KindLoad:
		return "load"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Sample is one timestamped observation. A gap sample marks a tick where
// the source could not be read; its Value is always zero and must not be
// rendered as data.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	Gap   bool      `json:"gap,omitempty"`
}

// Snapshot is an immutable copy of a buffer's contents, oldest first.
type Snapshot struct {
	Metric   MetricID `json:"metric"`
	Kind     Kind     `json:"kind"`
	Capacity int      `json:"capacity"`
	Samples  []Sample `json:"samples"`
}

// Len returns the number of samples, gaps included.
func (s Snapshot) Len() int {
	return len(s.Samples)
}

// Values returns the sample values in order with gaps as NaN.
func (s Snapshot) Values() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		if smp.Gap {
			out[i] = math.NaN()
			continue
		}
		out[i] = smp.Value
	}
	return out
}

// Latest returns the most recent non-gap sample. ok is false when the
// snapshot holds no data, or when the newest sample is a gap.
func (s Snapshot) Latest() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	last := s.Samples[len(s.Samples)-1]
	if last.Gap {
		return last, false
	}
	return last, true
}

// Max returns the largest non-gap value, floored at 1 so a flat-zero
// history still yields a usable chart ceiling.
func (s Snapshot) Max() float64 {
	peak := 1.0
	for _, smp := range s.Samples {
		if !smp.Gap && smp.Value > peak {
			peak = smp.Value
		}
	}
	return peak
}

// Gaps returns how many samples in the snapshot are gap markers.
func (s Snapshot) Gaps() int {
	n := 0
	for _, smp := range s.Samples {
		if smp.Gap {
			n++
		}
	}
	return n
}

// CapacityFor returns ceil(window / interval), the number of samples needed
// to cover window when sampling every interval. Non-positive inputs yield 1.
func CapacityFor(window, interval time.Duration) int {
	if window <= 0 || interval <= 0 {
		return 1
	}
	n := int(window / interval)
	if window%interval != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
