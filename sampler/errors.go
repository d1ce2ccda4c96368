package sampler

import "errors"

var (
	// ErrDuplicateMetric is returned by Register for an id that already has a buffer.
	ErrDuplicateMetric = errors.New("sampler: duplicate metric")

	// ErrUnknownMetric is returned by Record and Snapshot for an unregistered id.
	ErrUnknownMetric = errors.New("sampler: unknown metric")

	// ErrNonMonotonicSample is returned by Record when the timestamp is
	// earlier than the previous sample of the same metric.
	ErrNonMonotonicSample = errors.New("sampler: non-monotonic sample")

	// ErrInvalidCapacity is returned by Register for a capacity below 1.
	ErrInvalidCapacity = errors.New("sampler: capacity must be positive")

	// ErrNoSource is reported by Tick when the sampler was built without a Source.
	ErrNoSource = errors.New("sampler: no source configured")

	// ErrSourceRead wraps a failed or timed-out source read reported by Tick.
	ErrSourceRead = errors.New("sampler: source read failed")
)
