package sampler

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

// fakeSource returns canned values or errors per metric.
type fakeSource struct {
	mu     sync.Mutex
	values map[MetricID]float64
	errs   map[MetricID]error
	hang   map[MetricID]bool
	calls  map[MetricID]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		values: make(map[MetricID]float64),
		errs:   make(map[MetricID]error),
		hang:   make(map[MetricID]bool),
		calls:  make(map[MetricID]int),
	}
}

func (f *fakeSource) Read(ctx context.Context, id MetricID) (float64, error) {
	f.mu.Lock()
	f.calls[id]++
	v, err, hang := f.values[id], f.errs[id], f.hang[id]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return v, err
}

// stepClock returns successive seconds starting at 1.
func stepClock() Clock {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return at(n)
	}
}

func TestRegister(t *testing.T) {
	s := New(nil, Config{})

	require.NoError(t, s.Register("cpu", KindPercent, 60))

	err := s.Register("cpu", KindPercent, 60)
	assert.ErrorIs(t, err, ErrDuplicateMetric)

	err = s.Register("mem", KindBytes, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	assert.Equal(t, []MetricID{"cpu"}, s.Metrics())
}

func TestRecordUnknownMetric(t *testing.T) {
	s := New(nil, Config{})

	err := s.Record("cpu", 50, at(5))
	assert.ErrorIs(t, err, ErrUnknownMetric)

	_, err = s.Snapshot("cpu")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestRecordEvictsOldest(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("cpu", KindPercent, 3))

	for i, v := range []float64{10, 20, 30, 40} {
		require.NoError(t, s.Record("cpu", v, at(i+1)))
	}

	snap, err := s.Snapshot("cpu")
	require.NoError(t, err)
	assert.Equal(t, []Sample{
		{Time: at(2), Value: 20},
		{Time: at(3), Value: 30},
		{Time: at(4), Value: 40},
	}, snap.Samples)
	assert.Equal(t, 3, snap.Capacity)
	assert.Equal(t, KindPercent, snap.Kind)
}

func TestSnapshotNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 7, 60} {
		s := New(nil, Config{})
		require.NoError(t, s.Register("m", KindCount, capacity))

		for i := 1; i <= capacity*3+1; i++ {
			require.NoError(t, s.Record("m", float64(i), at(i)))
			snap, err := s.Snapshot("m")
			require.NoError(t, err)
			require.LessOrEqual(t, snap.Len(), capacity)
		}

		snap, _ := s.Snapshot("m")
		require.Len(t, snap.Samples, capacity)
		last := capacity*3 + 1
		for i, smp := range snap.Samples {
			want := last - capacity + 1 + i
			assert.Equal(t, float64(want), smp.Value)
			assert.Equal(t, at(want), smp.Time)
		}
	}
}

func TestRecordNonMonotonic(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("cpu", KindPercent, 5))
	require.NoError(t, s.Record("cpu", 1, at(10)))
	require.NoError(t, s.Record("cpu", 2, at(20)))

	before, _ := s.Snapshot("cpu")

	err := s.Record("cpu", 3, at(15))
	assert.ErrorIs(t, err, ErrNonMonotonicSample)
	err = s.RecordGap("cpu", at(19))
	assert.ErrorIs(t, err, ErrNonMonotonicSample)

	after, _ := s.Snapshot("cpu")
	assert.Equal(t, before, after)

	// Equal timestamps are non-decreasing and accepted.
	assert.NoError(t, s.Record("cpu", 4, at(20)))
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("cpu", KindPercent, 2))
	require.NoError(t, s.Record("cpu", 1, at(1)))

	snap, _ := s.Snapshot("cpu")
	snap.Samples[0].Value = 99

	require.NoError(t, s.Record("cpu", 2, at(2)))
	require.NoError(t, s.Record("cpu", 3, at(3)))

	assert.Len(t, snap.Samples, 1)
	assert.Equal(t, 99.0, snap.Samples[0].Value)

	fresh, _ := s.Snapshot("cpu")
	assert.Equal(t, []float64{2, 3}, fresh.Values())
}

func TestMetricsAreIndependent(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("a", KindPercent, 2))
	require.NoError(t, s.Register("b", KindPercent, 4))

	require.NoError(t, s.Record("a", 1, at(10)))
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Record("b", float64(i), at(i)))
	}
	// b's earlier timestamps never affect a's monotonicity check.
	assert.ErrorIs(t, s.Record("b", 0, at(1)), ErrNonMonotonicSample)

	a, _ := s.Snapshot("a")
	assert.Equal(t, []Sample{{Time: at(10), Value: 1}}, a.Samples)
	b, _ := s.Snapshot("b")
	assert.Equal(t, []float64{2, 3, 4, 5}, b.Values())
}

func TestTickRecordsValuesAndGaps(t *testing.T) {
	src := newFakeSource()
	src.values["cpu"] = 42
	src.errs["memory"] = errors.New("source unavailable")

	s := New(src, Config{Clock: stepClock()})
	require.NoError(t, s.Register("cpu", KindPercent, 60))
	require.NoError(t, s.Register("memory", KindBytes, 60))

	report := s.Tick(context.Background())

	assert.Equal(t, at(1), report.Time)
	assert.Equal(t, 1, report.Recorded)
	assert.Equal(t, 1, report.Gaps)
	require.Contains(t, report.Failures, MetricID("memory"))
	assert.ErrorIs(t, report.Failures["memory"], ErrSourceRead)
	assert.NotContains(t, report.Failures, MetricID("cpu"))

	cpu, _ := s.Snapshot("cpu")
	assert.Equal(t, []Sample{{Time: at(1), Value: 42}}, cpu.Samples)

	mem, _ := s.Snapshot("memory")
	require.Len(t, mem.Samples, 1)
	assert.True(t, mem.Samples[0].Gap)
	assert.Equal(t, at(1), mem.Samples[0].Time)
	assert.True(t, math.IsNaN(mem.Values()[0]))
}

func TestTickReadTimeoutBecomesGap(t *testing.T) {
	src := newFakeSource()
	src.values["cpu"] = 7
	src.hang["disk"] = true

	s := New(src, Config{ReadTimeout: 20 * time.Millisecond, Clock: stepClock()})
	require.NoError(t, s.Register("cpu", KindPercent, 5))
	require.NoError(t, s.Register("disk", KindPercent, 5))

	start := time.Now()
	report := s.Tick(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, 1, report.Recorded)
	assert.ErrorIs(t, report.Failures["disk"], ErrSourceRead)
	assert.ErrorIs(t, report.Failures["disk"], context.DeadlineExceeded)

	disk, _ := s.Snapshot("disk")
	require.Len(t, disk.Samples, 1)
	assert.True(t, disk.Samples[0].Gap)
}

func TestTickConcurrencyLimit(t *testing.T) {
	src := newFakeSource()
	s := New(src, Config{MaxConcurrentReads: 1, Clock: stepClock()})
	for _, id := range []MetricID{"a", "b", "c"} {
		src.values[id] = 1
		require.NoError(t, s.Register(id, KindCount, 3))
	}

	report := s.Tick(context.Background())
	assert.Equal(t, 3, report.Recorded)
	assert.Empty(t, report.Failures)
}

func TestTickWithoutSource(t *testing.T) {
	s := New(nil, Config{Clock: stepClock()})
	require.NoError(t, s.Register("cpu", KindPercent, 2))

	report := s.Tick(context.Background())
	assert.Equal(t, 1, report.Gaps)
	assert.ErrorIs(t, report.Failures["cpu"], ErrSourceRead)
	assert.ErrorIs(t, report.Failures["cpu"], ErrNoSource)
}

func TestRingClampsCapacity(t *testing.T) {
	r := newRing(0)
	assert.Equal(t, 1, r.Cap())

	require.NoError(t, r.Append(Sample{Time: at(1), Value: 1}))
	require.NoError(t, r.Append(Sample{Time: at(2), Value: 2}))
	assert.Equal(t, []Sample{{Time: at(2), Value: 2}}, r.Samples())
}

func TestConcurrentRecordAndSnapshot(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("cpu", KindPercent, 8))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 2000; i++ {
			_ = s.Record("cpu", float64(i), at(i))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				snap, err := s.Snapshot("cpu")
				if err != nil {
					t.Error(err)
					return
				}
				if snap.Len() > 8 {
					t.Errorf("snapshot length %d exceeds capacity", snap.Len())
					return
				}
				for j := 1; j < len(snap.Samples); j++ {
					if snap.Samples[j].Time.Before(snap.Samples[j-1].Time) {
						t.Error("snapshot out of order")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestSnapshotAll(t *testing.T) {
	s := New(nil, Config{})
	require.NoError(t, s.Register("b", KindPercent, 2))
	require.NoError(t, s.Register("a", KindPercent, 2))
	require.NoError(t, s.Record("a", 5, at(1)))

	all := s.SnapshotAll()
	require.Len(t, all, 2)
	assert.Equal(t, MetricID("b"), all[0].Metric)
	assert.Equal(t, MetricID("a"), all[1].Metric)
	assert.Equal(t, 1, all[1].Len())
}
