// internal/metrics/timing.go
package metrics

import (
	"sync"
	"time"
)

// Timing accumulates paint durations reported by a render pipeline.
// Updates arrive from the pipeline's goroutine while the run goroutine reads the
// totals at report time, so every access goes through the mutex.
type Timing struct {
	mutex sync.Mutex
	count int64
	min   time.Duration
	max   time.Duration
	sum   time.Duration
}

// TimingSnapshot is a consistent copy of a Timing aggregate.
type TimingSnapshot struct {
	Count   int64         `json:"count"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Sum     time.Duration `json:"sum"`
	Average time.Duration `json:"average"`
}

// NewTiming returns an empty aggregate.
func NewTiming() *Timing {
	return &Timing{}
}

// Update records one sample.
func (t *Timing) Update(sample time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.count++
	if t.count == 1 {
		t.min = sample
		t.max = sample
	} else {
		if sample < t.min {
			t.min = sample
		}
		if sample > t.max {
			t.max = sample
		}
	}
	t.sum += sample
}

// Count returns the number of samples recorded.
func (t *Timing) Count() int64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.count
}

// Min returns the smallest sample, or zero when nothing was recorded.
func (t *Timing) Min() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.min
}

// Max returns the largest sample, or zero when nothing was recorded.
func (t *Timing) Max() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.max
}

// Sum returns the total of all samples.
func (t *Timing) Sum() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.sum
}

// Average returns sum/count, or zero when nothing was recorded.
func (t *Timing) Average() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return average(t.sum, t.count)
}

// Snapshot copies all totals under a single lock.
func (t *Timing) Snapshot() TimingSnapshot {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return TimingSnapshot{
		Count:   t.count,
		Min:     t.min,
		Max:     t.max,
		Sum:     t.sum,
		Average: average(t.sum, t.count),
	}
}

func average(sum time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return sum / time.Duration(count)
}

// Millis converts a duration to fractional milliseconds for reporting.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
