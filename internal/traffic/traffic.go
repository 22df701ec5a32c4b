// Package traffic keeps a sliding window of upstream fetch outcomes. The health
// endpoint reads it to decide whether the app is degraded.
package traffic

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// defaultRetention bounds how long outcomes are kept regardless of the query window.
const defaultRetention = 5 * time.Minute

// Tracker records success and error timestamps.
type Tracker struct {
	mu           sync.Mutex
	clock        clockwork.Clock
	retention    time.Duration
	successTimes []time.Time
	errorTimes   []time.Time
}

// NewTracker returns a Tracker reading time from clock (real clock when nil).
func NewTracker(clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{clock: clock, retention: defaultRetention}
}

// RecordSuccess records a fetch that returned a record.
func (t *Tracker) RecordSuccess() {
	t.record(&t.successTimes)
}

// RecordError records a fetch that failed for an upstream reason.
func (t *Tracker) RecordError() {
	t.record(&t.errorTimes)
}

func (t *Tracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock.Now().Add(-window)
	errCount := countSince(t.errorTimes, cutoff)
	return errCount, errCount + countSince(t.successTimes, cutoff)
}

// Degraded reports whether errors within window exceed thresholdPct percent of outcomes.
// An empty window is never degraded.
func (t *Tracker) Degraded(window time.Duration, thresholdPct int) bool {
	errs, total := t.ErrorRate(window)
	if total == 0 {
		return false
	}
	return errs*100 > thresholdPct*total
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successTimes = nil
	t.errorTimes = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than the retention period. Caller holds mu.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.retention)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for i < len(times) && times[i].Before(cutoff) {
			i++
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.successTimes)
	prune(&t.errorTimes)
}
