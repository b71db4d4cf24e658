package metrics

import (
	"sync"
	"time"
)

// Timer measures durations of scoped regions and records each one as a single
// observation in a backing histogram named "<name>_seconds".
type Timer struct {
	name        string
	description string
	histogram   *Histogram

	mu   sync.Mutex
	last time.Duration
}

// NewTimer creates a standalone timer. Prefer Registry.Timer for
// registry-managed metrics.
func NewTimer(name, description string) *Timer {
	return &Timer{
		name:        name,
		description: description,
		histogram:   NewHistogram(name+"_seconds", description),
	}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Description returns the timer description.
func (t *Timer) Description() string { return t.description }

// Kind returns KindTimer.
func (t *Timer) Kind() Kind { return KindTimer }

// Histogram returns the backing histogram of recorded durations in seconds.
func (t *Timer) Histogram() *Histogram { return t.histogram }

// Stopwatch is a single in-flight measurement. Stop records the elapsed time
// exactly once; further calls are no-ops.
type Stopwatch struct {
	timer *Timer
	start time.Time
	once  sync.Once
}

// Start begins a measurement. The typical pattern records on every exit path:
//
//	defer t.Start().Stop()
func (t *Timer) Start() *Stopwatch {
	return &Stopwatch{timer: t, start: time.Now()}
}

// Stop ends the measurement and records it. Idempotent.
func (sw *Stopwatch) Stop() {
	sw.once.Do(func() {
		elapsed := time.Since(sw.start)
		sw.timer.record(elapsed)
	})
}

// Time runs fn under a stopwatch, recording its duration on every exit path
// including panics.
func (t *Timer) Time(fn func()) {
	defer t.Start().Stop()
	fn()
}

// Last returns the most recently recorded duration, zero if none.
func (t *Timer) Last() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Reset clears the last duration and the backing histogram.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.last = 0
	t.mu.Unlock()
	t.histogram.Reset()
}

func (t *Timer) record(d time.Duration) {
	t.mu.Lock()
	t.last = d
	t.mu.Unlock()
	t.histogram.Observe(d.Seconds())
}
