package metrics

import "sync"

// Counter is a running-total accumulator. Deltas may be negative, so it can
// also serve as a delta accumulator rather than a strictly monotonic counter.
type Counter struct {
	name        string
	description string

	mu    sync.Mutex
	value float64
}

// NewCounter creates a standalone counter. Prefer Registry.Counter for
// registry-managed metrics.
func NewCounter(name, description string) *Counter {
	return &Counter{name: name, description: description}
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Description returns the counter description.
func (c *Counter) Description() string { return c.description }

// Kind returns KindCounter.
func (c *Counter) Kind() Kind { return KindCounter }

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add adds delta to the counter. Negative deltas are accepted.
func (c *Counter) Add(delta float64) {
	c.mu.Lock()
	c.value += delta
	c.mu.Unlock()
}

// Value returns the current accumulated total.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Reset sets the counter back to zero.
func (c *Counter) Reset() {
	c.mu.Lock()
	c.value = 0
	c.mu.Unlock()
}
