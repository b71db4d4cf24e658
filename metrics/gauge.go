package metrics

import "sync"

// Gauge tracks the latest committed value. Set overrides, Inc/Dec/Add compose
// additively in commit order under the gauge's lock.
type Gauge struct {
	name        string
	description string

	mu    sync.Mutex
	value float64
}

// NewGauge creates a standalone gauge. Prefer Registry.Gauge for
// registry-managed metrics.
func NewGauge(name, description string) *Gauge {
	return &Gauge{name: name, description: description}
}

// Name returns the gauge name.
func (g *Gauge) Name() string { return g.name }

// Description returns the gauge description.
func (g *Gauge) Description() string { return g.description }

// Kind returns KindGauge.
func (g *Gauge) Kind() Kind { return KindGauge }

// Set sets the gauge to v.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds delta to the gauge. delta can be negative.
func (g *Gauge) Add(delta float64) {
	g.mu.Lock()
	g.value += delta
	g.mu.Unlock()
}

// Value returns the latest committed value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Reset sets the gauge back to zero.
func (g *Gauge) Reset() {
	g.mu.Lock()
	g.value = 0
	g.mu.Unlock()
}
