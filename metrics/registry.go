package metrics

import (
	"fmt"
	"sync"
)

// Registry maps names to metric instances. The kind of a name is fixed by the
// first creation call; requesting an existing name as a different kind is a
// usage error. Construct one registry per process (or per test) and pass it
// to collaborators explicitly.
type Registry struct {
	mu      sync.Mutex
	metrics map[string]Metric
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Counter returns the counter registered under name, creating it on first
// access. Returns ErrKindMismatch if name already holds a different kind.
func (r *Registry) Counter(name, description string) (*Counter, error) {
	m, err := r.getOrCreate(name, KindCounter, func() Metric {
		return NewCounter(name, description)
	})
	if err != nil {
		return nil, err
	}
	return m.(*Counter), nil
}

// Gauge returns the gauge registered under name, creating it on first access.
func (r *Registry) Gauge(name, description string) (*Gauge, error) {
	m, err := r.getOrCreate(name, KindGauge, func() Metric {
		return NewGauge(name, description)
	})
	if err != nil {
		return nil, err
	}
	return m.(*Gauge), nil
}

// Histogram returns the histogram registered under name, creating it on first
// access.
func (r *Registry) Histogram(name, description string) (*Histogram, error) {
	m, err := r.getOrCreate(name, KindHistogram, func() Metric {
		return NewHistogram(name, description)
	})
	if err != nil {
		return nil, err
	}
	return m.(*Histogram), nil
}

// Timer returns the timer registered under name, creating it on first access.
func (r *Registry) Timer(name, description string) (*Timer, error) {
	m, err := r.getOrCreate(name, KindTimer, func() Metric {
		return NewTimer(name, description)
	})
	if err != nil {
		return nil, err
	}
	return m.(*Timer), nil
}

func (r *Registry) getOrCreate(name string, kind Kind, create func() Metric) (Metric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.metrics[name]; ok {
		if existing.Kind() != kind {
			return nil, fmt.Errorf("metric %q registered as %s, requested as %s: %w",
				name, existing.Kind(), kind, ErrKindMismatch)
		}
		return existing, nil
	}

	m := create()
	r.metrics[name] = m
	return m, nil
}

// Metrics returns all registered metrics in unspecified order.
func (r *Registry) Metrics() []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		out = append(out, m)
	}
	return out
}

// Snapshot produces a point-in-time view of every registered metric: a
// float64 for counters and gauges, a Stats record for histograms and timers.
func (r *Registry) Snapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]any, len(r.metrics))
	for name, m := range r.metrics {
		switch v := m.(type) {
		case *Counter:
			out[name] = v.Value()
		case *Gauge:
			out[name] = v.Value()
		case *Histogram:
			out[name] = v.Stats()
		case *Timer:
			out[name] = v.Histogram().Stats()
		}
	}
	return out
}

// ResetAll resets every registered metric to its empty/zero state. In-flight
// mutations race benignly: each lands either before or after the reset.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Reset()
	}
}
