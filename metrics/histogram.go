package metrics

import "sync"

// Stats is a point-in-time summary of a histogram's observations.
type Stats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// Histogram records observed float samples and derives summary statistics.
// Observations are kept in full; Stats walks them at call time rather than
// maintaining incremental aggregates.
type Histogram struct {
	name        string
	description string

	mu           sync.Mutex
	observations []float64
}

// NewHistogram creates a standalone histogram. Prefer Registry.Histogram for
// registry-managed metrics.
func NewHistogram(name, description string) *Histogram {
	return &Histogram{name: name, description: description}
}

// Name returns the histogram name.
func (h *Histogram) Name() string { return h.name }

// Description returns the histogram description.
func (h *Histogram) Description() string { return h.description }

// Kind returns KindHistogram.
func (h *Histogram) Kind() Kind { return KindHistogram }

// Observe records a single observation.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	h.observations = append(h.observations, v)
	h.mu.Unlock()
}

// Stats derives count, sum, min, max and avg over all recorded observations.
// An empty histogram yields the zero Stats.
func (h *Histogram) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.observations) == 0 {
		return Stats{}
	}

	s := Stats{
		Count: len(h.observations),
		Min:   h.observations[0],
		Max:   h.observations[0],
	}
	for _, v := range h.observations {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = s.Sum / float64(s.Count)
	return s
}

// Reset clears all observations.
func (h *Histogram) Reset() {
	h.mu.Lock()
	h.observations = nil
	h.mu.Unlock()
}
