// Package metrics provides in-process metric accumulators (counters, gauges,
// histograms, timers) and a get-or-create registry producing point-in-time
// snapshots. All types are safe for concurrent use; each metric is linearized
// by its own lock, with no cross-metric atomicity.
package metrics

import "errors"

// Kind defines the semantic type of a metric.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
	KindTimer     Kind = "timer"
)

// ErrKindMismatch is returned when a registry name is re-requested as a
// different metric kind than the one it was first created with.
var ErrKindMismatch = errors.New("metric kind mismatch")

// Metric is implemented by all metric types held in a Registry.
type Metric interface {
	// Name returns the metric name.
	Name() string
	// Description returns the metric description.
	Description() string
	// Kind returns the metric kind, fixed at creation.
	Kind() Kind
	// Reset returns the metric to its empty/zero state.
	Reset()
}
