// Package exporter bridges a vitals metrics registry to Prometheus scrape
// and OTLP push pipelines.
package exporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obskit/vitals/metrics"
)

// Collector exposes a metrics.Registry as Prometheus metrics. Counters and
// gauges become scalar const metrics; histograms and timers become const
// summaries carrying count, sum and the 0/1 quantiles (min/max).
//
// Metrics are read from the registry on every scrape, so metrics created
// after registration are picked up automatically. That makes this an
// unchecked collector: Describe sends nothing.
type Collector struct {
	registry *metrics.Registry
}

// NewCollector creates a collector over the given registry.
func NewCollector(registry *metrics.Registry) *Collector {
	return &Collector{registry: registry}
}

// Describe implements prometheus.Collector as an unchecked collector.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect snapshots the registry and emits one const metric per entry.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.registry.Metrics() {
		switch v := m.(type) {
		case *metrics.Counter:
			emitScalar(ch, v.Name(), v.Description(), prometheus.CounterValue, v.Value())
		case *metrics.Gauge:
			emitScalar(ch, v.Name(), v.Description(), prometheus.GaugeValue, v.Value())
		case *metrics.Histogram:
			emitSummary(ch, v.Name(), v.Description(), v.Stats())
		case *metrics.Timer:
			h := v.Histogram()
			emitSummary(ch, h.Name(), v.Description(), h.Stats())
		}
	}
}

func emitScalar(ch chan<- prometheus.Metric, name, help string, vt prometheus.ValueType, value float64) {
	desc := prometheus.NewDesc(name, help, nil, nil)
	m, err := prometheus.NewConstMetric(desc, vt, value)
	if err != nil {
		return
	}
	ch <- m
}

func emitSummary(ch chan<- prometheus.Metric, name, help string, s metrics.Stats) {
	desc := prometheus.NewDesc(name, help, nil, nil)
	m, err := prometheus.NewConstSummary(desc, uint64(s.Count), s.Sum, map[float64]float64{
		0: s.Min,
		1: s.Max,
	})
	if err != nil {
		return
	}
	ch <- m
}

// NewPrometheusRegistry creates a Prometheus registry serving the given
// vitals registry.
func NewPrometheusRegistry(registry *metrics.Registry) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(NewCollector(registry))
	return promRegistry
}
