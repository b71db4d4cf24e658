package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/obskit/vitals/internal/config"
	"github.com/obskit/vitals/metrics"
)

// OTELExporter pushes registry metrics to an OTLP collector on an interval.
// Instruments are bound at construction from the registry's current metric
// set; metrics created later appear on the Prometheus endpoint only.
type OTELExporter struct {
	config        *config.OTELConfig
	meterProvider *sdkmetric.MeterProvider
}

// NewOTELExporter creates an OTLP exporter over the registry.
func NewOTELExporter(cfg *config.OTELConfig, registry *metrics.Registry) (*OTELExporter, error) {
	res, err := createResource(cfg.Resource)
	if err != nil {
		return nil, err
	}

	exp, err := createExporter(cfg)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	meter := meterProvider.Meter("vitals")

	if err := registerInstruments(meter, registry); err != nil {
		return nil, err
	}

	return &OTELExporter{
		config:        cfg,
		meterProvider: meterProvider,
	}, nil
}

func createResource(attrs map[string]string) (*resource.Resource, error) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(kvs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func createExporter(cfg *config.OTELConfig) (sdkmetric.Exporter, error) {
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithInsecure(),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}
		exp, err := otlpmetricgrpc.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		return exp, nil

	default:
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithInsecure(),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		exp, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		return exp, nil
	}
}

// registerInstruments creates one observable instrument per registry metric
// and a single callback reading current values at push time. Histograms and
// timers export their running count and sum.
func registerInstruments(meter otelmetric.Meter, registry *metrics.Registry) error {
	var observables []otelmetric.Observable
	var observe []func(otelmetric.Observer)

	for _, m := range registry.Metrics() {
		switch v := m.(type) {
		case *metrics.Counter:
			counter, err := meter.Float64ObservableCounter(
				v.Name(),
				otelmetric.WithDescription(v.Description()),
			)
			if err != nil {
				return fmt.Errorf("failed to create counter %q: %w", v.Name(), err)
			}
			observables = append(observables, counter)
			observe = append(observe, func(o otelmetric.Observer) {
				o.ObserveFloat64(counter, v.Value())
			})

		case *metrics.Gauge:
			gauge, err := meter.Float64ObservableGauge(
				v.Name(),
				otelmetric.WithDescription(v.Description()),
			)
			if err != nil {
				return fmt.Errorf("failed to create gauge %q: %w", v.Name(), err)
			}
			observables = append(observables, gauge)
			observe = append(observe, func(o otelmetric.Observer) {
				o.ObserveFloat64(gauge, v.Value())
			})

		case *metrics.Histogram:
			fns, obs, err := summaryInstruments(meter, v.Name(), v.Description(), v.Stats)
			if err != nil {
				return err
			}
			observables = append(observables, obs...)
			observe = append(observe, fns...)

		case *metrics.Timer:
			h := v.Histogram()
			fns, obs, err := summaryInstruments(meter, h.Name(), v.Description(), h.Stats)
			if err != nil {
				return err
			}
			observables = append(observables, obs...)
			observe = append(observe, fns...)
		}

		slog.Info("registered otel metric", "name", m.Name(), "kind", m.Kind())
	}

	_, err := meter.RegisterCallback(
		func(ctx context.Context, observer otelmetric.Observer) error {
			for _, fn := range observe {
				fn(observer)
			}
			return nil
		},
		observables...,
	)
	if err != nil {
		return fmt.Errorf("failed to register callback: %w", err)
	}
	return nil
}

func summaryInstruments(
	meter otelmetric.Meter,
	name, description string,
	stats func() metrics.Stats,
) ([]func(otelmetric.Observer), []otelmetric.Observable, error) {
	count, err := meter.Int64ObservableCounter(
		name+".count",
		otelmetric.WithDescription(description),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create counter %q: %w", name+".count", err)
	}

	sum, err := meter.Float64ObservableCounter(
		name+".sum",
		otelmetric.WithDescription(description),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create counter %q: %w", name+".sum", err)
	}

	fn := func(o otelmetric.Observer) {
		s := stats()
		o.ObserveInt64(count, int64(s.Count))
		o.ObserveFloat64(sum, s.Sum)
	}
	return []func(otelmetric.Observer){fn}, []otelmetric.Observable{count, sum}, nil
}

// Start blocks until ctx is cancelled; the periodic reader pushes in the
// background. Safe to call in any order relative to Stop: the exporter
// holds no mutable lifecycle state.
func (e *OTELExporter) Start(ctx context.Context) error {
	slog.Info("starting otel exporter",
		"endpoint", e.config.Endpoint,
		"protocol", e.config.Protocol,
		"push_interval", e.config.Interval,
	)

	<-ctx.Done()
	return nil
}

// Stop flushes and shuts down the meter provider.
func (e *OTELExporter) Stop() error {
	slog.Info("shutting down otel exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.meterProvider.Shutdown(ctx)
}
