// Package app wires the vitals components from configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/obskit/vitals/event"
	"github.com/obskit/vitals/health"
	"github.com/obskit/vitals/internal/config"
	"github.com/obskit/vitals/internal/exporter"
	"github.com/obskit/vitals/internal/server"
	"github.com/obskit/vitals/metrics"
	"github.com/obskit/vitals/profile"
)

// heapAlloc gauge beyond this many bytes fails the memory headroom check.
const memoryCheckLimit = 1 << 30

// App holds initialized application components.
type App struct {
	Config   *config.Config
	Metrics  *metrics.Registry
	Bus      *event.Bus
	Health   *health.Monitor
	Profiler *profile.Profiler
	Watcher  *health.Watcher
	OTEL     *exporter.OTELExporter
	Server   *server.Server

	profileOut io.Closer
}

// New initializes the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := metrics.NewRegistry()
	bus := event.NewBus(logger)
	monitor := health.NewMonitor(nil, logger)

	a := &App{
		Config:  cfg,
		Metrics: registry,
		Bus:     bus,
		Health:  monitor,
	}

	if err := registerDefaultChecks(monitor, registry); err != nil {
		return nil, err
	}

	if cfg.Watcher.Enabled {
		watcher, err := health.NewWatcher(cfg.Watcher.Interval, registry, bus, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource watcher: %w", err)
		}
		a.Watcher = watcher
	}

	if cfg.Profiling.Enabled {
		opts := []profile.Option{profile.WithLogger(logger)}
		if cfg.Profiling.Output != "" {
			f, err := os.Create(cfg.Profiling.Output)
			if err != nil {
				return nil, fmt.Errorf("failed to create profile output: %w", err)
			}
			a.profileOut = f
			opts = append(opts, profile.WithOutput(f))
		}
		a.Profiler = profile.New(opts...)
	}

	// OTLP instruments bind to the metric set present here, so the exporter
	// is created after the watcher has registered its gauges.
	if cfg.OTEL != nil && cfg.OTEL.Enabled {
		otelExporter, err := exporter.NewOTELExporter(cfg.OTEL, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to create otel exporter: %w", err)
		}
		a.OTEL = otelExporter
	}

	a.Server = server.New(
		cfg.Server.Port,
		cfg.Server.MetricsPath,
		exporter.NewPrometheusRegistry(registry),
		monitor,
		bus,
	)

	return a, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.Profiler != nil {
		a.Profiler.Stop()
	}
	if a.profileOut != nil {
		return a.profileOut.Close()
	}
	return nil
}

// registerDefaultChecks adds baseline process checks every deployment gets.
func registerDefaultChecks(monitor *health.Monitor, registry *metrics.Registry) error {
	heapGauge, err := registry.Gauge("process_heap_alloc_bytes", "Heap bytes allocated and in use")
	if err != nil {
		return fmt.Errorf("failed to register heap gauge: %w", err)
	}

	monitor.AddCheck("memory_headroom", func() health.Status {
		alloc := heapGauge.Value()
		msg := "heap allocation within limits"
		if alloc >= memoryCheckLimit {
			msg = "heap allocation above limit"
		}
		return health.Status{
			Healthy: alloc < memoryCheckLimit,
			Message: msg,
			Details: map[string]any{"heap_alloc_bytes": alloc, "limit_bytes": memoryCheckLimit},
		}
	}, false)

	monitor.AddCheck("disk_capacity", func() health.Status {
		stats := monitor.SystemStats()
		if errMsg, ok := stats["error"]; ok {
			return health.Status{
				Healthy: false,
				Message: "disk stats unavailable",
				Details: map[string]any{"error": errMsg},
			}
		}
		percent, _ := stats["disk_percent"].(float64)
		msg := "disk usage within limits"
		if percent >= 95 {
			msg = "disk nearly full"
		}
		return health.Status{
			Healthy: percent < 95,
			Message: msg,
			Details: map[string]any{"disk_percent": percent},
		}
	}, true)

	return nil
}
