package health

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/obskit/vitals/event"
	"github.com/obskit/vitals/metrics"
)

// EventResources is published by the watcher on every collection cycle.
const EventResources = "system.resources"

// Watcher periodically samples process resource usage, feeds it into gauges
// on a metrics registry, publishes a system.resources event and logs a
// compact resource line with a saturation classification.
type Watcher struct {
	interval time.Duration
	logger   *slog.Logger
	registry *metrics.Registry
	bus      *event.Bus
	proc     *process.Process
	wg       sync.WaitGroup

	cpuPercent *metrics.Gauge
	heapAlloc  *metrics.Gauge
	goroutines *metrics.Gauge
}

// NewWatcher creates a watcher with the given collection interval. The
// registry and bus may each be nil to disable that sink. Fails if a watcher
// gauge name is already registered under a different kind.
func NewWatcher(interval time.Duration, registry *metrics.Registry, bus *event.Bus, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process handle: %w", err)
	}

	w := &Watcher{
		interval: interval,
		logger:   logger,
		registry: registry,
		bus:      bus,
		proc:     proc,
	}

	if registry != nil {
		if w.cpuPercent, err = registry.Gauge("process_cpu_percent", "Process CPU usage percent"); err != nil {
			return nil, fmt.Errorf("failed to register watcher gauge: %w", err)
		}
		if w.heapAlloc, err = registry.Gauge("process_heap_alloc_bytes", "Heap bytes allocated and in use"); err != nil {
			return nil, fmt.Errorf("failed to register watcher gauge: %w", err)
		}
		if w.goroutines, err = registry.Gauge("process_goroutines", "Number of live goroutines"); err != nil {
			return nil, fmt.Errorf("failed to register watcher gauge: %w", err)
		}
	}

	return w, nil
}

// Run starts the collection loop in a background goroutine. The loop stops
// when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.wg.Go(func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		// Immediate first collection
		w.collect()

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("watcher shutdown complete")
				return
			case <-ticker.C:
				w.collect()
			}
		}
	})
}

// Wait blocks until the watcher goroutine exits.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) collect() {
	processCPU, err := w.proc.CPUPercent()
	if err != nil {
		w.logger.Warn("failed to get CPU percent", "error", err)
		processCPU = 0
	}

	cores := runtime.GOMAXPROCS(-1)
	maxCPU := float64(cores * 100)

	utilization := 0.0
	if maxCPU > 0 {
		utilization = processCPU / maxCPU
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	goroutines := runtime.NumGoroutine()

	saturation := "normal"
	if utilization > 0.95 {
		saturation = "saturated"
	} else if utilization > 0.80 {
		saturation = "high"
	}

	if w.registry != nil {
		w.cpuPercent.Set(processCPU)
		w.heapAlloc.Set(float64(ms.HeapAlloc))
		w.goroutines.Set(float64(goroutines))
	}

	if w.bus != nil {
		w.bus.Publish(EventResources, map[string]any{
			"cpu_percent":     processCPU,
			"utilization":     utilization,
			"cores":           cores,
			"goroutines":      goroutines,
			"heap_alloc":      ms.HeapAlloc,
			"heap_sys":        ms.HeapSys,
			"gc_cycles":       ms.NumGC,
			"gc_cpu_fraction": ms.GCCPUFraction,
			"saturation":      saturation,
		}, nil)
	}

	w.logger.Info("resource",
		"cpu", processCPU,
		"util", utilization,
		"cores", cores,
		"gor", goroutines,
		"heap_alloc", ms.HeapAlloc,
		"gc", ms.NumGC,
		"sat", saturation,
	)

	if saturation == "saturated" {
		w.logger.Warn("cpu saturation detected",
			"cpu", processCPU,
			"util_pct", utilization*100,
			"action", "reduce load or increase GOMAXPROCS",
		)
	}
}
