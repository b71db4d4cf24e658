// Package server exposes the vitals HTTP surface: Prometheus scrape, health
// reports, system stats and the event history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obskit/vitals/event"
	"github.com/obskit/vitals/health"
)

const defaultEventLimit = 50

// Server serves the HTTP endpoints over a bus, health monitor and Prometheus
// registry.
type Server struct {
	addr   string
	server *http.Server
}

// New creates the HTTP server.
func New(port int, metricsPath string, promRegistry *prometheus.Registry, monitor *health.Monitor, bus *event.Bus) *Server {
	mux := http.NewServeMux()

	mux.Handle("GET "+metricsPath, promhttp.InstrumentMetricHandler(
		promRegistry,
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
	))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		report := monitor.CheckHealth()

		status := http.StatusOK
		if report.CriticalFailure {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	})

	mux.HandleFunc("GET /health/system", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, monitor.SystemStats())
	})

	mux.HandleFunc("GET /health/memory", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, monitor.MemoryInfo())
	})

	mux.HandleFunc("GET /health/cpu", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, monitor.CPUInfo())
	})

	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		limit := defaultEventLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		events := bus.History(limit)
		if events == nil {
			events = []event.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	})

	addr := fmt.Sprintf(":%d", port)

	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handler returns the routing handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
