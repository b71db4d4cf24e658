package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obskit/vitals/event"
	"github.com/obskit/vitals/health"
	"github.com/obskit/vitals/internal/exporter"
	"github.com/obskit/vitals/metrics"
)

type stubProvider struct {
	stats map[string]any
	err   error
}

func (s *stubProvider) SystemStats() (map[string]any, error) { return s.stats, s.err }
func (s *stubProvider) MemoryInfo() (map[string]any, error)  { return s.stats, s.err }
func (s *stubProvider) CPUInfo() (map[string]any, error)     { return s.stats, s.err }

func newTestServer(t *testing.T, provider health.StatsProvider) (*Server, *metrics.Registry, *health.Monitor, *event.Bus) {
	t.Helper()

	reg := metrics.NewRegistry()
	bus := event.NewBus(nil)
	monitor := health.NewMonitor(provider, nil)
	srv := New(0, "/metrics", exporter.NewPrometheusRegistry(reg), monitor, bus)
	return srv, reg, monitor, bus
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	srv, reg, _, _ := newTestServer(t, &stubProvider{})

	c, err := reg.Counter("requests_total", "Total requests")
	require.NoError(t, err)
	c.Add(5)

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests_total 5")
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy returns 200", func(t *testing.T) {
		srv, _, monitor, _ := newTestServer(t, &stubProvider{})
		monitor.AddCheck("database", func() health.Status {
			return health.Status{Healthy: true, Message: "ok"}
		}, true)

		rec := get(t, srv, "/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.Healthy)
		assert.Contains(t, report.Checks, "database")
	})

	t.Run("critical failure returns 503", func(t *testing.T) {
		srv, _, monitor, _ := newTestServer(t, &stubProvider{})
		monitor.AddCheck("database", func() health.Status {
			return health.Status{Healthy: false, Message: "down"}
		}, true)

		rec := get(t, srv, "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("non-critical failure returns 200", func(t *testing.T) {
		srv, _, monitor, _ := newTestServer(t, &stubProvider{})
		monitor.AddCheck("cache", func() health.Status {
			return health.Status{Healthy: false, Message: "cold"}
		}, false)

		rec := get(t, srv, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSystemEndpoints(t *testing.T) {
	t.Run("stats pass through", func(t *testing.T) {
		srv, _, _, _ := newTestServer(t, &stubProvider{stats: map[string]any{"cpu_percent": 12.5}})

		rec := get(t, srv, "/health/system")
		require.Equal(t, http.StatusOK, rec.Code)

		var stats map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 12.5, stats["cpu_percent"])
	})

	t.Run("provider failure still renders", func(t *testing.T) {
		srv, _, _, _ := newTestServer(t, &stubProvider{err: errors.New("proc unavailable")})

		for _, path := range []string{"/health/system", "/health/memory", "/health/cpu"} {
			rec := get(t, srv, path)
			require.Equal(t, http.StatusOK, rec.Code, path)

			var payload map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, "proc unavailable", payload["error"])
		}
	})
}

func TestEventsEndpoint(t *testing.T) {
	t.Run("returns history newest-last", func(t *testing.T) {
		srv, _, _, bus := newTestServer(t, &stubProvider{})
		bus.Publish("a", nil, nil)
		bus.Publish("b", nil, nil)

		rec := get(t, srv, "/events?limit=10")
		require.Equal(t, http.StatusOK, rec.Code)

		var events []event.Event
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		require.Len(t, events, 2)
		assert.Equal(t, "a", events[0].Name)
		assert.Equal(t, "b", events[1].Name)
	})

	t.Run("empty history renders empty array", func(t *testing.T) {
		srv, _, _, _ := newTestServer(t, &stubProvider{})

		rec := get(t, srv, "/events")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		srv, _, _, _ := newTestServer(t, &stubProvider{})

		rec := get(t, srv, "/events?limit=zero")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
