package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obskit/vitals/internal/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Metrics)
	assert.NotNil(t, a.Bus)
	assert.NotNil(t, a.Health)
	assert.NotNil(t, a.Server)
	assert.Nil(t, a.Watcher)
	assert.Nil(t, a.Profiler)
	assert.Nil(t, a.OTEL)

	t.Run("default checks registered", func(t *testing.T) {
		report := a.Health.CheckHealth()
		assert.Contains(t, report.Checks, "memory_headroom")
		assert.Contains(t, report.Checks, "disk_capacity")
	})

	t.Run("health endpoint serves", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)
	})
}

func TestNewWithProfiling(t *testing.T) {
	cfg := &config.Config{
		Profiling: config.ProfilingConfig{
			Enabled: true,
			Output:  filepath.Join(t.TempDir(), "cpu.pprof"),
		},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, nil)
	require.NoError(t, err)

	require.NotNil(t, a.Profiler)
	a.Profiler.Start()
	a.Profiler.Span("boot")()

	require.NoError(t, a.Close())
	assert.False(t, a.Profiler.Running())
}

func TestNewWithWatcher(t *testing.T) {
	cfg := &config.Config{
		Watcher: config.WatcherConfig{Enabled: true},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Watcher)
}
