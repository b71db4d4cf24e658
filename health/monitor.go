package health

import (
	"log/slog"
	"sync"
	"time"
)

// StatsProvider supplies OS resource snapshots. The gopsutil-backed provider
// from NewProvider is the production implementation; tests substitute stubs.
type StatsProvider interface {
	SystemStats() (map[string]any, error)
	MemoryInfo() (map[string]any, error)
	CPUInfo() (map[string]any, error)
}

// Report is the aggregate outcome of running every registered check.
type Report struct {
	Healthy         bool              `json:"healthy"`
	CriticalFailure bool              `json:"critical_failure"`
	Checks          map[string]Result `json:"checks"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Monitor holds registered health checks and a stats provider. Reports are
// produced fresh per invocation, never cached.
type Monitor struct {
	provider StatsProvider
	logger   *slog.Logger

	mu     sync.Mutex
	checks []*Check
}

// NewMonitor creates a monitor backed by the given provider. A nil provider
// falls back to the gopsutil implementation.
func NewMonitor(provider StatsProvider, logger *slog.Logger) *Monitor {
	if provider == nil {
		provider = NewProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{provider: provider, logger: logger}
}

// AddCheck registers a named check. Duplicate names are appended, not
// replaced; each registration runs on every CheckHealth call.
func (m *Monitor) AddCheck(name string, fn CheckFunc, critical bool) {
	m.mu.Lock()
	m.checks = append(m.checks, &Check{Name: name, Critical: critical, fn: fn})
	m.mu.Unlock()

	m.logger.Info("added health check", "name", name, "critical", critical)
}

// CheckHealth runs every registered check sequentially and aggregates the
// results. Healthy is the AND over all checks; CriticalFailure is set iff at
// least one critical check is unhealthy. Check functions run outside the
// monitor lock.
func (m *Monitor) CheckHealth() Report {
	m.mu.Lock()
	checks := make([]*Check, len(m.checks))
	copy(checks, m.checks)
	m.mu.Unlock()

	report := Report{
		Healthy: true,
		Checks:  make(map[string]Result, len(checks)),
	}

	for _, c := range checks {
		res := c.run()
		report.Checks[c.Name] = res

		if !res.Healthy {
			report.Healthy = false
			if c.Critical {
				report.CriticalFailure = true
			}
			m.logger.Warn("health check failed",
				"name", c.Name, "critical", c.Critical, "message", res.Message)
		}
	}

	report.Timestamp = time.Now()
	return report
}

// SystemStats returns current CPU, memory and disk usage. Provider failure
// degrades to an error payload rather than an error return, so a health
// endpoint can always render something.
func (m *Monitor) SystemStats() map[string]any {
	return m.readThrough("system stats", m.provider.SystemStats)
}

// MemoryInfo returns detailed virtual and swap memory information.
func (m *Monitor) MemoryInfo() map[string]any {
	return m.readThrough("memory info", m.provider.MemoryInfo)
}

// CPUInfo returns detailed CPU information.
func (m *Monitor) CPUInfo() map[string]any {
	return m.readThrough("cpu info", m.provider.CPUInfo)
}

func (m *Monitor) readThrough(what string, read func() (map[string]any, error)) map[string]any {
	stats, err := read()
	if err != nil {
		m.logger.Error("failed to read "+what, "error", err)
		return map[string]any{"error": err.Error()}
	}
	return stats
}
