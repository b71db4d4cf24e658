// Package health aggregates named health checks with a critical/non-critical
// distinction and reports OS resource snapshots from a stats provider.
package health

import (
	"fmt"
	"time"
)

// Status is the outcome a check function reports.
type Status struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// CheckFunc performs a single health check. Check functions must be fast and
// non-blocking; the monitor runs them sequentially with no timeout. A panic
// is recovered and converted into a failed result.
type CheckFunc func() Status

// Check is a registered health check.
type Check struct {
	Name     string
	Critical bool
	fn       CheckFunc
}

// Result is the per-check record in a health report.
type Result struct {
	Healthy   bool           `json:"healthy"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	Critical  bool           `json:"critical"`
	Timestamp time.Time      `json:"timestamp"`
}

// run executes the check, converting a panic into a failed result.
func (c *Check) run() (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Healthy:   false,
				Message:   fmt.Sprintf("check failed: %v", r),
				Details:   map[string]any{"error": fmt.Sprint(r)},
				Critical:  c.Critical,
				Timestamp: time.Now(),
			}
		}
	}()

	s := c.fn()
	if s.Details == nil {
		s.Details = map[string]any{}
	}
	return Result{
		Healthy:   s.Healthy,
		Message:   s.Message,
		Details:   s.Details,
		Critical:  c.Critical,
		Timestamp: time.Now(),
	}
}
