package metrics

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	t.Run("same name returns same instance", func(t *testing.T) {
		r := NewRegistry()

		a, err := r.Counter("requests_total", "Total requests")
		require.NoError(t, err)
		b, err := r.Counter("requests_total", "ignored on second access")
		require.NoError(t, err)

		assert.Same(t, a, b)

		a.Inc()
		assert.InDelta(t, 1, b.Value(), 1e-9)
	})

	t.Run("kind mismatch is a defined error", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Counter("latency", "")
		require.NoError(t, err)

		_, err = r.Gauge("latency", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrKindMismatch))

		_, err = r.Histogram("latency", "")
		assert.True(t, errors.Is(err, ErrKindMismatch))
	})

	t.Run("concurrent access yields one instance", func(t *testing.T) {
		r := NewRegistry()

		counters := make([]*Counter, 8)
		errs := make([]error, 8)
		var wg sync.WaitGroup
		for i := range counters {
			wg.Go(func() {
				counters[i], errs[i] = r.Counter("shared", "")
			})
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		for _, c := range counters[1:] {
			assert.Same(t, counters[0], c)
		}
	})
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()

	c, err := r.Counter("requests_total", "")
	require.NoError(t, err)
	c.Add(3)

	g, err := r.Gauge("queue_depth", "")
	require.NoError(t, err)
	g.Set(12)

	h, err := r.Histogram("payload_bytes", "")
	require.NoError(t, err)
	h.Observe(100)
	h.Observe(300)

	tm, err := r.Timer("op_duration", "")
	require.NoError(t, err)
	tm.Time(func() {})

	snap := r.Snapshot()
	require.Len(t, snap, 4)

	assert.InDelta(t, 3, snap["requests_total"].(float64), 1e-9)
	assert.InDelta(t, 12, snap["queue_depth"].(float64), 1e-9)

	stats := snap["payload_bytes"].(Stats)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 400, stats.Sum, 1e-9)

	assert.Equal(t, 1, snap["op_duration"].(Stats).Count)
}

func TestRegistryResetAll(t *testing.T) {
	r := NewRegistry()

	c, err := r.Counter("a", "")
	require.NoError(t, err)
	c.Add(9)

	h, err := r.Histogram("b", "")
	require.NoError(t, err)
	h.Observe(1)

	r.ResetAll()

	assert.Zero(t, c.Value())
	assert.Equal(t, Stats{}, h.Stats())
}
