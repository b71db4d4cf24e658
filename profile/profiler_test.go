package profile

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerStartStop(t *testing.T) {
	t.Run("double stop is a no-op", func(t *testing.T) {
		p := New()
		p.Start()
		p.Stop()
		assert.NotPanics(t, func() { p.Stop() })
		assert.False(t, p.Running())
	})

	t.Run("double start is a no-op", func(t *testing.T) {
		p := New()
		p.Start()
		p.Start()
		assert.True(t, p.Running())
		p.Stop()
	})

	t.Run("restart begins a fresh window", func(t *testing.T) {
		p := New()
		p.Start()
		p.Span("op")()
		p.Stop()
		require.Equal(t, 1, p.Stats().TotalCalls)

		p.Start()
		assert.Zero(t, p.Stats().TotalCalls)
		p.Stop()
	})

	t.Run("cpu profile written to output", func(t *testing.T) {
		var buf bytes.Buffer
		p := New(WithOutput(&buf))
		p.Start()
		time.Sleep(10 * time.Millisecond)
		p.Stop()

		assert.Positive(t, buf.Len())
	})
}

func TestProfilerSpans(t *testing.T) {
	t.Run("accounts calls and times", func(t *testing.T) {
		p := New()
		p.Start()

		for range 3 {
			stop := p.Span("inner")
			time.Sleep(time.Millisecond)
			stop()
		}
		p.Stop()

		report := p.Report(SortCalls, 10)
		require.Len(t, report, 1)
		assert.Equal(t, "inner", report[0].Name)
		assert.Equal(t, 3, report[0].Calls)
		assert.Greater(t, report[0].Cumulative, time.Duration(0))
	})

	t.Run("own time excludes nested spans", func(t *testing.T) {
		p := New()
		p.Start()

		stopOuter := p.Span("outer")
		stopInner := p.Span("inner")
		time.Sleep(5 * time.Millisecond)
		stopInner()
		stopOuter()
		p.Stop()

		byName := map[string]Entry{}
		for _, e := range p.Report(SortCumulative, 10) {
			byName[e.Name] = e
		}

		require.Contains(t, byName, "outer")
		require.Contains(t, byName, "inner")
		assert.Less(t, byName["outer"].Own, byName["outer"].Cumulative)
		assert.GreaterOrEqual(t, byName["outer"].Cumulative, byName["inner"].Cumulative)
	})

	t.Run("span outside session is a no-op", func(t *testing.T) {
		p := New()
		stop := p.Span("ignored")
		stop()
		assert.Empty(t, p.Report(SortCumulative, 10))
	})

	t.Run("stop function is idempotent", func(t *testing.T) {
		p := New()
		p.Start()
		stop := p.Span("once")
		stop()
		stop()
		p.Stop()

		assert.Equal(t, 1, p.Stats().TotalCalls)
	})
}

func TestReportSorting(t *testing.T) {
	p := New()
	p.Start()

	for range 5 {
		p.Span("frequent")()
	}
	stop := p.Span("slow")
	time.Sleep(5 * time.Millisecond)
	stop()
	p.Stop()

	byCalls := p.Report(SortCalls, 10)
	assert.Equal(t, "frequent", byCalls[0].Name)

	byCum := p.Report(SortCumulative, 10)
	assert.Equal(t, "slow", byCum[0].Name)

	limited := p.Report(SortCalls, 1)
	assert.Len(t, limited, 1)
}

func TestWrap(t *testing.T) {
	t.Run("propagates result", func(t *testing.T) {
		wantErr := errors.New("downstream failure")

		calls := 0
		wrapped := Wrap("op", func() error {
			calls++
			return wantErr
		})

		err := wrapped()
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("context variant passes ctx", func(t *testing.T) {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "v")

		wrapped := WrapContext("op", func(got context.Context) error {
			assert.Equal(t, "v", got.Value(key{}))
			return nil
		})

		require.NoError(t, wrapped(ctx))
	})
}

func TestBlock(t *testing.T) {
	t.Run("nested spans recorded", func(t *testing.T) {
		var report []Entry
		Block("batch", func(p *Profiler) {
			p.Span("step")()
			report = p.Report(SortCalls, 10)
		})

		require.NotEmpty(t, report)
		assert.Equal(t, "step", report[0].Name)
	})

	t.Run("panic exits still stop the session", func(t *testing.T) {
		var p *Profiler
		require.Panics(t, func() {
			Block("batch", func(inner *Profiler) {
				p = inner
				panic("boom")
			})
		})
		assert.False(t, p.Running())
	})
}
