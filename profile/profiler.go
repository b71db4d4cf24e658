// Package profile provides a scoped wrapper around runtime/pprof CPU
// profiling together with lightweight per-span call accounting for top-N
// reports.
package profile

import (
	"io"
	"log/slog"
	"runtime/pprof"
	"sort"
	"sync"
	"time"
)

// SortKey selects the ordering of report entries.
type SortKey string

const (
	SortCumulative SortKey = "cumulative"
	SortOwn        SortKey = "own"
	SortCalls      SortKey = "calls"
)

// DefaultReportLimit bounds the entries emitted by logged reports.
const DefaultReportLimit = 20

// Entry is one row of a profiling report.
type Entry struct {
	Name       string        `json:"name"`
	Calls      int           `json:"calls"`
	Cumulative time.Duration `json:"cumulative"`
	Own        time.Duration `json:"own"`
}

// Stats summarizes the current accumulation window.
type Stats struct {
	TotalCalls int           `json:"total_calls"`
	TotalTime  time.Duration `json:"total_time"`
}

type record struct {
	calls      int
	cumulative time.Duration
	own        time.Duration
}

type span struct {
	rec      *record
	start    time.Time
	children time.Duration
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithOutput engages runtime/pprof CPU sampling for the session, writing the
// profile to w on Stop. Without it the profiler performs span accounting
// only.
func WithOutput(w io.Writer) Option {
	return func(p *Profiler) { p.out = w }
}

// WithLogger sets the logger used for reports.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Profiler) { p.logger = logger }
}

// WithSortKey sets the sort key for logged reports.
func WithSortKey(key SortKey) Option {
	return func(p *Profiler) { p.sortKey = key }
}

// WithReportLimit sets the entry limit for logged reports.
func WithReportLimit(limit int) Option {
	return func(p *Profiler) { p.limit = limit }
}

// Profiler accumulates call/time statistics for one profiling session.
// Start after Stop begins a fresh window. Safe for concurrent use, though
// own-time attribution of nested spans assumes spans close in LIFO order.
type Profiler struct {
	logger  *slog.Logger
	out     io.Writer
	sortKey SortKey
	limit   int

	mu        sync.Mutex
	profiling bool
	cpuActive bool
	started   time.Time
	elapsed   time.Duration
	records   map[string]*record
	stack     []*span
}

// New creates a profiler.
func New(opts ...Option) *Profiler {
	p := &Profiler{
		logger:  slog.Default(),
		sortKey: SortCumulative,
		limit:   DefaultReportLimit,
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins a profiling session, discarding any previously accumulated
// statistics. Calling Start while already profiling is a no-op.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.profiling {
		return
	}

	p.profiling = true
	p.started = time.Now()
	p.elapsed = 0
	p.records = make(map[string]*record)
	p.stack = nil

	if p.out != nil {
		// pprof allows one CPU profile per process; if another session owns
		// it, fall back to span accounting only.
		if err := pprof.StartCPUProfile(p.out); err != nil {
			p.logger.Warn("cpu profile unavailable", "error", err)
		} else {
			p.cpuActive = true
		}
	}

	p.logger.Debug("profiling started")
}

// Stop ends the session. Calling Stop while not profiling is a no-op.
func (p *Profiler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.profiling {
		return
	}

	p.profiling = false
	p.elapsed = time.Since(p.started)

	if p.cpuActive {
		pprof.StopCPUProfile()
		p.cpuActive = false
	}

	p.logger.Debug("profiling stopped")
}

// Running reports whether a session is active.
func (p *Profiler) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profiling
}

// Span begins a named region and returns its stop function. The stop
// function records call count, cumulative time and own time exactly once;
// further calls are no-ops. Outside an active session Span is a no-op.
//
//	defer p.Span("load_index")()
func (p *Profiler) Span(name string) func() {
	p.mu.Lock()
	if !p.profiling {
		p.mu.Unlock()
		return func() {}
	}

	rec := p.records[name]
	if rec == nil {
		rec = &record{}
		p.records[name] = rec
	}
	sp := &span{rec: rec, start: time.Now()}
	p.stack = append(p.stack, sp)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.endSpan(sp) })
	}
}

func (p *Profiler) endSpan(sp *span) {
	elapsed := time.Since(sp.start)

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i] == sp {
			p.stack = append(p.stack[:i], p.stack[i+1:]...)
			break
		}
	}

	sp.rec.calls++
	sp.rec.cumulative += elapsed
	sp.rec.own += elapsed - sp.children

	if len(p.stack) > 0 {
		p.stack[len(p.stack)-1].children += elapsed
	}
}

// Report returns up to limit entries sorted descending by the given key.
func (p *Profiler) Report(sortBy SortKey, limit int) []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]Entry, 0, len(p.records))
	for name, rec := range p.records {
		entries = append(entries, Entry{
			Name:       name,
			Calls:      rec.calls,
			Cumulative: rec.cumulative,
			Own:        rec.own,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		switch sortBy {
		case SortOwn:
			return entries[i].Own > entries[j].Own
		case SortCalls:
			return entries[i].Calls > entries[j].Calls
		default:
			return entries[i].Cumulative > entries[j].Cumulative
		}
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Stats summarizes the session: total recorded calls and the wall time of
// the accumulation window (live while profiling).
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	for _, rec := range p.records {
		s.TotalCalls += rec.calls
	}
	if p.profiling {
		s.TotalTime = time.Since(p.started)
	} else {
		s.TotalTime = p.elapsed
	}
	return s
}

// logReport emits the session's top entries through the logger.
func (p *Profiler) logReport(name string) {
	entries := p.Report(p.sortKey, p.limit)
	stats := p.Stats()

	p.logger.Info("profile report",
		"name", name,
		"total_calls", stats.TotalCalls,
		"total_time", stats.TotalTime,
		"sort", string(p.sortKey),
	)
	for _, e := range entries {
		p.logger.Info("profile entry",
			"span", e.Name,
			"calls", e.Calls,
			"cumulative", e.Cumulative,
			"own", e.Own,
		)
	}
}
