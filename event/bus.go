package event

import (
	"log/slog"
	"sort"
	"sync"
)

// DefaultHistorySize is the capacity of the bus event history.
const DefaultHistorySize = 100

// Callback handles a dispatched event.
type Callback func(Event)

// Filter decides whether a listener should handle an event.
type Filter func(Event) bool

// Listener is a registered subscription. The bus owns it until unsubscribed;
// treat the returned handle as opaque.
type Listener struct {
	callback Callback
	priority int
	filter   Filter
}

func (l *Listener) shouldHandle(e Event) bool {
	if l.filter == nil {
		return true
	}
	return l.filter(e)
}

// SubscribeOption configures a listener at subscription time.
type SubscribeOption func(*Listener)

// WithPriority sets the listener priority. Higher priorities are dispatched
// first; ties preserve subscription order.
func WithPriority(p int) SubscribeOption {
	return func(l *Listener) { l.priority = p }
}

// WithFilter sets a predicate that suppresses the callback for events it
// rejects. Filtered events still enter the bus history.
func WithFilter(f Filter) SubscribeOption {
	return func(l *Listener) { l.filter = f }
}

// Bus dispatches published events synchronously, on the publisher's
// goroutine, to listeners registered for the event name. Listener callbacks
// run outside the bus lock, so they may call back into the bus; a slow
// callback blocks the publisher for its full duration.
type Bus struct {
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[string][]*Listener
	history   []Event
	maxSize   int
}

// NewBus creates a bus with the default history capacity.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger:    logger,
		listeners: make(map[string][]*Listener),
		maxSize:   DefaultHistorySize,
	}
}

// Subscribe registers a callback for events published under name and returns
// a handle for Unsubscribe.
func (b *Bus) Subscribe(name string, cb Callback, opts ...SubscribeOption) *Listener {
	l := &Listener{callback: cb}
	for _, opt := range opts {
		opt(l)
	}

	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], l)
	// Stable order: priority descending, subscription order on ties.
	sort.SliceStable(b.listeners[name], func(i, j int) bool {
		return b.listeners[name][i].priority > b.listeners[name][j].priority
	})
	b.mu.Unlock()

	b.logger.Debug("subscribed", "event", name, "priority", l.priority)
	return l
}

// Unsubscribe removes the listener from name. Removing an absent listener is
// a no-op.
func (b *Bus) Unsubscribe(name string, l *Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[name]
	for i, existing := range ls {
		if existing == l {
			b.listeners[name] = append(ls[:i:i], ls[i+1:]...)
			b.logger.Debug("unsubscribed", "event", name)
			return
		}
	}
}

// Publish constructs an event, records it in history and dispatches it to the
// listeners registered for name at this moment. Listeners subscribed or
// unsubscribed during dispatch do not affect the already-taken snapshot. A
// panicking callback is recovered and logged; dispatch continues with the
// remaining listeners.
func (b *Bus) Publish(name string, data, metadata map[string]any) Event {
	e := newEvent(name, data, metadata)

	b.mu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > b.maxSize {
		b.history = b.history[len(b.history)-b.maxSize:]
	}
	snapshot := make([]*Listener, len(b.listeners[name]))
	copy(snapshot, b.listeners[name])
	b.mu.Unlock()

	for _, l := range snapshot {
		b.dispatch(l, e)
	}

	b.logger.Debug("published", "event", name, "listeners", len(snapshot))
	return e
}

// dispatch runs the filter and callback under a recover so that neither a
// panicking predicate nor a panicking callback reaches the publisher.
func (b *Bus) dispatch(l *Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panic", "event", e.Name, "panic", r)
		}
	}()
	if !l.shouldHandle(e) {
		return
	}
	l.callback(e)
}

// History returns up to the last limit events in chronological order, oldest
// first. A non-positive limit returns nothing.
func (b *Bus) History(limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 {
		return nil
	}
	if limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Event, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}

// ClearHistory empties the event history.
func (b *Bus) ClearHistory() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}

// HasListeners reports whether any listener is registered for name.
func (b *Bus) HasListeners(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[name]) > 0
}
