// Package event provides an in-process publish/subscribe bus with
// priority-ordered synchronous fan-out and a bounded event history.
package event

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Event is a published occurrence. Treat it as immutable once published.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event(%s, data=%v)", e.Name, e.Data)
}

func newEvent(name string, data, metadata map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Event{
		ID:        gonanoid.Must(),
		Name:      name,
		Data:      data,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
