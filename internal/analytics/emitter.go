package analytics

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Emitter stamps events with the session's identity before handing them to a
// sink. One emitter belongs to one mounted map component.
type Emitter struct {
	sink      Sink
	citySlug  string
	sessionID string
	clock     clockwork.Clock
}

// NewEmitter creates an emitter for one city session. An empty sessionID is
// replaced with a fresh random identifier; a nil clock means real time. A
// nil sink is allowed and turns Emit into a no-op, for hosts that run
// without analytics.
func NewEmitter(sink Sink, citySlug, sessionID string, clock clockwork.Clock) *Emitter {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Emitter{
		sink:      sink,
		citySlug:  citySlug,
		sessionID: sessionID,
		clock:     clock,
	}
}

// SessionID returns the per-session random identifier stamped on every event.
func (e *Emitter) SessionID() string {
	return e.sessionID
}

// Emit stamps and forwards one event.
func (e *Emitter) Emit(ctx context.Context, name string, fields map[string]any) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(ctx, Event{
		Name:      name,
		CitySlug:  e.citySlug,
		SessionID: e.sessionID,
		Timestamp: e.clock.Now().UTC(),
		Fields:    fields,
	})
}
