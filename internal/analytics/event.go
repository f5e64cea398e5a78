// Package analytics defines the frontend observability events and their
// delivery plumbing. Events are fire-and-forget product telemetry, not logs:
// a sink may drop an event under pressure and nothing retries. By contract
// no event carries personally identifying data; the session id is a random
// per-mount identifier with no link to a user account.
package analytics

import (
	"context"
	"time"
)

// Event names emitted by the map component.
const (
	EventMapLoadStart       = "map-load-start"
	EventMapLoadSuccess     = "map-load-success"
	EventMapLoadError       = "map-load-error"
	EventMapFallbackVisible = "map-fallback-visible"
	EventMetricChanged      = "metric-changed"
	EventLayerToggled       = "layer-toggled"
	EventZoneSelected       = "zone-selected"
	EventAoiSelected        = "aoi-selected"
	EventDetailClosed       = "detail-closed"
)

// Event is one analytics record. Every event carries the city it concerns, a
// per-session random identifier, and the emission timestamp; Fields holds
// the event-specific payload (counts, durations, ids).
type Event struct {
	Name      string         `json:"event"`
	CitySlug  string         `json:"city_slug"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Sink receives analytics events. Emit must not block the caller and must
// swallow delivery failures; the map component treats emission as free.
type Sink interface {
	Emit(ctx context.Context, e Event)
}
