package mapview

import "github.com/benchcutlogic/local-weather/internal/domain"

// Phase is the load lifecycle of one mounted map component. loaded and
// error are terminal per mount; a remount starts over at idle.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseError   Phase = "error"
)

// FallbackVisible reports whether the fallback card list should be shown.
// This is the one place that decision lives: anything short of a fully
// loaded map -- idle, still loading, or failed -- shows cards.
func (p Phase) FallbackVisible() bool {
	return p != PhaseLoaded
}

// Terminal reports whether the phase is an end state for this mount.
func (p Phase) Terminal() bool {
	return p == PhaseLoaded || p == PhaseError
}

// Selection is the current detail focus: a zone, plus its primary AOI when
// one resolved. Aoi is never non-nil with a nil Zone; an AOI always carries
// its parent zone's context.
type Selection struct {
	Zone *domain.ZoneMetric
	Aoi  *domain.AoiCard
}

// DetailTag names what the detail surface is showing, with the AOI taking
// priority over its containing zone. Empty when nothing is selected.
func (s Selection) DetailTag() string {
	switch {
	case s.Aoi != nil:
		return "aoi"
	case s.Zone != nil:
		return "zone"
	default:
		return ""
	}
}

// State is a point-in-time snapshot of a controller's view state, safe to
// read after the controller has moved on.
type State struct {
	Phase           Phase
	ActiveMetric    domain.MetricKey
	Layers          map[Layer]bool
	Selected        Selection
	ErrorMessage    string
	FallbackVisible bool
}
