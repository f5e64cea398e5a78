// Package vectormap is an in-process implementation of the map engine
// contract, backed by domain geometry instead of a GPU renderer. It keeps
// the source / feature-state / paint-property model of a browser vector map
// so the controller, tests, the mapcheck diagnostic, and server-side
// previews all drive the same logic a real engine would see.
package vectormap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/mapview"
)

// ErrDestroyed is returned by operations on a released engine.
var ErrDestroyed = errors.New("vectormap: engine destroyed")

// Engine holds one city's registered geometry, per-feature state, and paint
// configuration. Safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	fc         *domain.FeatureCollection
	states     map[string]mapview.FeatureState
	fillMetric domain.MetricKey
	visible    map[mapview.Layer]bool
	destroyed  bool
}

// New creates an engine with no geometry registered.
func New() *Engine {
	return &Engine{
		states:     make(map[string]mapview.FeatureState),
		fillMetric: domain.DefaultMetric,
		visible:    make(map[mapview.Layer]bool),
	}
}

// AddGeometry registers the city's zone source. Registration happens once
// per engine; the geometry is immutable for the session.
func (e *Engine) AddGeometry(fc *domain.FeatureCollection) error {
	if err := fc.Validate(); err != nil {
		return fmt.Errorf("zone geometry: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if e.fc != nil {
		return errors.New("vectormap: geometry source already registered")
	}
	e.fc = fc
	return nil
}

// SetFeatureState attaches visual state to a zone feature. A zone id with
// no matching feature is a silent no-op, the same as a browser engine
// writing state against a feature that is not in the source.
func (e *Engine) SetFeatureState(zoneID string, state mapview.FeatureState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	if e.fc == nil {
		return errors.New("vectormap: no geometry source registered")
	}
	if !e.hasFeature(zoneID) {
		return nil
	}
	e.states[zoneID] = state
	return nil
}

// SetFillMetric repoints the zone-fill encoding at a metric.
func (e *Engine) SetFillMetric(metric domain.MetricKey) error {
	if !metric.Valid() {
		return fmt.Errorf("vectormap: unknown metric %q", metric)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	e.fillMetric = metric
	return nil
}

// SetLayerVisibility shows or hides one overlay.
func (e *Engine) SetLayerVisibility(layer mapview.Layer, visible bool) error {
	if !layer.Valid() {
		return fmt.Errorf("vectormap: unknown layer %q", layer)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	e.visible[layer] = visible
	return nil
}

// FeatureAt resolves a point to the zone containing it.
func (e *Engine) FeatureAt(pt domain.Point) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.fc == nil {
		return "", false
	}
	return e.fc.ZoneAt(pt)
}

// Destroy releases the engine. Further calls fail with ErrDestroyed.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	e.fc = nil
	e.states = nil
}

// LayerVisible reports an overlay's current visibility.
func (e *Engine) LayerVisible(layer mapview.Layer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible[layer]
}

// FeatureState returns the state attached to a zone, if any.
func (e *Engine) FeatureState(zoneID string) (mapview.FeatureState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.states[zoneID]
	return s, ok
}

// FillColor evaluates the paint expression for a zone under the active
// metric: the zone's delta, clamped to the metric's fixed range, mapped
// onto a diverging ramp. Zones without attached state render neutral.
func (e *Engine) FillColor(zoneID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed || e.fc == nil || !e.hasFeature(zoneID) {
		return "", false
	}

	r := e.fillMetric.Range()
	state, ok := e.states[zoneID]
	if !ok {
		return rampColor(r.Position(r.Neutral()), r.Position(r.Neutral())), true
	}
	return rampColor(r.Position(state.Delta(e.fillMetric)), r.Position(r.Neutral())), true
}

func (e *Engine) hasFeature(zoneID string) bool {
	for _, f := range e.fc.Features {
		if f.Properties.ZoneID == zoneID {
			return true
		}
	}
	return false
}
