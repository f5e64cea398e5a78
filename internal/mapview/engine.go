package mapview

import (
	"context"

	"github.com/benchcutlogic/local-weather/internal/domain"
)

// Layer identifies one of the independently toggleable map overlays.
type Layer string

const (
	LayerAoi        Layer = "aoi"        // AOI boundary outlines
	LayerConfidence Layer = "confidence" // confidence hatching over low-trust zones
	LayerHazards    Layer = "hazards"    // hazard markers
)

// AllLayers returns the toggleable layers in display order.
func AllLayers() []Layer {
	return []Layer{LayerAoi, LayerConfidence, LayerHazards}
}

// Valid reports whether l names a known overlay.
func (l Layer) Valid() bool {
	switch l {
	case LayerAoi, LayerConfidence, LayerHazards:
		return true
	}
	return false
}

// FeatureState is the per-zone visual state the controller attaches to the
// engine, keyed by zone_id. Paint expressions read these values, so a zone's
// fill follows the active metric without re-registering geometry.
type FeatureState struct {
	TempDeltaF     float64
	WindDeltaMPH   float64
	PrecipDeltaPct float64
	SnowDeltaIn    float64
	Confidence     domain.ConfidenceLevel
	Hazards        []domain.Hazard
}

// Delta returns the state's value for the given metric.
func (s FeatureState) Delta(m domain.MetricKey) float64 {
	switch m {
	case domain.MetricTemperature:
		return s.TempDeltaF
	case domain.MetricWind:
		return s.WindDeltaMPH
	case domain.MetricPrecipitation:
		return s.PrecipDeltaPct
	case domain.MetricSnow:
		return s.SnowDeltaIn
	default:
		return 0
	}
}

// featureStateFor projects a zone's summary record onto engine state.
func featureStateFor(z domain.ZoneMetric) FeatureState {
	return FeatureState{
		TempDeltaF:     z.TempDeltaF,
		WindDeltaMPH:   z.WindDeltaMPH,
		PrecipDeltaPct: z.PrecipDeltaPct,
		SnowDeltaIn:    z.SnowDeltaIn,
		Confidence:     z.ConfidenceLevel,
		Hazards:        z.Hazards,
	}
}

// Engine is the opaque rendering engine handle. Any concrete mapping library
// can sit behind it; the controller only needs geometry registration,
// per-feature state, paint and visibility properties, point queries, and
// teardown.
type Engine interface {
	// AddGeometry registers the city's zone FeatureCollection as the
	// engine's source. It must be called before any SetFeatureState, or
	// state would attach to features that do not exist yet.
	AddGeometry(fc *domain.FeatureCollection) error

	// SetFeatureState attaches visual state to the feature with the given
	// zone id. Unknown ids are a silent no-op, matching real engines.
	SetFeatureState(zoneID string, state FeatureState) error

	// SetFillMetric repoints the zone-fill paint expression at a metric's
	// value and fixed encoding range.
	SetFillMetric(metric domain.MetricKey) error

	// SetLayerVisibility shows or hides one overlay.
	SetLayerVisibility(layer Layer, visible bool) error

	// FeatureAt resolves a map click to the zone id under the point.
	FeatureAt(pt domain.Point) (zoneID string, ok bool)

	// Destroy releases the engine. The handle must not be used afterwards.
	Destroy()
}

// EngineLoader produces a ready engine for a city: module loaded,
// initialized, and static zone geometry registered. Returning only ready
// engines keeps the geometry-before-feature-state ordering out of the
// controller entirely.
type EngineLoader interface {
	LoadEngine(ctx context.Context, citySlug string) (Engine, error)
}

// SummarySource fetches the current zone summary for a city. Failures are
// *domain.NetworkError or *domain.MalformedResponseError.
type SummarySource interface {
	FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error)
}
