package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfidenceLevel is the upstream trust indicator for a zone's current
// metrics. It is supplied by forecast-core and never computed here.
type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceLow      ConfidenceLevel = "low"
)

// Hazard is a short tag flagging an active concern for a zone.
type Hazard string

// Known hazard tags. The set is open: unknown tags pass validation so a newer
// forecast-core can introduce tags without breaking older frontends.
const (
	HazardSnow         Hazard = "snow"
	HazardWind         Hazard = "wind"
	HazardFlood        Hazard = "flood"
	HazardSmoke        Hazard = "smoke"
	HazardFog          Hazard = "fog"
	HazardDryAir       Hazard = "dry_air"
	HazardWhiteoutRisk Hazard = "whiteout_risk"
)

var knownHazards = map[Hazard]struct{}{
	HazardSnow:         {},
	HazardWind:         {},
	HazardFlood:        {},
	HazardSmoke:        {},
	HazardFog:          {},
	HazardDryAir:       {},
	HazardWhiteoutRisk: {},
}

// Known reports whether h is one of the hazard tags this frontend renders
// with a dedicated marker. Unknown tags fall back to a generic marker.
func (h Hazard) Known() bool {
	_, ok := knownHazards[h]
	return ok
}

// ZoneMetric describes one microclimate zone of a city at the current
// forecast cycle. All four deltas are relative to the city baseline.
type ZoneMetric struct {
	ZoneID    string `json:"zone_id" validate:"required"`
	ZoneLabel string `json:"zone_label" validate:"required"`

	TempDeltaF     float64 `json:"temp_delta_f"`
	WindDeltaMPH   float64 `json:"wind_delta_mph"`
	PrecipDeltaPct float64 `json:"precip_delta_pct"`
	SnowDeltaIn    float64 `json:"snow_delta_in"`

	ConfidenceLevel       ConfidenceLevel `json:"confidence_level" validate:"required,oneof=high moderate low"`
	ConfidenceScore       *float64        `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	ConfidenceReasonCodes []string        `json:"confidence_reason_codes,omitempty"`

	Hazards   []Hazard  `json:"hazards,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Delta returns the zone's value for the given metric.
func (z ZoneMetric) Delta(m MetricKey) float64 {
	switch m {
	case MetricTemperature:
		return z.TempDeltaF
	case MetricWind:
		return z.WindDeltaMPH
	case MetricPrecipitation:
		return z.PrecipDeltaPct
	case MetricSnow:
		return z.SnowDeltaIn
	default:
		return 0
	}
}

// HasHazard reports whether the zone carries the given hazard tag.
func (z ZoneMetric) HasHazard(h Hazard) bool {
	for _, tag := range z.Hazards {
		if tag == h {
			return true
		}
	}
	return false
}

// AoiCard is an area of interest nested within exactly one zone. ZoneID is a
// back-reference, not ownership: many AOIs may reference one zone.
type AoiCard struct {
	AoiSlug string `json:"aoi_slug" validate:"required"`
	AoiName string `json:"aoi_name" validate:"required"`
	Note    string `json:"note"`
	ZoneID  string `json:"zone_id" validate:"required"`
}

// ZoneSummaryResponse is the atomic unit fetched per city per cycle. The
// frontend treats it as an immutable snapshot: no in-place mutation, only
// wholesale replacement on the next fetch.
type ZoneSummaryResponse struct {
	CitySlug    string       `json:"city_slug" validate:"required"`
	Metric      MetricKey    `json:"metric"`
	GeneratedAt time.Time    `json:"generated_at"`
	Zones       []ZoneMetric `json:"zones" validate:"dive"`
	Aois        []AoiCard    `json:"aois" validate:"dive"`
}

var validate = validator.New()

// Validate checks field constraints and the cross-record invariants: zone ids
// unique, AOI slugs unique, and every AOI back-reference resolving to a zone
// in the same payload. Any violation means the payload must be rejected whole.
func (r *ZoneSummaryResponse) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("summary fields: %w", err)
	}

	zones := make(map[string]struct{}, len(r.Zones))
	for _, z := range r.Zones {
		if _, dup := zones[z.ZoneID]; dup {
			return fmt.Errorf("duplicate zone_id %q", z.ZoneID)
		}
		zones[z.ZoneID] = struct{}{}
	}

	slugs := make(map[string]struct{}, len(r.Aois))
	for _, a := range r.Aois {
		if _, dup := slugs[a.AoiSlug]; dup {
			return fmt.Errorf("duplicate aoi_slug %q", a.AoiSlug)
		}
		slugs[a.AoiSlug] = struct{}{}
		if _, ok := zones[a.ZoneID]; !ok {
			return fmt.Errorf("aoi %q references unknown zone_id %q", a.AoiSlug, a.ZoneID)
		}
	}
	return nil
}

// ZoneByID looks up a zone by id. The second return is false when the id is
// not present in this summary.
func (r *ZoneSummaryResponse) ZoneByID(id string) (ZoneMetric, bool) {
	for _, z := range r.Zones {
		if z.ZoneID == id {
			return z, true
		}
	}
	return ZoneMetric{}, false
}

// AoiForZone returns the zone's primary AOI: the first card in payload order
// whose back-reference matches. Most zones have zero or one.
func (r *ZoneSummaryResponse) AoiForZone(zoneID string) (AoiCard, bool) {
	for _, a := range r.Aois {
		if a.ZoneID == zoneID {
			return a, true
		}
	}
	return AoiCard{}, false
}

// AoiBySlug looks up an AOI card by its slug.
func (r *ZoneSummaryResponse) AoiBySlug(slug string) (AoiCard, bool) {
	for _, a := range r.Aois {
		if a.AoiSlug == slug {
			return a, true
		}
	}
	return AoiCard{}, false
}

// Age reports how long ago the summary was generated.
func (r *ZoneSummaryResponse) Age() time.Duration {
	return clock.Since(r.GeneratedAt)
}
