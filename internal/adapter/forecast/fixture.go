package forecast

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/benchcutlogic/local-weather/internal/domain"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

// FixtureSource serves the embedded per-city fixture payloads. It backs
// local development when no FORECAST_BASE_URL is configured, and gives
// tests and the mapcheck diagnostic a deterministic upstream. Additional
// cities are generated with cmd/genfixtures.
type FixtureSource struct{}

// NewFixtureSource creates a source over the embedded fixtures.
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{}
}

func (s *FixtureSource) FetchSummary(_ context.Context, citySlug string) (*domain.ZoneSummaryResponse, error) {
	body, err := fixturesFS.ReadFile(fmt.Sprintf("fixtures/%s-summary.json", citySlug))
	if err != nil {
		return nil, &domain.NetworkError{CitySlug: citySlug, Status: http.StatusNotFound}
	}

	var summary domain.ZoneSummaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &domain.MalformedResponseError{CitySlug: citySlug, Reason: fmt.Sprintf("decode fixture: %v", err)}
	}
	if err := summary.Validate(); err != nil {
		return nil, &domain.MalformedResponseError{CitySlug: citySlug, Reason: err.Error()}
	}
	return &summary, nil
}

func (s *FixtureSource) FetchGeometry(_ context.Context, citySlug string) (*domain.FeatureCollection, error) {
	body, err := fixturesFS.ReadFile(fmt.Sprintf("fixtures/%s-zones.json", citySlug))
	if err != nil {
		return nil, &domain.NetworkError{CitySlug: citySlug, Status: http.StatusNotFound}
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode geometry fixture for %q: %w", citySlug, err)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("geometry fixture for %q: %w", citySlug, err)
	}
	return &fc, nil
}
