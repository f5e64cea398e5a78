// Command genfixtures generates deterministic per-city fixture payloads:
// a zone geometry file and a matching zone summary. The output backs the
// embedded dev-mode fixtures, package tests, and the mapcheck diagnostic,
// all of which depend on byte-stable content across runs.
//
// Usage:
//
//	go run ./cmd/genfixtures \
//	  -city durango -city-name "Durango, CO" \
//	  -lat 37.2753 -lon -107.8801 \
//	  -zones 6 -aois 3 \
//	  -out internal/adapter/forecast/fixtures
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/benchcutlogic/local-weather/internal/domain"
)

// cycleTime is the fixed forecast cycle stamped on generated payloads.
var cycleTime = time.Date(2026, time.January, 12, 6, 0, 0, 0, time.UTC)

// zoneSpan is the side length of a generated zone rectangle in degrees.
const zoneSpan = 0.06

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	city := flag.String("city", "durango", "city slug")
	cityName := flag.String("city-name", "Durango, CO", "city display name")
	lat := flag.Float64("lat", 37.2753, "city center latitude")
	lon := flag.Float64("lon", -107.8801, "city center longitude")
	zones := flag.Int("zones", 6, "number of zones to generate")
	aois := flag.Int("aois", 3, "number of AOI cards to generate")
	out := flag.String("out", "", "output directory")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *zones < 1 || *aois > *zones {
		return fmt.Errorf("need at least 1 zone and no more AOIs than zones")
	}

	fc := buildGeometry(*city, *lat, *lon, *zones)
	if err := fc.Validate(); err != nil {
		return fmt.Errorf("generated geometry invalid: %w", err)
	}

	summary := buildSummary(*city, fc, *aois)
	if err := summary.Validate(); err != nil {
		return fmt.Errorf("generated summary invalid: %w", err)
	}

	geoPath := filepath.Join(*out, fmt.Sprintf("%s-zones.json", *city))
	if err := writeJSON(geoPath, fc); err != nil {
		return fmt.Errorf("writing geometry: %w", err)
	}
	log.Printf("wrote geometry fixture: %s (%d zones)", geoPath, len(fc.Features))

	summaryPath := filepath.Join(*out, fmt.Sprintf("%s-summary.json", *city))
	if err := writeJSON(summaryPath, summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	log.Printf("wrote summary fixture: %s (%d zones, %d aois) for %s", summaryPath, len(summary.Zones), len(summary.Aois), *cityName)

	return nil
}

// buildGeometry lays zones out on a ring around the city center, one
// rectangle per zone. The layout only needs to be non-overlapping and
// deterministic; real zone shapes come from the production geometry bucket.
func buildGeometry(city string, lat, lon float64, zones int) *domain.FeatureCollection {
	fc := &domain.FeatureCollection{Type: "FeatureCollection"}
	for i := range zones {
		angle := 2 * math.Pi * float64(i) / float64(zones)
		cx := lon + 0.15*math.Cos(angle)
		cy := lat + 0.15*math.Sin(angle)

		fc.Features = append(fc.Features, domain.Feature{
			Type: "Feature",
			Properties: domain.FeatureProperties{
				ZoneID: zoneID(city, i),
				Label:  fmt.Sprintf("Zone %d", i+1),
			},
			Geometry: domain.Geometry{
				Type: "Polygon",
				Coordinates: [][][]float64{{
					{round(cx - zoneSpan/2), round(cy - zoneSpan/2)},
					{round(cx + zoneSpan/2), round(cy - zoneSpan/2)},
					{round(cx + zoneSpan/2), round(cy + zoneSpan/2)},
					{round(cx - zoneSpan/2), round(cy + zoneSpan/2)},
					{round(cx - zoneSpan/2), round(cy - zoneSpan/2)},
				}},
			},
		})
	}
	return fc
}

// buildSummary derives zone metrics from the zone index, spreading values
// across each metric's display range so every ramp position gets exercised.
func buildSummary(city string, fc *domain.FeatureCollection, aois int) *domain.ZoneSummaryResponse {
	summary := &domain.ZoneSummaryResponse{
		CitySlug:    city,
		Metric:      domain.DefaultMetric,
		GeneratedAt: cycleTime,
	}

	levels := []domain.ConfidenceLevel{domain.ConfidenceHigh, domain.ConfidenceModerate, domain.ConfidenceLow}
	n := len(fc.Features)
	for i, f := range fc.Features {
		// Spread each metric across its range: position 0..1 by zone index.
		pos := 0.0
		if n > 1 {
			pos = float64(i) / float64(n-1)
		}
		score := round(0.9 - 0.5*pos)

		zone := domain.ZoneMetric{
			ZoneID:          f.Properties.ZoneID,
			ZoneLabel:       f.Properties.Label,
			TempDeltaF:      round(-10 + 20*pos),
			WindDeltaMPH:    round(-20 + 40*pos),
			PrecipDeltaPct:  round(-40 + 80*pos),
			SnowDeltaIn:     round(10 * pos),
			ConfidenceLevel: levels[i%len(levels)],
			ConfidenceScore: &score,
			UpdatedAt:       cycleTime,
		}
		if zone.SnowDeltaIn >= 5 {
			zone.Hazards = append(zone.Hazards, domain.HazardSnow)
		}
		if zone.WindDeltaMPH >= 10 {
			zone.Hazards = append(zone.Hazards, domain.HazardWind)
		}
		summary.Zones = append(summary.Zones, zone)
	}

	for i := range aois {
		zone := summary.Zones[(i*n)/aois]
		summary.Aois = append(summary.Aois, domain.AoiCard{
			AoiSlug: fmt.Sprintf("%s-aoi-%d", city, i+1),
			AoiName: fmt.Sprintf("Area of Interest %d", i+1),
			Note:    fmt.Sprintf("Generated card pinned to %s.", zone.ZoneLabel),
			ZoneID:  zone.ZoneID,
		})
	}

	return summary
}

func zoneID(city string, i int) string {
	prefix := city
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s-z-%03d", prefix, i+1)
}

// round keeps generated floats to 4 decimal places so the JSON stays tidy
// and byte-stable.
func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
