package domain

import "fmt"

// Point is a WGS-84 coordinate. GeoJSON position order is [lon, lat].
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Geometry is a GeoJSON Polygon. Zone geometry uses Polygon features only:
// ring 0 is the outer boundary, any further rings are holes. Positions are
// [lon, lat] pairs and rings are expected to be closed (first == last),
// though containment tolerates an unclosed final segment.
type Geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// Contains reports whether pt lies inside the polygon: within the outer ring
// and outside every hole. Points on an edge count as inside on one side only,
// which is fine for click resolution.
func (g Geometry) Contains(pt Point) bool {
	if g.Type != "Polygon" || len(g.Coordinates) == 0 {
		return false
	}
	if !pointInRing(pt, g.Coordinates[0]) {
		return false
	}
	for _, hole := range g.Coordinates[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

// pointInRing is the even-odd ray casting test against a single ring.
func pointInRing(pt Point, ring [][]float64) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > pt.Lat) != (yj > pt.Lat) &&
			pt.Lon < (xj-xi)*(pt.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// FeatureProperties carries the zone id that joins geometry to summary
// metrics, plus a display label for hover/fallback use.
type FeatureProperties struct {
	ZoneID string `json:"zone_id"`
	Label  string `json:"label,omitempty"`
}

// Feature is one zone's shape.
type Feature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   Geometry          `json:"geometry"`
}

// FeatureCollection is a city's static zone geometry file. It is fetched once
// per mount and immutable for the session.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Validate checks the structural contract: GeoJSON types, a zone id on every
// feature, and no duplicate zone ids.
func (fc *FeatureCollection) Validate() error {
	if fc.Type != "FeatureCollection" {
		return fmt.Errorf("geometry type %q, want FeatureCollection", fc.Type)
	}
	seen := make(map[string]struct{}, len(fc.Features))
	for i, f := range fc.Features {
		if f.Type != "Feature" {
			return fmt.Errorf("feature %d: type %q, want Feature", i, f.Type)
		}
		if f.Properties.ZoneID == "" {
			return fmt.Errorf("feature %d: missing zone_id property", i)
		}
		if _, dup := seen[f.Properties.ZoneID]; dup {
			return fmt.Errorf("duplicate zone_id %q in geometry", f.Properties.ZoneID)
		}
		seen[f.Properties.ZoneID] = struct{}{}
		if f.Geometry.Type != "Polygon" {
			return fmt.Errorf("feature %q: geometry type %q, want Polygon", f.Properties.ZoneID, f.Geometry.Type)
		}
		if len(f.Geometry.Coordinates) == 0 || len(f.Geometry.Coordinates[0]) < 3 {
			return fmt.Errorf("feature %q: degenerate outer ring", f.Properties.ZoneID)
		}
	}
	return nil
}

// ZoneAt returns the zone id of the first feature containing pt, in feature
// order. Zones are non-overlapping by construction, so order only matters for
// shared edges.
func (fc *FeatureCollection) ZoneAt(pt Point) (string, bool) {
	for _, f := range fc.Features {
		if f.Geometry.Contains(pt) {
			return f.Properties.ZoneID, true
		}
	}
	return "", false
}
