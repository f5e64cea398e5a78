package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square returns a closed ring around the given bounds.
func square(minLon, minLat, maxLon, maxLat float64) [][]float64 {
	return [][]float64{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
}

func TestGeometryContains(t *testing.T) {
	g := Geometry{
		Type:        "Polygon",
		Coordinates: [][][]float64{square(-107.90, 37.25, -107.85, 37.30)},
	}

	tests := []struct {
		name string
		pt   Point
		want bool
	}{
		{"center", Point{Lon: -107.875, Lat: 37.275}, true},
		{"west of polygon", Point{Lon: -107.95, Lat: 37.275}, false},
		{"north of polygon", Point{Lon: -107.875, Lat: 37.35}, false},
		{"just inside edge", Point{Lon: -107.8501, Lat: 37.275}, true},
		{"far away", Point{Lon: 0, Lat: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Contains(tt.pt))
		})
	}
}

func TestGeometryContainsWithHole(t *testing.T) {
	g := Geometry{
		Type: "Polygon",
		Coordinates: [][][]float64{
			square(-107.90, 37.25, -107.80, 37.35),
			square(-107.87, 37.28, -107.83, 37.32), // hole
		},
	}

	assert.True(t, g.Contains(Point{Lon: -107.89, Lat: 37.26}), "inside outer, outside hole")
	assert.False(t, g.Contains(Point{Lon: -107.85, Lat: 37.30}), "inside hole")
}

func TestGeometryContainsUnclosedRing(t *testing.T) {
	ring := square(-107.90, 37.25, -107.85, 37.30)
	g := Geometry{Type: "Polygon", Coordinates: [][][]float64{ring[:len(ring)-1]}}

	assert.True(t, g.Contains(Point{Lon: -107.875, Lat: 37.275}))
}

func TestGeometryContainsDegenerate(t *testing.T) {
	assert.False(t, Geometry{}.Contains(Point{}))
	assert.False(t, Geometry{Type: "MultiPolygon"}.Contains(Point{}))
	assert.False(t, Geometry{Type: "Polygon", Coordinates: [][][]float64{{{-107.9, 37.2}, {-107.8, 37.2}}}}.Contains(Point{Lon: -107.85, Lat: 37.2}))
}

func testFeatureCollection() FeatureCollection {
	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{
			{
				Type:       "Feature",
				Properties: FeatureProperties{ZoneID: "dgo-z-001", Label: "Valley Floor"},
				Geometry:   Geometry{Type: "Polygon", Coordinates: [][][]float64{square(-107.90, 37.25, -107.85, 37.30)}},
			},
			{
				Type:       "Feature",
				Properties: FeatureProperties{ZoneID: "dgo-z-003", Label: "Purgatory"},
				Geometry:   Geometry{Type: "Polygon", Coordinates: [][][]float64{square(-107.85, 37.60, -107.78, 37.66)}},
			},
		},
	}
}

func TestFeatureCollectionValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		fc := testFeatureCollection()
		require.NoError(t, fc.Validate())
	})

	t.Run("wrong collection type", func(t *testing.T) {
		fc := testFeatureCollection()
		fc.Type = "GeometryCollection"
		require.Error(t, fc.Validate())
	})

	t.Run("missing zone id", func(t *testing.T) {
		fc := testFeatureCollection()
		fc.Features[1].Properties.ZoneID = ""
		require.Error(t, fc.Validate())
	})

	t.Run("duplicate zone id", func(t *testing.T) {
		fc := testFeatureCollection()
		fc.Features[1].Properties.ZoneID = "dgo-z-001"
		err := fc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("non-polygon geometry", func(t *testing.T) {
		fc := testFeatureCollection()
		fc.Features[0].Geometry.Type = "LineString"
		require.Error(t, fc.Validate())
	})

	t.Run("multipolygon geometry", func(t *testing.T) {
		// Multi-part zones arrive pre-split, one polygon feature per part.
		fc := testFeatureCollection()
		fc.Features[0].Geometry.Type = "MultiPolygon"
		err := fc.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want Polygon")
	})

	t.Run("degenerate ring", func(t *testing.T) {
		fc := testFeatureCollection()
		fc.Features[0].Geometry.Coordinates = [][][]float64{{{-107.9, 37.2}}}
		require.Error(t, fc.Validate())
	})
}

func TestZoneAt(t *testing.T) {
	fc := testFeatureCollection()

	id, ok := fc.ZoneAt(Point{Lon: -107.875, Lat: 37.275})
	require.True(t, ok)
	assert.Equal(t, "dgo-z-001", id)

	id, ok = fc.ZoneAt(Point{Lon: -107.80, Lat: 37.63})
	require.True(t, ok)
	assert.Equal(t, "dgo-z-003", id)

	_, ok = fc.ZoneAt(Point{Lon: -106.0, Lat: 39.0})
	assert.False(t, ok, "point outside every zone")
}

func TestFeatureCollectionJSON(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"zone_id": "dgo-z-002", "label": "Mesa"},
			"geometry": {"type": "Polygon", "coordinates": [[[-107.9,37.3],[-107.8,37.3],[-107.8,37.4],[-107.9,37.4],[-107.9,37.3]]]}
		}]
	}`)

	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.NoError(t, fc.Validate())

	id, ok := fc.ZoneAt(Point{Lon: -107.85, Lat: 37.35})
	require.True(t, ok)
	assert.Equal(t, "dgo-z-002", id)
}
