package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/mapview"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var cityTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// staticAois is the geometry-free fallback list per city, the deepest data
// tier when no summary can be fetched at all. It ships with the host page
// rather than the forecast payload, so it survives a full upstream outage.
var staticAois = map[string][]domain.AoiCard{
	"durango": {
		{AoiSlug: "purgatory-resort", AoiName: "Purgatory Resort", Note: "Upper lifts catch the wind; expect gusts above the treeline.", ZoneID: "dgo-z-003"},
		{AoiSlug: "animas-river-trail", AoiName: "Animas River Trail", Note: "Sheltered along the river corridor, mild compared to town edges.", ZoneID: "dgo-z-002"},
		{AoiSlug: "la-plata-canyon-road", AoiName: "La Plata Canyon Road", Note: "Drifting snow past the pavement end; plowing stops at mile 8.", ZoneID: "dgo-z-006"},
	},
}

// StaticAois returns the host-side fallback AOI list for a city. The map
// component host passes this into the controller so the client and the
// server-rendered page degrade through identical tiers.
func StaticAois(citySlug string) []domain.AoiCard {
	return staticAois[citySlug]
}

// cityPage is the template model for the map section of a city page.
type cityPage struct {
	Slug        string
	Name        string
	SummaryURL  string
	GeometryURL string
	GeneratedAt string
	Metrics     []domain.MetricKey
	Cards       []mapview.FallbackCard
	Unavailable string
}

// handleCityPage renders the map section server-side. The fallback cards
// come from the same derivation the client controller uses, so a user with
// scripts disabled (or a failed map load) sees the same degraded content.
func (s *Server) handleCityPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "city")
	city, ok := s.cities[slug]
	if !ok {
		http.NotFound(w, r)
		return
	}

	page := cityPage{
		Slug:        slug,
		Name:        city.Name,
		SummaryURL:  fmt.Sprintf("/api/map/%s/summary", slug),
		GeometryURL: fmt.Sprintf("/static/geo/%s-zones.json", slug),
		Metrics:     domain.AllMetrics(),
	}

	// A failed fetch is not a failed page: the card list degrades through
	// the static tier instead.
	summary, err := s.summaries.FetchSummary(r.Context(), slug)
	if err != nil {
		s.logger.Warn("city page rendering without summary", "city", slug, "error", err)
		summary = nil
	} else {
		page.GeneratedAt = summary.GeneratedAt.Format(time.RFC3339)
	}
	page.Cards, page.Unavailable = mapview.FallbackContent(summary, staticAois[slug])

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := cityTemplate.ExecuteTemplate(w, "city.html.tmpl", page); err != nil {
		s.logger.Error("render city page failed", "city", slug, "error", err)
	}
}
