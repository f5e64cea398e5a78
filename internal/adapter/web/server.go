// Package web is the HTTP surface of the frontend service: operational
// endpoints, the summary and geometry JSON the map component consumes, an
// analytics event collector, and the server-rendered city page whose
// fallback card list mirrors the client-side derivation.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/config"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// SummarySource serves per-city zone summaries, typically the cached
// forecast client.
type SummarySource interface {
	FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error)
}

// GeometrySource serves per-city static zone geometry.
type GeometrySource interface {
	FetchGeometry(ctx context.Context, citySlug string) (*domain.FeatureCollection, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the frontend HTTP routes.
type Server struct {
	httpServer *http.Server
	summaries  SummarySource
	geometry   GeometrySource
	events     analytics.Sink
	cities     map[string]config.City
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer wires the router. The events sink may be nil when analytics
// collection is disabled.
func NewServer(cfg *config.Config, summaries SummarySource, geometry GeometrySource, events analytics.Sink, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		summaries: summaries,
		geometry:  geometry,
		events:    events,
		cities:    cfg.Cities,
		metrics:   metrics,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/map/{city}/summary", s.handleSummary)
	r.Get("/static/geo/{city}-zones.json", s.handleGeometry)
	r.Post("/api/events", s.handleEvents)
	r.Get("/{city}", s.handleCityPage)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleSummary serves the cached upstream summary. The payload is shared
// across sessions, so it is browser-cacheable for the refresh cadence.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if _, ok := s.cities[city]; !ok {
		s.metrics.SummaryRequests.WithLabelValues("unknown", "404").Inc()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown city"})
		return
	}

	summary, err := s.summaries.FetchSummary(r.Context(), city)
	if err != nil {
		status := upstreamStatus(err)
		s.metrics.SummaryRequests.WithLabelValues(city, strconv.Itoa(status)).Inc()
		s.logger.Error("summary fetch failed", "city", city, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	s.metrics.SummaryRequests.WithLabelValues(city, "200").Inc()
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, summary)
}

// handleGeometry serves zone geometry. Zone boundaries change on a release
// cadence, not a forecast cadence, hence the immutable long cache.
func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if _, ok := s.cities[city]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown city"})
		return
	}

	fc, err := s.geometry.FetchGeometry(r.Context(), city)
	if err != nil {
		s.logger.Error("geometry fetch failed", "city", city, "error", err)
		writeJSON(w, upstreamStatus(err), map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	writeJSON(w, http.StatusOK, fc)
}

// handleEvents accepts analytics events posted by browser sessions and hands
// them to the dispatcher. Acceptance is not delivery: the response says the
// event was enqueued, nothing more.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}

	var e analytics.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed event"})
		return
	}
	if e.Name == "" || e.CitySlug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event and city_slug are required"})
		return
	}

	s.events.Emit(r.Context(), e)
	w.WriteHeader(http.StatusAccepted)
}

// upstreamStatus maps a fetch error onto the proxy response code: upstream
// trouble is a 502 here, except a clean upstream 404 which passes through.
func upstreamStatus(err error) int {
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.Status == http.StatusNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
	}
}
