package vectormap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/mapview"
)

// GeometrySource fetches a city's static zone geometry. The file is
// long-lived and cacheable; it never changes within a session.
type GeometrySource interface {
	FetchGeometry(ctx context.Context, citySlug string) (*domain.FeatureCollection, error)
}

// Loader builds ready engines. It fetches and validates the city's
// geometry and registers it before handing the engine back, so
// feature-state writes can never race an empty source.
// It implements mapview.EngineLoader.
type Loader struct {
	source GeometrySource
	logger *slog.Logger
}

// NewLoader creates a loader over the given geometry source.
func NewLoader(source GeometrySource, logger *slog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

func (l *Loader) LoadEngine(ctx context.Context, citySlug string) (mapview.Engine, error) {
	fc, err := l.source.FetchGeometry(ctx, citySlug)
	if err != nil {
		return nil, fmt.Errorf("fetch zone geometry for %q: %w", citySlug, err)
	}

	e := New()
	if err := e.AddGeometry(fc); err != nil {
		return nil, fmt.Errorf("register zone geometry for %q: %w", citySlug, err)
	}

	l.logger.Debug("map engine ready", "city", citySlug, "zones", len(fc.Features))
	return e, nil
}
