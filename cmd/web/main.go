// Command web serves the local-weather frontend: the city map page, the
// summary and geometry JSON behind it, the analytics collector, and the
// summary-refresh consumer that keeps the cache current.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/benchcutlogic/local-weather/internal/adapter/forecast"
	kafkaadapter "github.com/benchcutlogic/local-weather/internal/adapter/kafka"
	"github.com/benchcutlogic/local-weather/internal/adapter/web"
	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/config"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/observability"
	"github.com/benchcutlogic/local-weather/internal/refresh"
)

// upstream is what the web tier needs from forecast-core: summaries for the
// cache and geometry for the static endpoint.
type upstream interface {
	forecast.Source
	FetchGeometry(ctx context.Context, citySlug string) (*domain.FeatureCollection, error)
}

// alwaysReady is the readiness check when no refresh consumer runs: the
// service is ready as soon as it listens.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var src upstream
	if cfg.ForecastBaseURL == "" {
		src = forecast.NewFixtureSource()
		logger.Info("no forecast upstream configured, serving embedded fixtures")
	} else {
		src = forecast.NewClient(cfg, metrics, logger)
		logger.Info("forecast upstream configured", "base_url", cfg.ForecastBaseURL)
	}
	cached := forecast.NewCachedSource(src, cfg.SummaryCacheSize, cfg.SummaryCacheTTL, metrics, nil)

	// Analytics: always log locally; publish to Kafka when configured.
	sinks := []analytics.Sink{analytics.NewLogSink(logger)}
	var eventSink *kafkaadapter.EventSink
	if cfg.KafkaEnabled() {
		eventSink = kafkaadapter.NewEventSink(cfg, logger)
		sinks = append(sinks, eventSink)
	}
	dispatcher := analytics.NewDispatcher(cfg.AnalyticsBuffer, logger, metrics, sinks...)

	var ready web.ReadinessChecker = alwaysReady{}
	var pipe *refresh.Pipeline
	var refreshReader *kafkaadapter.RefreshReader
	if cfg.KafkaEnabled() {
		refreshReader = kafkaadapter.NewRefreshReader(cfg, logger)
		pipe = refresh.New(refreshReader, cached, logger, metrics, cfg.RefreshBatch)
		ready = pipe
	}

	srv := web.NewServer(cfg, cached, src, dispatcher, ready, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(ctx)
	})

	if pipe != nil {
		g.Go(func() error {
			return pipe.Run(ctx)
		})
	}

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}

	if refreshReader != nil {
		if err := refreshReader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if eventSink != nil {
		if err := eventSink.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
