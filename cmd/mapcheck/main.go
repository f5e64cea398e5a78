// Command mapcheck drives the whole map load chain headlessly against a
// real or fixture forecast source: geometry fetch, engine build, summary
// fetch, feature-state join, and the analytics events along the way. It
// prints a ✓/✗ line per phase and exits non-zero on any failure, which makes
// it usable as a deploy-time check against a staging forecast-core.
//
// Usage:
//
//	go run ./cmd/mapcheck -city durango
//	go run ./cmd/mapcheck -city durango -base-url https://forecast-core.internal
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/benchcutlogic/local-weather/internal/adapter/forecast"
	"github.com/benchcutlogic/local-weather/internal/adapter/vectormap"
	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/config"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/mapview"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// upstream joins the two fetches the check needs.
type upstream interface {
	FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error)
	FetchGeometry(ctx context.Context, citySlug string) (*domain.FeatureCollection, error)
}

// phase tracks pass/fail for one check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	city := flag.String("city", "durango", "city slug to check")
	baseURL := flag.String("base-url", "", "forecast-core base URL (empty: embedded fixtures)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall check timeout")
	verbose := flag.Bool("v", false, "log adapter activity")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var src upstream
	if *baseURL == "" {
		src = forecast.NewFixtureSource()
	} else {
		cfg := &config.Config{
			ForecastBaseURL: *baseURL,
			ForecastTimeout: 10 * time.Second,
			ForecastRetries: 2,
		}
		src = forecast.NewClient(cfg, observability.NewMetricsForTesting(), logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("=== Map load check: %s ===\n\n", *city)
	phases := runPhases(ctx, *city, src, logger)

	allPassed := true
	for _, p := range phases {
		mark := "✓"
		if !p.passed() {
			mark = "✗"
			allPassed = false
		}
		fmt.Printf("  %s %s\n", mark, p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("Map load check FAILED.")
		os.Exit(1)
	}
	fmt.Println("All phases passed.")
}

func runPhases(ctx context.Context, city string, src upstream, logger *slog.Logger) []*phase {
	geometry := checkGeometry(ctx, city, src)
	engine := checkEngine(ctx, city, src, logger)
	summary := checkSummary(ctx, city, src)

	// The load chain phase drives the real controller; it subsumes the
	// earlier phases but their individual results localize a failure.
	recorder := analytics.NewRecorder()
	chain := checkLoadChain(ctx, city, src, recorder, logger)
	events := checkEvents(recorder)

	return []*phase{geometry, engine, summary, chain, events}
}

func checkGeometry(ctx context.Context, city string, src upstream) *phase {
	p := &phase{name: "geometry fetch"}

	fc, err := src.FetchGeometry(ctx, city)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	if len(fc.Features) == 0 {
		p.errorf("no zone features")
	}
	return p
}

func checkEngine(ctx context.Context, city string, src upstream, logger *slog.Logger) *phase {
	p := &phase{name: "engine build"}

	engine, err := vectormap.NewLoader(src, logger).LoadEngine(ctx, city)
	if err != nil {
		p.errorf("load engine: %v", err)
		return p
	}
	defer engine.Destroy()

	// Probe the point query with each zone's first vertex nudged inward.
	fc, err := src.FetchGeometry(ctx, city)
	if err != nil {
		p.errorf("refetch geometry: %v", err)
		return p
	}
	for _, f := range fc.Features {
		pt := interiorPoint(f)
		if zoneID, ok := engine.FeatureAt(pt); !ok {
			p.errorf("zone %s: interior point (%.4f, %.4f) resolved to nothing", f.Properties.ZoneID, pt.Lon, pt.Lat)
		} else if zoneID != f.Properties.ZoneID {
			p.errorf("zone %s: interior point resolved to %s", f.Properties.ZoneID, zoneID)
		}
	}
	return p
}

func checkSummary(ctx context.Context, city string, src upstream) *phase {
	p := &phase{name: "summary fetch"}

	summary, err := src.FetchSummary(ctx, city)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	if len(summary.Zones) == 0 {
		p.errorf("no zones in summary")
	}
	for _, aoi := range summary.Aois {
		if _, ok := summary.ZoneByID(aoi.ZoneID); !ok {
			p.errorf("aoi %s references unknown zone %s", aoi.AoiSlug, aoi.ZoneID)
		}
	}
	return p
}

func checkLoadChain(ctx context.Context, city string, src upstream, recorder *analytics.Recorder, logger *slog.Logger) *phase {
	p := &phase{name: "load chain"}

	ctrl := mapview.New(mapview.Options{
		CitySlug: city,
		Loader:   vectormap.NewLoader(src, logger),
		Source:   src,
		Sink:     recorder,
		Logger:   logger,
	})
	defer ctrl.Close()

	ctrl.TriggerVisible(ctx)
	select {
	case <-ctrl.Done():
	case <-ctx.Done():
		p.errorf("load chain did not finish: %v", ctx.Err())
		return p
	}

	state := ctrl.State()
	if state.Phase != mapview.PhaseLoaded {
		p.errorf("terminal phase %q (%s), want loaded", state.Phase, state.ErrorMessage)
		return p
	}
	if state.FallbackVisible {
		p.errorf("fallback still visible in loaded phase")
	}

	// Drive the panel and selection surfaces once each.
	ctrl.SetMetric(ctx, domain.MetricSnow)
	if got := ctrl.State().ActiveMetric; got != domain.MetricSnow {
		p.errorf("metric change not applied: %s", got)
	}

	summary := ctrl.Summary()
	if summary == nil || len(summary.Aois) == 0 {
		p.errorf("loaded without summary AOIs")
		return p
	}
	ctrl.SelectAoi(ctx, summary.Aois[0].AoiSlug)
	if sel := ctrl.State().Selected; sel.Aoi == nil || sel.Zone == nil {
		p.errorf("aoi selection did not resolve")
	}
	ctrl.CloseDetail(ctx)
	if sel := ctrl.State().Selected; sel.Zone != nil {
		p.errorf("detail not cleared")
	}
	return p
}

func checkEvents(recorder *analytics.Recorder) *phase {
	p := &phase{name: "analytics events"}

	expectOne := func(name string) {
		if n := len(recorder.Named(name)); n != 1 {
			p.errorf("%s: %d events, want 1", name, n)
		}
	}
	expectOne(analytics.EventMapLoadStart)
	expectOne(analytics.EventMapLoadSuccess)
	expectOne(analytics.EventMetricChanged)
	expectOne(analytics.EventAoiSelected)
	expectOne(analytics.EventDetailClosed)

	if n := len(recorder.Named(analytics.EventMapLoadError)); n != 0 {
		p.errorf("map-load-error: %d events, want 0", n)
	}

	for _, e := range recorder.Events() {
		if e.SessionID == "" {
			p.errorf("%s: missing session id", e.Name)
		}
		if e.Timestamp.IsZero() {
			p.errorf("%s: missing timestamp", e.Name)
		}
	}
	return p
}

// interiorPoint returns a point just inside the feature's first vertex,
// nudged toward the ring centroid.
func interiorPoint(f domain.Feature) domain.Point {
	ring := f.Geometry.Coordinates[0]
	var cx, cy float64
	for _, pos := range ring {
		cx += pos[0]
		cy += pos[1]
	}
	cx /= float64(len(ring))
	cy /= float64(len(ring))
	return domain.Point{Lon: cx, Lat: cy}
}
