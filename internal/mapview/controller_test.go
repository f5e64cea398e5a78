package mapview_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/mapview"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// --- mocks ---

type fakeEngine struct {
	mu         sync.Mutex
	states     map[string]mapview.FeatureState
	fillMetric domain.MetricKey
	visibility map[mapview.Layer]bool
	featureAt  string // zone id returned by FeatureAt; empty means no hit
	stateErr   error
	destroyed  bool

	// When set before the load starts, SetFeatureState signals stateEntered
	// once and then waits for stateGate, holding the join open mid-flight.
	stateGate    chan struct{}
	stateEntered chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		states:     make(map[string]mapview.FeatureState),
		visibility: make(map[mapview.Layer]bool),
	}
}

func (e *fakeEngine) AddGeometry(_ *domain.FeatureCollection) error { return nil }

func (e *fakeEngine) SetFeatureState(zoneID string, state mapview.FeatureState) error {
	if e.stateEntered != nil {
		select {
		case e.stateEntered <- struct{}{}:
		default:
		}
	}
	if e.stateGate != nil {
		<-e.stateGate
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stateErr != nil {
		return e.stateErr
	}
	e.states[zoneID] = state
	return nil
}

func (e *fakeEngine) SetFillMetric(metric domain.MetricKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fillMetric = metric
	return nil
}

func (e *fakeEngine) SetLayerVisibility(layer mapview.Layer, visible bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visibility[layer] = visible
	return nil
}

func (e *fakeEngine) FeatureAt(_ domain.Point) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.featureAt, e.featureAt != ""
}

func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
}

func (e *fakeEngine) snapshot() (map[string]mapview.FeatureState, domain.MetricKey, map[mapview.Layer]bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	states := make(map[string]mapview.FeatureState, len(e.states))
	for k, v := range e.states {
		states[k] = v
	}
	vis := make(map[mapview.Layer]bool, len(e.visibility))
	for k, v := range e.visibility {
		vis[k] = v
	}
	return states, e.fillMetric, vis, e.destroyed
}

type fakeLoader struct {
	engine *fakeEngine
	err    error
	block  chan struct{} // when non-nil, LoadEngine waits for close or ctx
	calls  atomic.Int32
}

func (l *fakeLoader) LoadEngine(ctx context.Context, _ string) (mapview.Engine, error) {
	l.calls.Add(1)
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.engine, nil
}

type fakeSource struct {
	summary *domain.ZoneSummaryResponse
	err     error
	block   chan struct{}
	calls   atomic.Int32
}

func (s *fakeSource) FetchSummary(ctx context.Context, _ string) (*domain.ZoneSummaryResponse, error) {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

// --- helpers ---

// durangoSummary builds the six-zone, three-AOI payload used across the
// scenarios, including purgatory-resort inside dgo-z-003.
func durangoSummary(t *testing.T) *domain.ZoneSummaryResponse {
	t.Helper()
	generated := time.Date(2026, time.January, 12, 6, 0, 0, 0, time.UTC)

	labels := []string{
		"Animas Valley", "Downtown Durango", "Purgatory / Hermosa Cliffs",
		"Florida Mesa", "Junction Creek", "La Plata Canyon",
	}
	zones := make([]domain.ZoneMetric, 0, len(labels))
	ids := []string{"dgo-z-001", "dgo-z-002", "dgo-z-003", "dgo-z-004", "dgo-z-005", "dgo-z-006"}
	for i, id := range ids {
		zones = append(zones, domain.ZoneMetric{
			ZoneID:          id,
			ZoneLabel:       labels[i],
			TempDeltaF:      float64(i) - 3,
			WindDeltaMPH:    float64(i * 2),
			PrecipDeltaPct:  float64(i * 5),
			SnowDeltaIn:     float64(i),
			ConfidenceLevel: domain.ConfidenceHigh,
			UpdatedAt:       generated,
		})
	}
	zones[2].Hazards = []domain.Hazard{domain.HazardSnow, domain.HazardWhiteoutRisk}
	zones[2].ConfidenceLevel = domain.ConfidenceModerate

	summary := &domain.ZoneSummaryResponse{
		CitySlug:    "durango",
		Metric:      domain.MetricTemperature,
		GeneratedAt: generated,
		Zones:       zones,
		Aois: []domain.AoiCard{
			{AoiSlug: "purgatory-resort", AoiName: "Purgatory Resort", Note: "Upper lifts catch the wind", ZoneID: "dgo-z-003"},
			{AoiSlug: "animas-river-trail", AoiName: "Animas River Trail", ZoneID: "dgo-z-002"},
			{AoiSlug: "la-plata-canyon-road", AoiName: "La Plata Canyon Road", ZoneID: "dgo-z-006"},
		},
	}
	require.NoError(t, summary.Validate())
	return summary
}

type fixture struct {
	ctrl     *mapview.Controller
	engine   *fakeEngine
	loader   *fakeLoader
	source   *fakeSource
	recorder *analytics.Recorder
}

func newFixture(t *testing.T, mutate func(*mapview.Options, *fakeLoader, *fakeSource)) *fixture {
	t.Helper()

	engine := newFakeEngine()
	loader := &fakeLoader{engine: engine}
	source := &fakeSource{summary: durangoSummary(t)}
	recorder := analytics.NewRecorder()

	opts := mapview.Options{
		CitySlug:  "durango",
		Loader:    loader,
		Source:    source,
		Sink:      recorder,
		SessionID: "sess-test",
		Metrics:   observability.NewMetricsForTesting(),
		Clock:     clockwork.NewFakeClockAt(time.Date(2026, time.January, 12, 8, 0, 0, 0, time.UTC)),
	}
	if mutate != nil {
		mutate(&opts, loader, source)
	}

	ctrl := mapview.New(opts)
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, engine: engine, loader: loader, source: source, recorder: recorder}
}

// loadToDone triggers visibility and waits for the load chain to finish.
func loadToDone(t *testing.T, f *fixture) {
	t.Helper()
	f.ctrl.TriggerVisible(context.Background())
	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}
}

// --- load state machine ---

func TestController_LoadSuccess_ScenarioA(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseLoaded, st.Phase)
	assert.False(t, st.FallbackVisible)
	assert.Empty(t, st.ErrorMessage)

	states, fill, vis, _ := f.engine.snapshot()
	assert.Len(t, states, 6, "feature state joined for every zone")
	assert.Equal(t, domain.DefaultMetric, fill)
	assert.True(t, vis[mapview.LayerAoi])
	assert.True(t, vis[mapview.LayerHazards])
	assert.False(t, vis[mapview.LayerConfidence])

	purgatory := states["dgo-z-003"]
	assert.Equal(t, domain.ConfidenceModerate, purgatory.Confidence)
	assert.Contains(t, purgatory.Hazards, domain.HazardWhiteoutRisk)

	starts := f.recorder.Named(analytics.EventMapLoadStart)
	require.Len(t, starts, 1)
	assert.Equal(t, "durango", starts[0].CitySlug)
	assert.Equal(t, "sess-test", starts[0].SessionID)

	successes := f.recorder.Named(analytics.EventMapLoadSuccess)
	require.Len(t, successes, 1)
	assert.Equal(t, 6, successes[0].Fields["zone_count"])
	assert.Equal(t, 3, successes[0].Fields["aoi_count"])
	assert.Contains(t, successes[0].Fields, "elapsed_ms")
}

func TestController_DuplicateTriggerSuppressed(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(_ *mapview.Options, l *fakeLoader, _ *fakeSource) {
		l.block = block
	})

	f.ctrl.TriggerVisible(context.Background())
	f.ctrl.TriggerVisible(context.Background())
	f.ctrl.TriggerVisible(context.Background())
	close(block)

	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}

	assert.EqualValues(t, 1, f.loader.calls.Load(), "trigger disarms after first fire")
	assert.Len(t, f.recorder.Named(analytics.EventMapLoadStart), 1)
	assert.Equal(t, mapview.PhaseLoaded, f.ctrl.State().Phase)
}

func TestController_EngineLoadFailure(t *testing.T) {
	f := newFixture(t, func(o *mapview.Options, l *fakeLoader, _ *fakeSource) {
		l.err = errors.New("script fetch refused")
		o.FallbackAois = []domain.AoiCard{{AoiSlug: "purgatory-resort", AoiName: "Purgatory Resort", ZoneID: "dgo-z-003"}}
	})
	loadToDone(t, f)

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseError, st.Phase)
	assert.True(t, st.FallbackVisible)
	assert.Contains(t, st.ErrorMessage, "map engine failed to load")
	assert.Contains(t, st.ErrorMessage, "script fetch refused")

	errs := f.recorder.Named(analytics.EventMapLoadError)
	require.Len(t, errs, 1)
	assert.Equal(t, st.ErrorMessage, errs[0].Fields["message"])

	fallbacks := f.recorder.Named(analytics.EventMapFallbackVisible)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, "engine_load_failed", fallbacks[0].Fields["reason"])

	// Engine never reached the network: the deepest static tier serves.
	cards, notice := f.ctrl.Fallback()
	require.Len(t, cards, 1)
	assert.Empty(t, notice)
	assert.Nil(t, cards[0].Zone)
}

func TestController_SummaryFetchFailure_ScenarioB(t *testing.T) {
	f := newFixture(t, func(o *mapview.Options, _ *fakeLoader, s *fakeSource) {
		s.err = &domain.NetworkError{CitySlug: "durango", Status: 500}
		o.FallbackAois = []domain.AoiCard{{AoiSlug: "animas-river-trail", AoiName: "Animas River Trail", ZoneID: "dgo-z-002"}}
	})
	loadToDone(t, f)

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseError, st.Phase)
	assert.Contains(t, st.ErrorMessage, "zone summary fetch failed")
	assert.Contains(t, st.ErrorMessage, "status 500")

	assert.Len(t, f.recorder.Named(analytics.EventMapLoadError), 1)
	fallbacks := f.recorder.Named(analytics.EventMapFallbackVisible)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, "summary_fetch_failed", fallbacks[0].Fields["reason"])

	cards, notice := f.ctrl.Fallback()
	assert.NotEmpty(t, cards)
	assert.Empty(t, notice)
}

func TestController_MalformedSummaryFailure(t *testing.T) {
	f := newFixture(t, func(_ *mapview.Options, _ *fakeLoader, s *fakeSource) {
		s.err = &domain.MalformedResponseError{CitySlug: "durango", Reason: `aoi "x" references unknown zone_id "nope"`}
	})
	loadToDone(t, f)

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseError, st.Phase)
	assert.Contains(t, st.ErrorMessage, "unknown zone_id")

	// No summary and no static list: the notice is explicit, never blank.
	cards, notice := f.ctrl.Fallback()
	assert.Empty(t, cards)
	assert.Equal(t, mapview.UnavailableMessage, notice)
}

func TestController_LoadTimeout(t *testing.T) {
	f := newFixture(t, func(o *mapview.Options, l *fakeLoader, _ *fakeSource) {
		o.Clock = nil // real clock so the deadline actually fires
		o.LoadTimeout = 30 * time.Millisecond
		l.block = make(chan struct{}) // never closed: a hung module fetch
	})
	loadToDone(t, f)

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseError, st.Phase)
	assert.Equal(t, "map load timed out", st.ErrorMessage)
}

func TestController_CloseDuringLoading_NoWritesAfterTeardown(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(_ *mapview.Options, _ *fakeLoader, s *fakeSource) {
		s.block = block
	})

	f.ctrl.TriggerVisible(context.Background())
	require.Eventually(t, func() bool { return f.source.calls.Load() == 1 },
		time.Second, 5*time.Millisecond, "summary fetch should be in flight")

	f.ctrl.Close()
	close(block) // the pending fetch now resolves, after teardown

	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseLoading, st.Phase, "no terminal transition after Close")
	assert.Nil(t, f.ctrl.Summary())
	assert.Empty(t, f.recorder.Named(analytics.EventMapLoadSuccess))
	assert.Empty(t, f.recorder.Named(analytics.EventMapLoadError))

	_, _, _, destroyed := f.engine.snapshot()
	assert.True(t, destroyed, "adopted engine released on Close")
}

func TestController_CloseDuringEngineLoad_DestroysLateEngine(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(_ *mapview.Options, l *fakeLoader, _ *fakeSource) {
		l.block = block
	})

	f.ctrl.TriggerVisible(context.Background())
	require.Eventually(t, func() bool { return f.loader.calls.Load() == 1 },
		time.Second, 5*time.Millisecond)

	f.ctrl.Close()
	close(block)

	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}

	_, _, _, destroyed := f.engine.snapshot()
	assert.True(t, destroyed, "engine arriving after Close is destroyed, not adopted")
	assert.EqualValues(t, 0, f.source.calls.Load(), "abandoned chain never reaches the network")
}

func TestController_EngineRuntimeError_KeepsSummaryCards(t *testing.T) {
	f := newFixture(t, func(o *mapview.Options, _ *fakeLoader, _ *fakeSource) {
		o.FallbackAois = []domain.AoiCard{{AoiSlug: "static-only", AoiName: "Static Only", ZoneID: "dgo-z-001"}}
	})
	loadToDone(t, f)
	require.Equal(t, mapview.PhaseLoaded, f.ctrl.State().Phase)

	f.ctrl.HandleEngineError(context.Background(), errors.New("webgl context lost"))

	st := f.ctrl.State()
	assert.Equal(t, mapview.PhaseError, st.Phase)
	assert.Contains(t, st.ErrorMessage, "webgl context lost")

	fallbacks := f.recorder.Named(analytics.EventMapFallbackVisible)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, "engine_runtime_error", fallbacks[0].Fields["reason"])

	// Data and engine availability fail independently: the fetched summary
	// keeps backing the cards, not the static tier.
	cards, notice := f.ctrl.Fallback()
	require.Len(t, cards, 3)
	assert.Empty(t, notice)
	require.NotNil(t, cards[0].Zone)
	assert.Equal(t, "dgo-z-003", cards[0].Zone.ZoneID)
}

// --- control panel ---

func TestController_MetricChange_NoRefetch(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	ctx := context.Background()
	f.ctrl.SetMetric(ctx, domain.MetricWind)
	f.ctrl.SetMetric(ctx, domain.MetricSnow)
	f.ctrl.SetMetric(ctx, domain.MetricPrecipitation)

	assert.EqualValues(t, 1, f.source.calls.Load(), "metric changes restyle locally, never refetch")

	_, fill, _, _ := f.engine.snapshot()
	assert.Equal(t, domain.MetricPrecipitation, fill)
	assert.Equal(t, domain.MetricPrecipitation, f.ctrl.State().ActiveMetric)

	changes := f.recorder.Named(analytics.EventMetricChanged)
	require.Len(t, changes, 3)
	assert.Equal(t, "precipitation", changes[2].Fields["metric"])
}

func TestController_MetricChangeWhileLoading_DeferredToJoin(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(_ *mapview.Options, l *fakeLoader, _ *fakeSource) {
		l.block = block
	})

	ctx := context.Background()
	f.ctrl.TriggerVisible(ctx)
	f.ctrl.SetMetric(ctx, domain.MetricSnow)
	f.ctrl.SetLayer(ctx, mapview.LayerConfidence, true)

	// Recorded immediately, pushed on load.
	assert.Len(t, f.recorder.Named(analytics.EventMetricChanged), 1)
	assert.Len(t, f.recorder.Named(analytics.EventLayerToggled), 1)

	close(block)
	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}

	_, fill, vis, _ := f.engine.snapshot()
	assert.Equal(t, domain.MetricSnow, fill)
	assert.True(t, vis[mapview.LayerConfidence])
}

func TestController_PanelChangeDuringJoin_PushedBeforeLoaded(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.stateGate = make(chan struct{})
	f.engine.stateEntered = make(chan struct{}, 1)

	ctx := context.Background()
	f.ctrl.TriggerVisible(ctx)
	<-f.engine.stateEntered // join snapshot already taken

	// The join is mid-flight: these land after its snapshot of the panel.
	f.ctrl.SetMetric(ctx, domain.MetricSnow)
	f.ctrl.SetLayer(ctx, mapview.LayerConfidence, true)

	close(f.engine.stateGate)
	select {
	case <-f.ctrl.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("load chain did not finish")
	}

	require.Equal(t, mapview.PhaseLoaded, f.ctrl.State().Phase)
	assert.Equal(t, domain.MetricSnow, f.ctrl.State().ActiveMetric)

	_, fill, vis, _ := f.engine.snapshot()
	assert.Equal(t, domain.MetricSnow, fill, "engine fill must match the reported metric")
	assert.True(t, vis[mapview.LayerConfidence])
}

func TestController_LayerToggleIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	ctx := context.Background()
	f.ctrl.SetLayer(ctx, mapview.LayerHazards, false)
	once := f.ctrl.State().Layers

	f.ctrl.SetLayer(ctx, mapview.LayerHazards, false)
	twice := f.ctrl.State().Layers

	assert.Equal(t, once, twice)
	_, _, vis, _ := f.engine.snapshot()
	assert.False(t, vis[mapview.LayerHazards])
}

func TestController_InvalidMetricAndLayerIgnored(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	ctx := context.Background()
	f.ctrl.SetMetric(ctx, domain.MetricKey("humidity"))
	f.ctrl.SetLayer(ctx, mapview.Layer("satellite"), true)

	assert.Equal(t, domain.DefaultMetric, f.ctrl.State().ActiveMetric)
	assert.Empty(t, f.recorder.Named(analytics.EventMetricChanged))
	assert.Empty(t, f.recorder.Named(analytics.EventLayerToggled))
}

// --- selection & detail ---

func TestController_SelectZone_UnknownIDIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	f.ctrl.SelectZone(context.Background(), "dgo-z-999")

	st := f.ctrl.State()
	assert.Nil(t, st.Selected.Zone)
	assert.Nil(t, st.Selected.Aoi)
	assert.Empty(t, f.recorder.Named(analytics.EventZoneSelected))
}

func TestController_SelectZone_ResolvesPrimaryAoi(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	f.ctrl.SelectZone(context.Background(), "dgo-z-003")

	st := f.ctrl.State()
	require.NotNil(t, st.Selected.Zone)
	assert.Equal(t, "dgo-z-003", st.Selected.Zone.ZoneID)
	require.NotNil(t, st.Selected.Aoi, "zone context stays attached under the AOI")
	assert.Equal(t, "purgatory-resort", st.Selected.Aoi.AoiSlug)

	selections := f.recorder.Named(analytics.EventZoneSelected)
	require.Len(t, selections, 1)
	assert.Equal(t, "dgo-z-003", selections[0].Fields["zone_id"])

	aois := f.recorder.Named(analytics.EventAoiSelected)
	require.Len(t, aois, 1)
	assert.Equal(t, "purgatory-resort", aois[0].Fields["aoi_slug"])
	assert.Equal(t, "dgo-z-003", aois[0].Fields["zone_id"])
}

func TestController_SelectAoiAndClose_ScenarioC(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	ctx := context.Background()
	f.ctrl.SelectAoi(ctx, "purgatory-resort")

	st := f.ctrl.State()
	require.NotNil(t, st.Selected.Zone)
	require.NotNil(t, st.Selected.Aoi)
	assert.Equal(t, "dgo-z-003", st.Selected.Zone.ZoneID)
	assert.Equal(t, "purgatory-resort", st.Selected.Aoi.AoiSlug)

	f.ctrl.CloseDetail(ctx)

	st = f.ctrl.State()
	assert.Nil(t, st.Selected.Zone)
	assert.Nil(t, st.Selected.Aoi)

	closed := f.recorder.Named(analytics.EventDetailClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, "aoi", closed[0].Fields["detail"], "AOI outranks its parent zone in the close tag")
}

func TestController_CloseDetail_ZoneOnly(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	ctx := context.Background()
	f.ctrl.SelectZone(ctx, "dgo-z-001") // no AOI references this zone
	f.ctrl.CloseDetail(ctx)

	closed := f.recorder.Named(analytics.EventDetailClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, "zone", closed[0].Fields["detail"])
}

func TestController_CloseDetail_NothingSelected(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	f.ctrl.CloseDetail(context.Background())
	assert.Empty(t, f.recorder.Named(analytics.EventDetailClosed))
}

func TestController_HandleClick(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	f.engine.mu.Lock()
	f.engine.featureAt = "dgo-z-002"
	f.engine.mu.Unlock()

	f.ctrl.HandleClick(context.Background(), domain.Point{Lon: -107.87, Lat: 37.27})

	st := f.ctrl.State()
	require.NotNil(t, st.Selected.Zone)
	assert.Equal(t, "dgo-z-002", st.Selected.Zone.ZoneID)
	require.NotNil(t, st.Selected.Aoi)
	assert.Equal(t, "animas-river-trail", st.Selected.Aoi.AoiSlug)
}

func TestController_HandleClick_OutsideZones(t *testing.T) {
	f := newFixture(t, nil)
	loadToDone(t, f)

	f.ctrl.HandleClick(context.Background(), domain.Point{Lon: 0, Lat: 0})
	assert.Nil(t, f.ctrl.State().Selected.Zone)
	assert.Empty(t, f.recorder.Named(analytics.EventZoneSelected))
}

// --- fallback derivation ---

func TestFallbackContent_Tiers(t *testing.T) {
	summary := durangoSummary(t)
	static := []domain.AoiCard{{AoiSlug: "static-aoi", AoiName: "Static AOI", ZoneID: "dgo-z-001"}}

	t.Run("summary wins over static", func(t *testing.T) {
		cards, notice := mapview.FallbackContent(summary, static)
		require.Len(t, cards, 3)
		assert.Empty(t, notice)
		assert.Equal(t, "purgatory-resort", cards[0].Aoi.AoiSlug)
		require.NotNil(t, cards[0].Zone)
		assert.Equal(t, "Purgatory / Hermosa Cliffs", cards[0].Zone.ZoneLabel)
	})

	t.Run("static tier when no summary", func(t *testing.T) {
		cards, notice := mapview.FallbackContent(nil, static)
		require.Len(t, cards, 1)
		assert.Empty(t, notice)
		assert.Nil(t, cards[0].Zone)
	})

	t.Run("explicit notice when nothing is available", func(t *testing.T) {
		cards, notice := mapview.FallbackContent(nil, nil)
		assert.Empty(t, cards)
		assert.Equal(t, mapview.UnavailableMessage, notice)
	})
}

func TestPhase_FallbackVisible(t *testing.T) {
	assert.True(t, mapview.PhaseIdle.FallbackVisible())
	assert.True(t, mapview.PhaseLoading.FallbackVisible())
	assert.True(t, mapview.PhaseError.FallbackVisible())
	assert.False(t, mapview.PhaseLoaded.FallbackVisible())
}
