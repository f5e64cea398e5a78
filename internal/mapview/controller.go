package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// DefaultLoadTimeout bounds the whole load chain. The upstream design left a
// hung request in loading forever; here it resolves to the error phase with
// a timed-out message.
const DefaultLoadTimeout = 8 * time.Second

// Reasons stamped on map-fallback-visible events.
const (
	reasonEngineLoadFailed   = "engine_load_failed"
	reasonSummaryFetchFailed = "summary_fetch_failed"
	reasonFeatureJoinFailed  = "feature_join_failed"
	reasonEngineRuntimeError = "engine_runtime_error"
)

// Options configures one mounted map component.
type Options struct {
	CitySlug string

	// FallbackAois is the host-supplied minimal card list for the deepest
	// fallback tier, used when the summary never arrived.
	FallbackAois []domain.AoiCard

	Loader EngineLoader
	Source SummarySource

	// Sink receives observability events; nil disables emission. SessionID
	// overrides the per-mount random identifier, for tests.
	Sink      analytics.Sink
	SessionID string

	LoadTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	Clock       clockwork.Clock
}

// Controller owns one city's MapViewState for the duration of a mount. All
// methods are safe for concurrent use; the load chain runs on its own
// goroutine and every continuation re-checks the lifecycle flag before
// touching state.
type Controller struct {
	citySlug     string
	fallbackAois []domain.AoiCard
	loader       EngineLoader
	source       SummarySource
	emitter      *analytics.Emitter
	logger       *slog.Logger
	metrics      *observability.Metrics
	clock        clockwork.Clock
	loadTimeout  time.Duration

	mu        sync.Mutex
	phase     Phase
	fired     bool // visibility trigger disarmed once fired
	destroyed bool
	engine    Engine
	summary   *domain.ZoneSummaryResponse
	metric    domain.MetricKey
	layers    map[Layer]bool
	selected  Selection
	errMsg    string
	loadStart time.Time

	done chan struct{} // closed when the load chain finishes or is abandoned
}

// New creates an idle controller for one mount.
func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}

	return &Controller{
		citySlug:     opts.CitySlug,
		fallbackAois: opts.FallbackAois,
		loader:       opts.Loader,
		source:       opts.Source,
		emitter:      analytics.NewEmitter(opts.Sink, opts.CitySlug, opts.SessionID, opts.Clock),
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		clock:        opts.Clock,
		loadTimeout:  opts.LoadTimeout,
		phase:        PhaseIdle,
		metric:       domain.DefaultMetric,
		layers: map[Layer]bool{
			LayerAoi:        true,
			LayerConfidence: false,
			LayerHazards:    true,
		},
		done: make(chan struct{}),
	}
}

// SessionID returns the identifier stamped on this mount's events.
func (c *Controller) SessionID() string {
	return c.emitter.SessionID()
}

// TriggerVisible starts the load chain. The host calls it when the map
// container enters the viewport; the trigger disarms after the first call,
// so duplicate or concurrent visibility events are suppressed.
func (c *Controller) TriggerVisible(ctx context.Context) {
	c.mu.Lock()
	if c.fired || c.destroyed {
		c.mu.Unlock()
		return
	}
	c.fired = true
	c.phase = PhaseLoading
	c.loadStart = c.clock.Now()
	c.mu.Unlock()

	c.emitter.Emit(ctx, analytics.EventMapLoadStart, nil)
	c.logger.Info("map load started", "city", c.citySlug)

	go c.load(ctx)
}

// Done is closed once the load chain has finished, whether it reached a
// terminal phase or was abandoned by Close mid-flight.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// load runs the ordered chain: engine (module + geometry) -> summary ->
// feature-state join. Exactly one transition out of loading happens here.
func (c *Controller) load(ctx context.Context) {
	defer close(c.done)

	ctx, cancel := clockwork.WithTimeout(ctx, c.clock, c.loadTimeout)
	defer cancel()

	engine, err := c.loader.LoadEngine(ctx, c.citySlug)
	if err != nil {
		c.fail(ctx, reasonEngineLoadFailed, loadMessage(ctx, "map engine failed to load", err))
		return
	}
	if !c.adoptEngine(engine) {
		// Unmounted while the engine was loading.
		engine.Destroy()
		return
	}

	summary, err := c.source.FetchSummary(ctx, c.citySlug)
	if err != nil {
		c.fail(ctx, reasonSummaryFetchFailed, loadMessage(ctx, "zone summary fetch failed", err))
		return
	}

	joined, err := c.join(engine, summary)
	if err != nil {
		c.fail(ctx, reasonFeatureJoinFailed, fmt.Sprintf("zone state could not be applied: %v", err))
		return
	}

	c.finish(ctx, engine, summary, joined)
}

// adoptEngine stores the engine unless the component was torn down while it
// loaded. Returns false when the caller must destroy the engine itself.
func (c *Controller) adoptEngine(engine Engine) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return false
	}
	c.engine = engine
	return true
}

// panelSnapshot records the metric and layer choices a join pushed, so the
// finish step can tell whether the panel moved while the join ran.
type panelSnapshot struct {
	metric domain.MetricKey
	layers map[Layer]bool
}

// join attaches per-zone feature state and pushes the panel choices made
// before the engine was ready. It completes before loaded is observable, so
// panel operations never see a half-joined map.
func (c *Controller) join(engine Engine, summary *domain.ZoneSummaryResponse) (panelSnapshot, error) {
	c.mu.Lock()
	snap := panelSnapshot{metric: c.metric, layers: make(map[Layer]bool, len(c.layers))}
	for l, v := range c.layers {
		snap.layers[l] = v
	}
	c.mu.Unlock()

	for _, z := range summary.Zones {
		if err := engine.SetFeatureState(z.ZoneID, featureStateFor(z)); err != nil {
			return snap, fmt.Errorf("feature state for zone %q: %w", z.ZoneID, err)
		}
	}
	if err := engine.SetFillMetric(snap.metric); err != nil {
		return snap, fmt.Errorf("fill metric %q: %w", snap.metric, err)
	}
	for _, l := range AllLayers() {
		if err := engine.SetLayerVisibility(l, snap.layers[l]); err != nil {
			return snap, fmt.Errorf("layer %q visibility: %w", l, err)
		}
	}
	return snap, nil
}

func (c *Controller) finish(ctx context.Context, engine Engine, summary *domain.ZoneSummaryResponse, joined panelSnapshot) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.summary = summary
	c.phase = PhaseLoaded

	// Panel changes that landed during the join were recorded but deferred.
	// Settle them under the same lock that flips the phase: a concurrent
	// panel call either came before the flip and is pushed here, or waits on
	// the lock, sees loaded, and pushes itself afterwards.
	if c.metric != joined.metric {
		if err := engine.SetFillMetric(c.metric); err != nil {
			c.logger.Warn("fill metric restyle failed", "metric", c.metric, "error", err)
		}
	}
	for _, l := range AllLayers() {
		if c.layers[l] != joined.layers[l] {
			if err := engine.SetLayerVisibility(l, c.layers[l]); err != nil {
				c.logger.Warn("layer visibility update failed", "layer", l, "error", err)
			}
		}
	}

	elapsed := c.clock.Since(c.loadStart)
	c.mu.Unlock()

	c.metrics.MapLoads.WithLabelValues(c.citySlug, "loaded").Inc()
	c.metrics.MapLoadDuration.Observe(elapsed.Seconds())
	c.emitter.Emit(ctx, analytics.EventMapLoadSuccess, map[string]any{
		"zone_count": len(summary.Zones),
		"aoi_count":  len(summary.Aois),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	c.logger.Info("map loaded",
		"city", c.citySlug,
		"zones", len(summary.Zones),
		"aois", len(summary.Aois),
		"elapsed", elapsed,
	)
}

func (c *Controller) fail(ctx context.Context, reason, msg string) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseError
	c.errMsg = msg
	elapsed := c.clock.Since(c.loadStart)
	c.mu.Unlock()

	c.metrics.MapLoads.WithLabelValues(c.citySlug, "error").Inc()
	c.metrics.MapLoadDuration.Observe(elapsed.Seconds())
	c.emitter.Emit(ctx, analytics.EventMapLoadError, map[string]any{"message": msg})
	c.emitter.Emit(ctx, analytics.EventMapFallbackVisible, map[string]any{"reason": reason})
	c.logger.Error("map load failed", "city", c.citySlug, "reason", reason, "error", msg)
}

// loadMessage keeps the three failure causes distinguishable in the error
// message while collapsing a deadline into the timed-out wording. A
// fake-clock context's Err blocks until Done closes, so the deadline is
// only consulted once Done is observably closed.
func loadMessage(ctx context.Context, prefix string, err error) string {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "map load timed out"
		}
	default:
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

// HandleEngineError records a rendering failure that happened after a
// successful load. The fetched summary stays: fallback cards keep their
// data, only the canvas is gone.
func (c *Controller) HandleEngineError(ctx context.Context, err error) {
	c.mu.Lock()
	if c.destroyed || c.phase != PhaseLoaded {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseError
	c.errMsg = fmt.Sprintf("map rendering failed: %v", err)
	msg := c.errMsg
	c.mu.Unlock()

	c.emitter.Emit(ctx, analytics.EventMapLoadError, map[string]any{"message": msg})
	c.emitter.Emit(ctx, analytics.EventMapFallbackVisible, map[string]any{"reason": reasonEngineRuntimeError})
	c.logger.Error("map engine runtime error", "city", c.citySlug, "error", err)
}

// SetMetric switches the active fill encoding. Never fails: before the map
// is loaded the choice is recorded and pushed during the join.
func (c *Controller) SetMetric(ctx context.Context, m domain.MetricKey) {
	if !m.Valid() {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.metric = m
	engine, push := c.engine, c.phase == PhaseLoaded
	c.mu.Unlock()

	if push {
		if err := engine.SetFillMetric(m); err != nil {
			c.logger.Warn("fill metric restyle failed", "metric", m, "error", err)
		}
	}
	c.emitter.Emit(ctx, analytics.EventMetricChanged, map[string]any{"metric": string(m)})
}

// SetLayer shows or hides one overlay. Idempotent; deferred like SetMetric
// when the engine is not loaded yet.
func (c *Controller) SetLayer(ctx context.Context, layer Layer, visible bool) {
	if !layer.Valid() {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.layers[layer] = visible
	engine, push := c.engine, c.phase == PhaseLoaded
	c.mu.Unlock()

	if push {
		if err := engine.SetLayerVisibility(layer, visible); err != nil {
			c.logger.Warn("layer visibility update failed", "layer", layer, "error", err)
		}
	}
	c.emitter.Emit(ctx, analytics.EventLayerToggled, map[string]any{
		"layer":   string(layer),
		"enabled": visible,
	})
}

// SelectZone focuses a zone from the current summary, resolving its primary
// AOI. An id absent from the summary -- or any selection before a summary
// arrived -- is a no-op, not an error, and emits nothing.
func (c *Controller) SelectZone(ctx context.Context, zoneID string) {
	c.mu.Lock()
	if c.destroyed || c.summary == nil {
		c.mu.Unlock()
		return
	}
	zone, ok := c.summary.ZoneByID(zoneID)
	if !ok {
		c.mu.Unlock()
		return
	}
	sel := Selection{Zone: &zone}
	aoi, hasAoi := c.summary.AoiForZone(zoneID)
	if hasAoi {
		sel.Aoi = &aoi
	}
	c.selected = sel
	c.mu.Unlock()

	c.emitter.Emit(ctx, analytics.EventZoneSelected, map[string]any{"zone_id": zoneID})
	if hasAoi {
		c.emitter.Emit(ctx, analytics.EventAoiSelected, map[string]any{
			"aoi_slug": aoi.AoiSlug,
			"zone_id":  zoneID,
		})
	}
}

// SelectAoi focuses a specific AOI card, as activated from the fallback
// list. Resolution matches a map click on the AOI's zone, except the tapped
// card wins over the zone's first AOI when a zone has several.
func (c *Controller) SelectAoi(ctx context.Context, aoiSlug string) {
	c.mu.Lock()
	if c.destroyed || c.summary == nil {
		c.mu.Unlock()
		return
	}
	aoi, ok := c.summary.AoiBySlug(aoiSlug)
	if !ok {
		c.mu.Unlock()
		return
	}
	zone, ok := c.summary.ZoneByID(aoi.ZoneID)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.selected = Selection{Zone: &zone, Aoi: &aoi}
	c.mu.Unlock()

	c.emitter.Emit(ctx, analytics.EventZoneSelected, map[string]any{"zone_id": zone.ZoneID})
	c.emitter.Emit(ctx, analytics.EventAoiSelected, map[string]any{
		"aoi_slug": aoi.AoiSlug,
		"zone_id":  zone.ZoneID,
	})
}

// CloseDetail clears the selection. The detail-closed event is tagged with
// what was showing; the AOI outranks its parent zone when both were.
func (c *Controller) CloseDetail(ctx context.Context) {
	c.mu.Lock()
	if c.destroyed || c.selected.Zone == nil {
		c.mu.Unlock()
		return
	}
	tag := c.selected.DetailTag()
	c.selected = Selection{}
	c.mu.Unlock()

	c.emitter.Emit(ctx, analytics.EventDetailClosed, map[string]any{"detail": tag})
}

// HandleClick resolves a map click through the engine's feature-at-point
// query and delegates to SelectZone. Clicks outside every zone do nothing.
func (c *Controller) HandleClick(ctx context.Context, pt domain.Point) {
	c.mu.Lock()
	engine, loaded := c.engine, c.phase == PhaseLoaded
	c.mu.Unlock()
	if !loaded {
		return
	}
	if zoneID, ok := engine.FeatureAt(pt); ok {
		c.SelectZone(ctx, zoneID)
	}
}

// State returns a snapshot of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	layers := make(map[Layer]bool, len(c.layers))
	for l, v := range c.layers {
		layers[l] = v
	}
	return State{
		Phase:           c.phase,
		ActiveMetric:    c.metric,
		Layers:          layers,
		Selected:        c.selected,
		ErrorMessage:    c.errMsg,
		FallbackVisible: c.phase.FallbackVisible(),
	}
}

// Summary returns the current immutable summary snapshot, nil before a
// successful fetch.
func (c *Controller) Summary() *domain.ZoneSummaryResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Fallback returns the current card list and notice for the degraded
// presentation.
func (c *Controller) Fallback() ([]FallbackCard, string) {
	c.mu.Lock()
	summary := c.summary
	c.mu.Unlock()
	return FallbackContent(summary, c.fallbackAois)
}

// Close tears the component down: the visibility trigger disarms for good,
// the engine is destroyed if one was created, and any load still in flight
// is abandoned -- its continuations see the flag and never mutate state
// again. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	engine := c.engine
	c.engine = nil
	c.mu.Unlock()

	if engine != nil {
		engine.Destroy()
	}
	c.logger.Debug("map component closed", "city", c.citySlug)
}
