// Package mapview implements the microclimate map component: one mounted
// instance per city page section.
//
// # Lifecycle
//
// A Controller starts idle and does nothing until the host reports that the
// map container became visible. That trigger fires at most once per mount
// and starts a strictly ordered chain: load the rendering engine with the
// city's static zone geometry registered, fetch the current zone summary,
// then join the summary into per-feature visual state keyed by zone_id.
// Only when the join has completed does the controller transition to loaded;
// any failure along the chain lands in the error phase with a human-readable
// message. Both terminal phases stick until the component is remounted --
// there is no automatic retry.
//
// Every asynchronous continuation checks the lifecycle flag set by Close, so
// a load that was mid-flight at unmount time never mutates state after
// teardown.
//
// # Fallback
//
// Whenever the phase is anything other than loaded -- including transiently
// during loading -- the host shows the fallback card list instead of (or
// over) the map canvas. [Phase.FallbackVisible] is the single source of that
// decision and [FallbackContent] the single derivation of the cards: summary
// AOIs when a summary arrived, the host-supplied static list otherwise, and
// an explicit unavailable notice when neither exists. Data availability and
// engine availability fail independently: an engine that breaks after the
// summary arrived still leaves summary-backed cards.
//
// # Control panel and selection
//
// Metric selection and the three layer toggles never fail. When the engine
// is loaded they push a restyle immediately; before that the choice is
// recorded and applied during the join. Zone selection resolves the zone's
// primary AOI, with the AOI taking display priority over its parent zone
// while the zone's metrics stay visible in the detail view.
//
// All observability events flow through an injected [analytics.Sink]; the
// controller never touches a global event bus.
package mapview
