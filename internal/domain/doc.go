// Package domain models microclimate zone forecast data for a single city.
//
// # Data Source
//
// Zone summaries originate from the forecast-core service, which blends NWP
// guidance with terrain analysis and publishes one JSON summary per city per
// forecast cycle at /api/map/{city}/summary. This package is the typed
// contract for that payload; nothing here computes forecasts.
//
// # Zone Summary Conventions
//
// Metric deltas:
//
//	Every zone value is a signed delta relative to the city-wide baseline
//	forecast, never an absolute reading. "+2.5" for temp_delta_f means the
//	zone runs 2.5 °F warmer than town. Four deltas are always present:
//
//	  temp_delta_f     °F   visual encoding range −10..+10
//	  wind_delta_mph   mph  visual encoding range −20..+20
//	  precip_delta_pct %    visual encoding range −40..+40
//	  snow_delta_in    in   visual encoding range 0..+10 (one-sided)
//
//	The encoding ranges are fixed product constants, not data-driven: zone
//	fills interpolate a diverging ramp from a neutral midpoint at zero
//	(range start for snow) so the same delta always maps to the same color
//	across cities and cycles. Values outside the range are clamped for
//	display, never rejected.
//
// Confidence:
//
//	confidence_level (high/moderate/low) and the optional confidence_score
//	in [0,1] plus confidence_reason_codes are computed upstream and pass
//	through opaquely. The level enum is validated; the weighting behind it
//	is not this repo's concern.
//
// Hazards:
//
//	A set of short tags (snow, wind, flood, smoke, fog, dry_air,
//	whiteout_risk) flagging active concerns for a zone. The set is open:
//	unknown tags from a newer forecast-core are carried through rather than
//	rejected, so known constants exist for rendering but validation does
//	not gate on them.
//
// # Geometry Contract
//
// Per-city zone geometry ships as a separate static GeoJSON
// FeatureCollection of Polygon features, one per zone, with the zone id in
// feature properties. Geometry is immutable for a session: summaries refresh
// metrics only, and every zone_id in a summary refers to the same shape for
// as long as the page is mounted. Ring 0 of a polygon is the outer boundary;
// subsequent rings are holes.
//
// # AOI Back-Reference Invariant
//
// Each area of interest names its containing zone via zone_id. A summary in
// which any AOI's zone_id does not resolve to a zone in the same payload is
// malformed and must be rejected whole; an AOI without its parent zone's
// current metrics is undisplayable. Several AOIs may share one zone; the
// first card in payload order is the zone's primary AOI for selection.
package domain
