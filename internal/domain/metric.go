package domain

// MetricKey selects which of the four zone deltas drives the map's fill
// encoding. The summary payload always carries all four values; the key only
// picks the one being visualized.
type MetricKey string

const (
	MetricTemperature   MetricKey = "temperature"
	MetricWind          MetricKey = "wind"
	MetricPrecipitation MetricKey = "precipitation"
	MetricSnow          MetricKey = "snow"
)

// MetricRange is the fixed numeric domain a metric's color interpolation
// runs over. Ranges are product constants; data outside them is clamped for
// display, never rejected.
type MetricRange struct {
	Min float64
	Max float64
}

// Neutral is the delta value that maps to the neutral midpoint color: zero
// for two-sided ranges, the range start for one-sided ones (snow).
func (r MetricRange) Neutral() float64 {
	if r.Min < 0 && r.Max > 0 {
		return 0
	}
	return r.Min
}

// Clamp restricts v to the range.
func (r MetricRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Position maps v to [0,1] across the range, clamping first. The neutral
// value of a two-sided range lands at 0.5.
func (r MetricRange) Position(v float64) float64 {
	if r.Max == r.Min {
		return 0
	}
	return (r.Clamp(v) - r.Min) / (r.Max - r.Min)
}

var metricRanges = map[MetricKey]MetricRange{
	MetricTemperature:   {Min: -10, Max: 10},
	MetricWind:          {Min: -20, Max: 20},
	MetricPrecipitation: {Min: -40, Max: 40},
	MetricSnow:          {Min: 0, Max: 10},
}

var metricUnits = map[MetricKey]string{
	MetricTemperature:   "°F",
	MetricWind:          "mph",
	MetricPrecipitation: "%",
	MetricSnow:          "in",
}

// AllMetrics returns the four metric keys in display order.
func AllMetrics() []MetricKey {
	return []MetricKey{MetricTemperature, MetricWind, MetricPrecipitation, MetricSnow}
}

// Valid reports whether m is one of the four defined metrics.
func (m MetricKey) Valid() bool {
	_, ok := metricRanges[m]
	return ok
}

// Range returns the metric's fixed encoding range. Unknown keys return the
// zero range.
func (m MetricKey) Range() MetricRange {
	return metricRanges[m]
}

// Unit returns the metric's display unit.
func (m MetricKey) Unit() string {
	return metricUnits[m]
}

// DefaultMetric is the fill encoding shown before the user picks one.
const DefaultMetric = MetricTemperature
