// Package vitals implements the sparse time-series analytics engine behind
// the web-vitals dashboard: imputation of missing observations, date-range
// aggregation, trend analysis, composite scoring, correlation analysis and
// improvement planning.
//
// The engine is a pure library over an in-memory sample set. Every stage is
// deterministic for a given Store and never mutates shared state; callers
// that need caching across overlapping windows wrap a Store in a Memo.
package vitals

// Metric names one measurement column from the upstream sheets. The five
// sub-metrics combine into the composite score; MetricScore is the overall
// 0-100 score the upstream pipeline reports alongside them.
type Metric string

const (
	MetricFCP Metric = "fcp"
	MetricSI  Metric = "si"
	MetricLCP Metric = "lcp"
	MetricTBT Metric = "tbt"
	MetricCLS Metric = "cls"

	// MetricScore is the externally reported composite score. The engine
	// treats it as ground truth; the weighted sub-score model is an
	// analytical decomposition of it, not its source.
	MetricScore Metric = "score"
)

// SubMetrics lists the five weighted sub-metrics in display order.
var SubMetrics = []Metric{MetricFCP, MetricSI, MetricLCP, MetricTBT, MetricCLS}

// IsSubMetric reports whether m is one of the five weighted sub-metrics.
func IsSubMetric(m Metric) bool {
	for _, sm := range SubMetrics {
		if sm == m {
			return true
		}
	}
	return false
}

// Variant distinguishes measurement contexts for the same entity and day,
// such as "phone"/"desktop" form factors or "nota"/"video"/"both" page
// categories. The engine never interprets the value; it is part of the key.
type Variant string

// Sample is one raw observation from the upstream sheets.
//
// Value is nil when the observation is absent. The sheets report missing
// audits as 0 or blank cells; the ingestion adapter maps those to nil so
// "no data" and "measured zero" are distinct states inside the engine.
type Sample struct {
	Entity  string  `json:"entity"`
	Date    Date    `json:"date"`
	Variant Variant `json:"variant"`
	Metric  Metric  `json:"metric"`
	Value   *float64 `json:"value"`
}

// Present reports whether the sample carries a real measurement.
func (s Sample) Present() bool {
	return s.Value != nil
}

// Float returns a pointer to v, for building Sample literals.
func Float(v float64) *float64 {
	return &v
}

// Point is one (date, value) pair of a resolved time series.
type Point struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// TimeSeries is an ordered sequence of points for one (entity, variant,
// metric) triple, ascending by date with no duplicate dates.
type TimeSeries []Point

// Values returns the series values in date order.
func (ts TimeSeries) Values() []float64 {
	vals := make([]float64, len(ts))
	for i, p := range ts {
		vals[i] = p.Value
	}
	return vals
}
