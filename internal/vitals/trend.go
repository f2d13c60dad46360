package vitals

// Trend summarizes the direction of a numeric series.
type Trend struct {
	// GrowthPct is the relative change from first to last value, in
	// percent. The denominator is floored at 0.1 so a zero first value
	// cannot blow the ratio up.
	GrowthPct float64 `json:"growth_pct"`

	// Slope is the average per-step change (last-first over n-1). This is
	// deliberately the endpoint slope, not a regression slope: the trend
	// badge should answer "where did we end up vs where we started".
	Slope float64 `json:"slope"`

	// Projection extrapolates three steps past the last value.
	Projection float64 `json:"projection"`
}

// projectionHorizon is how many steps ahead Projection looks.
const projectionHorizon = 3

// AnalyzeTrend computes growth, slope and a short-horizon projection for a
// series. Fewer than two points yields the zero Trend.
func AnalyzeTrend(series []float64) Trend {
	n := len(series)
	if n < 2 {
		return Trend{}
	}

	first, last := series[0], series[n-1]

	base := first
	if base < 0 {
		base = -base
	}
	if base < 0.1 {
		base = 0.1
	}

	slope := (last - first) / float64(n-1)
	return Trend{
		GrowthPct:  (last - first) / base * 100,
		Slope:      slope,
		Projection: last + slope*projectionHorizon,
	}
}
