package vitals

import "math"

// Curve parameterizes the log-normal scoring curve for one metric: the
// median raw value (worth a sub-score of 50) and the point of diminishing
// returns (podr), past which further improvement earns little.
type Curve struct {
	Median float64 `json:"median"`
	PODR   float64 `json:"podr"`
}

// shape is the log-normal shape parameter derived from the curve constants.
func (c Curve) shape() float64 {
	return math.Sqrt(2 * math.Log(c.Median/c.PODR))
}

// DefaultWeights mirror the Lighthouse scoring model. They must sum to 1.
var DefaultWeights = map[Metric]float64{
	MetricFCP: 0.10,
	MetricSI:  0.10,
	MetricLCP: 0.25,
	MetricTBT: 0.30,
	MetricCLS: 0.25,
}

// DefaultCurves are the per-metric log-normal constants. Times are in
// milliseconds; CLS is unitless.
var DefaultCurves = map[Metric]Curve{
	MetricFCP: {Median: 1600, PODR: 934},
	MetricSI:  {Median: 2300, PODR: 1311},
	MetricLCP: {Median: 2500, PODR: 1200},
	MetricTBT: {Median: 350, PODR: 150},
	MetricCLS: {Median: 0.25, PODR: 0.1},
}

// DefaultGood are the "good" thresholds: the raw value an improvement plan
// targets when a metric should be fixed outright.
var DefaultGood = map[Metric]float64{
	MetricFCP: 1800,
	MetricSI:  3400,
	MetricLCP: 2500,
	MetricTBT: 200,
	MetricCLS: 0.1,
}

// DefaultNeedsImprovement are the thresholds past which a metric is rated
// poor rather than merely needing improvement.
var DefaultNeedsImprovement = map[Metric]float64{
	MetricFCP: 3000,
	MetricSI:  5800,
	MetricLCP: 4000,
	MetricTBT: 600,
	MetricCLS: 0.25,
}

// Scorer maps raw sub-metric values to 0-100 sub-scores and combines them
// into the weighted composite. Lower raw values are better for all five
// supported metrics, so every curve is monotonically decreasing.
type Scorer struct {
	weights map[Metric]float64
	curves  map[Metric]Curve
	good    map[Metric]float64
}

// NewScorer builds a scorer from explicit tables. Metrics missing from a
// table fall back to the defaults, so partial configuration is safe.
func NewScorer(weights map[Metric]float64, curves map[Metric]Curve, good map[Metric]float64) *Scorer {
	sc := &Scorer{
		weights: make(map[Metric]float64, len(SubMetrics)),
		curves:  make(map[Metric]Curve, len(SubMetrics)),
		good:    make(map[Metric]float64, len(SubMetrics)),
	}
	for _, m := range SubMetrics {
		sc.weights[m] = DefaultWeights[m]
		sc.curves[m] = DefaultCurves[m]
		sc.good[m] = DefaultGood[m]
		if w, ok := weights[m]; ok {
			sc.weights[m] = w
		}
		if c, ok := curves[m]; ok {
			sc.curves[m] = c
		}
		if g, ok := good[m]; ok {
			sc.good[m] = g
		}
	}
	return sc
}

// DefaultScorer returns a scorer with the Lighthouse-style constants.
func DefaultScorer() *Scorer {
	return NewScorer(nil, nil, nil)
}

// Weight returns metric's share of the composite score.
func (sc *Scorer) Weight(m Metric) float64 {
	return sc.weights[m]
}

// GoodThreshold returns the raw value considered "good" for metric.
func (sc *Scorer) GoodThreshold(m Metric) float64 {
	return sc.good[m]
}

// SubScore maps a raw metric value to its 0-100 sub-score through the
// log-normal curve. Values at or below zero score 100: the curve's limit as
// the raw value vanishes.
func (sc *Scorer) SubScore(m Metric, value float64) float64 {
	c, ok := sc.curves[m]
	if !ok {
		return 0
	}
	if value <= 0 {
		return 100
	}
	s := 1 / (1 + math.Exp((math.Log(value)-math.Log(c.PODR))/c.shape()))
	if s < 0 {
		s = 0
	} else if s > 1 {
		s = 1
	}
	return 100 * s
}

// RawValue inverts SubScore: the raw metric value that earns the given
// sub-score. The target is clamped into (0, 100) since the curve only
// reaches its endpoints asymptotically.
func (sc *Scorer) RawValue(m Metric, subScore float64) float64 {
	c, ok := sc.curves[m]
	if !ok {
		return 0
	}
	p := subScore / 100
	const eps = 1e-4
	if p < eps {
		p = eps
	} else if p > 1-eps {
		p = 1 - eps
	}
	return math.Exp(math.Log(c.PODR) + c.shape()*math.Log(1/p-1))
}

// Composite combines raw sub-metric values into the weighted 0-100 model
// score. Metrics missing from values contribute nothing, matching how the
// dashboard renders partially measured days.
func (sc *Scorer) Composite(values map[Metric]float64) float64 {
	var total float64
	for m, v := range values {
		total += sc.weights[m] * sc.SubScore(m, v)
	}
	if total < 0 {
		total = 0
	} else if total > 100 {
		total = 100
	}
	return total
}
