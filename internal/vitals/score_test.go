package vitals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, m := range SubMetrics {
		sum += DefaultWeights[m]
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

// Lower raw values are better for every supported metric: the curve must be
// monotonically decreasing in the raw value.
func TestSubScoreMonotone(t *testing.T) {
	sc := DefaultScorer()
	grids := map[Metric][]float64{
		MetricFCP: {200, 900, 1600, 2500, 4000, 8000},
		MetricSI:  {500, 1300, 2300, 3400, 6000, 12000},
		MetricLCP: {400, 1200, 2000, 2500, 2600, 4000, 9000},
		MetricTBT: {10, 150, 350, 600, 1200},
		MetricCLS: {0.01, 0.05, 0.1, 0.25, 0.5, 1},
	}
	for m, grid := range grids {
		prev := math.Inf(1)
		for _, v := range grid {
			s := sc.SubScore(m, v)
			assert.LessOrEqual(t, s, prev, "metric %s at %v", m, v)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
			prev = s
		}
	}
}

func TestSubScoreAnchors(t *testing.T) {
	sc := DefaultScorer()

	// The median scores 50 by construction of the curve... not exactly: the
	// logistic approximation puts the median a little under 50.
	med := sc.SubScore(MetricLCP, DefaultCurves[MetricLCP].Median)
	assert.Less(t, med, 50.0)
	assert.Greater(t, med, 25.0)

	// The podr scores exactly 50: ln(v) == ln(podr) makes the exponent 0.
	assert.InDelta(t, 50.0, sc.SubScore(MetricLCP, DefaultCurves[MetricLCP].PODR), 1e-9)

	// Zero and negative raw values take the curve's limit.
	assert.Equal(t, 100.0, sc.SubScore(MetricCLS, 0))
	assert.Equal(t, 100.0, sc.SubScore(MetricTBT, -5))

	// Unknown metrics score 0.
	assert.Equal(t, 0.0, sc.SubScore(Metric("bogus"), 1000))
}

func TestRawValueInvertsSubScore(t *testing.T) {
	sc := DefaultScorer()
	for _, m := range SubMetrics {
		for _, v := range []float64{DefaultCurves[m].PODR, DefaultCurves[m].Median, DefaultCurves[m].Median * 2} {
			s := sc.SubScore(m, v)
			back := sc.RawValue(m, s)
			assert.InEpsilon(t, v, back, 1e-6, "metric %s value %v", m, v)
		}
	}
}

func TestRawValueClampsTarget(t *testing.T) {
	sc := DefaultScorer()
	// Sub-scores of 0 and 100 are only reached asymptotically; the inverse
	// must still return finite positive values.
	for _, s := range []float64{0, 100, -5, 120} {
		v := sc.RawValue(MetricLCP, s)
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v) || v <= 0, "sub-score %v gave %v", s, v)
	}
}

func TestComposite(t *testing.T) {
	sc := DefaultScorer()

	assert.Equal(t, 0.0, sc.Composite(nil))

	// All metrics at their podr: every sub-score is 50, so the weighted sum
	// is exactly 50.
	vals := make(map[Metric]float64)
	for _, m := range SubMetrics {
		vals[m] = DefaultCurves[m].PODR
	}
	assert.InDelta(t, 50.0, sc.Composite(vals), 1e-9)

	// Improving one metric never lowers the composite.
	base := sc.Composite(vals)
	vals[MetricLCP] = DefaultCurves[MetricLCP].PODR / 2
	assert.GreaterOrEqual(t, sc.Composite(vals), base)
}

func TestNewScorerPartialOverrides(t *testing.T) {
	sc := NewScorer(
		map[Metric]float64{MetricLCP: 0.5},
		map[Metric]Curve{MetricLCP: {Median: 2500, PODR: 1200}},
		map[Metric]float64{MetricLCP: 2000},
	)
	assert.Equal(t, 0.5, sc.Weight(MetricLCP))
	assert.Equal(t, 2000.0, sc.GoodThreshold(MetricLCP))
	// Untouched metrics keep their defaults.
	assert.Equal(t, DefaultWeights[MetricTBT], sc.Weight(MetricTBT))
	assert.Equal(t, DefaultGood[MetricCLS], sc.GoodThreshold(MetricCLS))
}
