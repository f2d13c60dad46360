package vitals

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minPairedSamples is the fewest paired observations a correlation needs.
// Below that, Pearson r is noise.
const minPairedSamples = 3

// Correlation measures how strongly one sub-metric tracks the reported
// composite score over a date window, and what fixing the metric is worth.
type Correlation struct {
	Metric      Metric  `json:"metric"`
	R           float64 `json:"r"`
	R2          float64 `json:"r2"`
	SampleCount int     `json:"sample_count"`

	// AvgValue is the mean raw metric value over the paired window.
	AvgValue float64 `json:"avg_value"`

	// CurrentSubScore is the sub-score at AvgValue.
	CurrentSubScore float64 `json:"current_sub_score"`

	// WeightedPotentialGain is the composite-score points available from
	// lifting this metric's sub-score to 100, scaled by its weight.
	WeightedPotentialGain float64 `json:"weighted_potential_gain"`
}

// Correlate computes the Pearson correlation between metric and the reported
// composite score for entity across the given dates. Only days where both
// the raw metric value and the composite score are present contribute; no
// imputed values enter a correlation. Returns nil when fewer than
// minPairedSamples pairs exist or when either side has no variance.
//
// Both series are min-max normalized independently, and the metric side is
// inverted because lower raw values are better for every supported metric:
// a positive r always reads "better sub-metric, better score".
func (st *Store) Correlate(sc *Scorer, entity string, variant Variant, metric Metric, dates []Date) *Correlation {
	var raw, scores []float64
	for _, d := range dates {
		mv, ok := st.Value(entity, variant, metric, d)
		if !ok {
			continue
		}
		cs, ok := st.Value(entity, variant, MetricScore, d)
		if !ok {
			continue
		}
		raw = append(raw, mv)
		scores = append(scores, cs)
	}
	if len(raw) < minPairedSamples {
		return nil
	}

	x := minMaxNormalize(raw)
	for i := range x {
		x[i] = 1 - x[i]
	}
	y := minMaxNormalize(scores)

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}

	avg := stat.Mean(raw, nil)
	current := sc.SubScore(metric, avg)
	return &Correlation{
		Metric:                metric,
		R:                     r,
		R2:                    r * r,
		SampleCount:           len(raw),
		AvgValue:              avg,
		CurrentSubScore:       current,
		WeightedPotentialGain: (100 - current) * sc.Weight(metric),
	}
}

// CorrelateAll runs Correlate for each of the five sub-metrics, dropping the
// ones with too little data. The planner consumes the result directly.
func (st *Store) CorrelateAll(sc *Scorer, entity string, variant Variant, dates []Date) []*Correlation {
	var out []*Correlation
	for _, m := range SubMetrics {
		if c := st.Correlate(sc, entity, variant, m, dates); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// minMaxNormalize maps vals onto [0, 1]. A constant series maps to all
// zeros, which the caller detects as a NaN correlation.
func minMaxNormalize(vals []float64) []float64 {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(vals))
	if hi == lo {
		return out
	}
	for i, v := range vals {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
