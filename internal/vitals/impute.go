package vitals

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Impute returns the observed value for (entity, variant, metric) on date
// when one is present, and otherwise backfills it from the entity's own
// history with an ordinary least squares fit over the shared calendar index.
//
// The upstream audits fail silently and report blank or zero cells; naive
// averaging would drag group scores down on those days, so missing values
// are estimated from the entity's trend instead. The fit uses the present
// observations at or before date; when fewer than two exist the window
// widens to the full history, which turns extrapolation into interpolation
// for sparse leading gaps. With fewer than two present points anywhere, or
// a degenerate fit, Impute returns the "no data" sentinel 0.
//
// Imputed values are clamped to [0, 100] and rounded to one decimal, so
// Impute is only meaningful for score-space series (the reported composite
// score, or sub-metric sub-scores via ImputeSubScore).
func (st *Store) Impute(entity string, variant Variant, metric Metric, date Date) float64 {
	if v, ok := st.Value(entity, variant, metric, date); ok {
		return v
	}

	xs, ys := st.history(entity, variant, metric, date)
	if len(xs) < 2 {
		xs, ys = st.history(entity, variant, metric, "")
	}
	return fitAt(xs, ys, float64(st.DateIndex(date)))
}

// ImputeSubScore is Impute for a sub-metric's score-space series: present
// raw observations are mapped through the scorer's log-normal curve first,
// then missing days are backfilled by the same regression.
func (st *Store) ImputeSubScore(sc *Scorer, entity string, variant Variant, metric Metric, date Date) float64 {
	if v, ok := st.Value(entity, variant, metric, date); ok {
		return sc.SubScore(metric, v)
	}

	xs, ys := st.subScoreHistory(sc, entity, variant, metric, date)
	if len(xs) < 2 {
		xs, ys = st.subScoreHistory(sc, entity, variant, metric, "")
	}
	return fitAt(xs, ys, float64(st.DateIndex(date)))
}

func (st *Store) subScoreHistory(sc *Scorer, entity string, variant Variant, metric Metric, upTo Date) (xs, ys []float64) {
	xs, ys = st.history(entity, variant, metric, upTo)
	for i, v := range ys {
		ys[i] = sc.SubScore(metric, v)
	}
	return xs, ys
}

// fitAt evaluates the least-squares line through (xs, ys) at x, clamped to
// [0, 100] and rounded to one decimal. Returns the sentinel 0 when the fit
// is impossible (fewer than two points) or degenerate (no x spread).
func fitAt(xs, ys []float64, x float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	if stat.Variance(xs, nil) == 0 {
		return 0
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0
	}
	v := alpha + beta*x
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	return math.Round(v*10) / 10
}
