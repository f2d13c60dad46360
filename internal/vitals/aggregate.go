package vitals

import "gonum.org/v1/gonum/stat"

// Series builds the imputed score-space time series for one (entity,
// variant, metric) triple over the given dates.
func (st *Store) Series(entity string, variant Variant, metric Metric, dates []Date) TimeSeries {
	ts := make(TimeSeries, 0, len(dates))
	for _, d := range dates {
		ts = append(ts, Point{Date: d, Value: st.Impute(entity, variant, metric, d)})
	}
	return ts
}

// SubScoreSeries is Series in sub-score space: each day's value is the
// metric's 0-100 sub-score, imputed where the raw observation is absent.
func (st *Store) SubScoreSeries(sc *Scorer, entity string, variant Variant, metric Metric, dates []Date) TimeSeries {
	ts := make(TimeSeries, 0, len(dates))
	for _, d := range dates {
		ts = append(ts, Point{Date: d, Value: st.ImputeSubScore(sc, entity, variant, metric, d)})
	}
	return ts
}

// GroupAverage returns the mean imputed value of metric across every entity
// in the group and every given date. An empty group or empty date list
// yields 0, not NaN, so chained arithmetic on report pages stays finite.
func (st *Store) GroupAverage(entities []string, variant Variant, metric Metric, dates []Date) float64 {
	var vals []float64
	for _, e := range entities {
		for _, d := range dates {
			vals = append(vals, st.Impute(e, variant, metric, d))
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// GroupSeries averages the imputed metric across the group per date,
// producing the series the group comparison charts draw.
func (st *Store) GroupSeries(entities []string, variant Variant, metric Metric, dates []Date) TimeSeries {
	ts := make(TimeSeries, 0, len(dates))
	for _, d := range dates {
		ts = append(ts, Point{Date: d, Value: st.GroupAverage(entities, variant, metric, []Date{d})})
	}
	return ts
}
