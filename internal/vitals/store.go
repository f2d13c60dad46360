package vitals

import "sort"

type sampleKey struct {
	entity  string
	date    Date
	variant Variant
	metric  Metric
}

// Store holds one report load's raw observations, indexed for the lookups
// the engine stages need. It also maintains the shared calendar: the
// ascending list of distinct dates observed for any entity, which gives
// every date a stable index for regression over sparse histories.
//
// A Store is immutable after construction, so it is safe for concurrent
// readers.
type Store struct {
	samples  map[sampleKey]*float64
	calendar []Date
	index    map[Date]int
	entities []string
}

// NewStore indexes the given samples. Later samples win when the same
// (entity, date, variant, metric) key appears twice. Samples with invalid
// dates are dropped.
func NewStore(samples []Sample) *Store {
	st := &Store{
		samples: make(map[sampleKey]*float64, len(samples)),
		index:   make(map[Date]int),
	}

	entitySeen := make(map[string]bool)
	dateSeen := make(map[Date]bool)
	for _, s := range samples {
		if !s.Date.Valid() {
			continue
		}
		key := sampleKey{s.Entity, s.Date, s.Variant, s.Metric}
		st.samples[key] = s.Value
		if !dateSeen[s.Date] {
			dateSeen[s.Date] = true
			st.calendar = append(st.calendar, s.Date)
		}
		if !entitySeen[s.Entity] {
			entitySeen[s.Entity] = true
			st.entities = append(st.entities, s.Entity)
		}
	}

	sort.Slice(st.calendar, func(i, j int) bool { return st.calendar[i] < st.calendar[j] })
	sort.Strings(st.entities)
	for i, d := range st.calendar {
		st.index[d] = i
	}
	return st
}

// Value returns the observed value for the key, with ok=false when the
// observation is absent or was never recorded.
func (st *Store) Value(entity string, variant Variant, metric Metric, date Date) (float64, bool) {
	v, ok := st.samples[sampleKey{entity, date, variant, metric}]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Calendar returns the shared ascending list of distinct observation dates.
// The caller must not modify the returned slice.
func (st *Store) Calendar() []Date {
	return st.calendar
}

// Entities returns all entities with at least one recorded sample, sorted.
func (st *Store) Entities() []string {
	return st.entities
}

// DateIndex returns the position of date within the shared calendar. Dates
// never observed get their insertion position, so regression can still
// evaluate at them.
func (st *Store) DateIndex(date Date) int {
	if i, ok := st.index[date]; ok {
		return i
	}
	return sort.Search(len(st.calendar), func(i int) bool {
		return st.calendar[i] >= date
	})
}

// DatesUpTo returns the calendar dates at or before anchor.
func (st *Store) DatesUpTo(anchor Date) []Date {
	var dates []Date
	for _, d := range st.calendar {
		if d > anchor {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// LastDate returns the most recent calendar date, or "" for an empty store.
func (st *Store) LastDate() Date {
	if len(st.calendar) == 0 {
		return ""
	}
	return st.calendar[len(st.calendar)-1]
}

// history collects the present observations for (entity, variant, metric)
// as (calendar index, value) pairs in date order. When upTo is non-empty
// only dates at or before it contribute.
func (st *Store) history(entity string, variant Variant, metric Metric, upTo Date) (xs, ys []float64) {
	for i, d := range st.calendar {
		if upTo != "" && d > upTo {
			break
		}
		if v, ok := st.Value(entity, variant, metric, d); ok {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	return xs, ys
}
