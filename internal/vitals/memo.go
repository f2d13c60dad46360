package vitals

import (
	"fmt"
	"sync"
)

// Memo caches resolved date ranges and imputed series across overlapping
// windows. The engine stages themselves stay pure; a Memo is owned by the
// caller (one per report load is typical) and is purely a performance
// optimization — dropping it changes nothing but speed.
type Memo struct {
	store *Store

	mu     sync.Mutex
	ranges map[string][]Date
	series map[string]TimeSeries
}

// NewMemo wraps store with an empty cache.
func NewMemo(store *Store) *Memo {
	return &Memo{
		store:  store,
		ranges: make(map[string][]Date),
		series: make(map[string]TimeSeries),
	}
}

// Store returns the underlying sample store.
func (m *Memo) Store() *Store {
	return m.store
}

// Resolve is Store.Resolve with caching keyed by the selector signature.
func (m *Memo) Resolve(sel RangeSelector) []Date {
	key := sel.Signature()
	m.mu.Lock()
	dates, ok := m.ranges[key]
	m.mu.Unlock()
	if ok {
		return dates
	}
	dates = m.store.Resolve(sel)
	m.mu.Lock()
	m.ranges[key] = dates
	m.mu.Unlock()
	return dates
}

// Series is Store.Series with caching keyed by (entity, variant, metric,
// range signature).
func (m *Memo) Series(entity string, variant Variant, metric Metric, sel RangeSelector) TimeSeries {
	key := fmt.Sprintf("%s|%s|%s|%s", entity, variant, metric, sel.Signature())
	m.mu.Lock()
	ts, ok := m.series[key]
	m.mu.Unlock()
	if ok {
		return ts
	}
	ts = m.store.Series(entity, variant, metric, m.Resolve(sel))
	m.mu.Lock()
	m.series[key] = ts
	m.mu.Unlock()
	return ts
}

// SubScoreSeries is Store.SubScoreSeries with caching. The scorer is part of
// the key identity only by convention: callers use one scorer per Memo.
func (m *Memo) SubScoreSeries(sc *Scorer, entity string, variant Variant, metric Metric, sel RangeSelector) TimeSeries {
	key := fmt.Sprintf("sub|%s|%s|%s|%s", entity, variant, metric, sel.Signature())
	m.mu.Lock()
	ts, ok := m.series[key]
	m.mu.Unlock()
	if ok {
		return ts
	}
	ts = m.store.SubScoreSeries(sc, entity, variant, metric, m.Resolve(sel))
	m.mu.Lock()
	m.series[key] = ts
	m.mu.Unlock()
	return ts
}
