package vitals

import (
	"fmt"
	"sort"
	"strings"
)

// RangeUnit sizes a trailing window or a calendar bucketing.
type RangeUnit string

const (
	UnitWeek  RangeUnit = "week"
	UnitMonth RangeUnit = "month"
	UnitYear  RangeUnit = "year"
)

// ParseRangeUnit validates a unit string from config or a query parameter.
func ParseRangeUnit(s string) (RangeUnit, error) {
	switch RangeUnit(s) {
	case UnitWeek, UnitMonth, UnitYear:
		return RangeUnit(s), nil
	}
	return "", fmt.Errorf("invalid range unit %q (want week, month or year)", s)
}

type rangeKind int

const (
	kindSingle rangeKind = iota
	kindTrailing
	kindAll
	kindBetween
	kindDateList
	kindBuckets
)

// RangeSelector is a logical description of a date window. The closed set of
// variants mirrors the range pickers on the dashboard screens; Resolve turns
// a selector into the concrete ordered date list the engine stages consume.
type RangeSelector struct {
	kind   rangeKind
	anchor Date
	start  Date
	end    Date
	dates  []Date
	unit   RangeUnit
	keys   []string
}

// SingleDay selects exactly one day.
func SingleDay(d Date) RangeSelector {
	return RangeSelector{kind: kindSingle, anchor: d}
}

// Trailing selects every known date within [anchor - unit, anchor].
func Trailing(unit RangeUnit, anchor Date) RangeSelector {
	return RangeSelector{kind: kindTrailing, unit: unit, anchor: anchor}
}

// All selects every known date at or before anchor.
func All(anchor Date) RangeSelector {
	return RangeSelector{kind: kindAll, anchor: anchor}
}

// Between selects every calendar day from start to end inclusive, whether or
// not it was observed; the imputer backfills the gaps.
func Between(start, end Date) RangeSelector {
	return RangeSelector{kind: kindBetween, start: start, end: end}
}

// DateList selects exactly the given days, sorted ascending, deduplicated.
func DateList(dates []Date) RangeSelector {
	return RangeSelector{kind: kindDateList, dates: dates}
}

// CalendarBuckets selects the named buckets of the store's calendar: weeks
// are fixed runs of seven known dates, months and years follow the calendar.
// The selected buckets contribute all their member dates, concatenated in
// chronological bucket order regardless of key order.
func CalendarBuckets(unit RangeUnit, keys []string) RangeSelector {
	return RangeSelector{kind: kindBuckets, unit: unit, keys: keys}
}

// Signature is a stable string form of the selector, usable as a cache key.
func (sel RangeSelector) Signature() string {
	switch sel.kind {
	case kindSingle:
		return "single:" + string(sel.anchor)
	case kindTrailing:
		return fmt.Sprintf("trailing:%s:%s", sel.unit, sel.anchor)
	case kindAll:
		return "all:" + string(sel.anchor)
	case kindBetween:
		return fmt.Sprintf("between:%s:%s", sel.start, sel.end)
	case kindDateList:
		parts := make([]string, len(sel.dates))
		for i, d := range sel.dates {
			parts[i] = string(d)
		}
		return "list:" + strings.Join(parts, ",")
	case kindBuckets:
		return fmt.Sprintf("buckets:%s:%s", sel.unit, strings.Join(sel.keys, ","))
	}
	return "invalid"
}

// Bucket is one labeled group of calendar dates.
type Bucket struct {
	Key   string `json:"key"`
	Dates []Date `json:"dates"`
}

// Buckets groups the store's calendar into labeled buckets for the given
// unit. Week buckets are consecutive runs of seven known dates keyed
// "week-1", "week-2", ...; month and year buckets use the YYYY-MM and YYYY
// calendar keys.
func (st *Store) Buckets(unit RangeUnit) []Bucket {
	var buckets []Bucket
	switch unit {
	case UnitWeek:
		for i := 0; i < len(st.calendar); i += 7 {
			end := i + 7
			if end > len(st.calendar) {
				end = len(st.calendar)
			}
			buckets = append(buckets, Bucket{
				Key:   fmt.Sprintf("week-%d", i/7+1),
				Dates: st.calendar[i:end],
			})
		}
	case UnitMonth, UnitYear:
		keyOf := Date.Month
		if unit == UnitYear {
			keyOf = Date.Year
		}
		for _, d := range st.calendar {
			key := keyOf(d)
			if n := len(buckets); n > 0 && buckets[n-1].Key == key {
				buckets[n-1].Dates = append(buckets[n-1].Dates, d)
				continue
			}
			buckets = append(buckets, Bucket{Key: key, Dates: []Date{d}})
		}
	}
	return buckets
}

// Resolve turns a selector into its concrete ordered, deduplicated date
// list. Resolution is deterministic: the same selector against the same
// store always yields the same list.
func (st *Store) Resolve(sel RangeSelector) []Date {
	switch sel.kind {
	case kindSingle:
		return []Date{sel.anchor}

	case kindTrailing:
		var from Date
		switch sel.unit {
		case UnitWeek:
			from = sel.anchor.AddDays(-7)
		case UnitMonth:
			from = sel.anchor.AddMonths(-1)
		case UnitYear:
			from = sel.anchor.AddYears(-1)
		default:
			return nil
		}
		var dates []Date
		for _, d := range st.calendar {
			if d > sel.anchor {
				break
			}
			if d >= from {
				dates = append(dates, d)
			}
		}
		return dates

	case kindAll:
		return st.DatesUpTo(sel.anchor)

	case kindBetween:
		return DaysBetween(sel.start, sel.end)

	case kindDateList:
		dates := make([]Date, 0, len(sel.dates))
		seen := make(map[Date]bool, len(sel.dates))
		for _, d := range sel.dates {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
		return dates

	case kindBuckets:
		wanted := make(map[string]bool, len(sel.keys))
		for _, k := range sel.keys {
			wanted[k] = true
		}
		var dates []Date
		for _, b := range st.Buckets(sel.unit) {
			if wanted[b.Key] {
				dates = append(dates, b.Dates...)
			}
		}
		return dates
	}
	return nil
}
