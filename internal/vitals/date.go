package vitals

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for calendar days throughout the engine and
// its storage layer.
const dateLayout = "2006-01-02"

// Date is a calendar day in ISO YYYY-MM-DD form. ISO dates order correctly
// as strings, so Date values compare and sort without parsing.
type Date string

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates s as a YYYY-MM-DD day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the day at midnight UTC. Invalid dates return the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether d parses as a calendar day.
func (d Date) Valid() bool {
	_, err := time.Parse(dateLayout, string(d))
	return err == nil
}

// AddDays returns the day n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths returns the day n calendar months after d.
func (d Date) AddMonths(n int) Date {
	return DateOf(d.Time().AddDate(0, n, 0))
}

// AddYears returns the day n calendar years after d.
func (d Date) AddYears(n int) Date {
	return DateOf(d.Time().AddDate(n, 0, 0))
}

// Month returns the YYYY-MM calendar-month key for d.
func (d Date) Month() string {
	if len(d) < 7 {
		return string(d)
	}
	return string(d[:7])
}

// Year returns the YYYY calendar-year key for d.
func (d Date) Year() string {
	if len(d) < 4 {
		return string(d)
	}
	return string(d[:4])
}

// DaysBetween enumerates every calendar day from start to end inclusive.
// Returns nil when end precedes start.
func DaysBetween(start, end Date) []Date {
	if end < start {
		return nil
	}
	var days []Date
	for d := start; d <= end; d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
