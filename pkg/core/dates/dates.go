// Package dates provides pure date arithmetic for the simulation engine:
// ISO formatting, day/month stepping and the fiscal month mapping.
package dates

import (
	"fmt"
	"time"
)

// ISOLayout is the wire format for dates. The engine is date based, no
// time zone is carried.
const ISOLayout = "2006-01-02"

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO date %q: %w", s, err)
	}
	return t, nil
}

// FormatISO renders a date as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// AddDays steps a date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths steps a date by n months.
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// FirstOfMonth returns the first day of the given month.
func FirstOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// LastOfMonth returns the last day of the given month.
func LastOfMonth(year, month int) time.Time {
	return FirstOfMonth(year, month).AddDate(0, 1, -1)
}

// Weekday returns the day of week in [0..6] with 0 = Sunday.
func Weekday(t time.Time) int {
	return int(t.Weekday())
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	d := t.Weekday()
	return d == time.Saturday || d == time.Sunday
}
