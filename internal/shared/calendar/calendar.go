package calendar

import "time"

// DayStart truncates t to midnight in its own location. Attendance rows are
// keyed by this value, so the same instant always maps to the same row.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtHour returns the instant at hour o'clock on the calendar day of t.
func AtHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// DaySpan counts calendar days from start to end inclusive. A single-day
// range (start == end) yields 1. Returns 0 when end precedes start.
// Steps by calendar day rather than elapsed hours, so DST-shortened days
// still count as full days.
func DaySpan(start, end time.Time) int {
	s := DayStart(start)
	e := DayStart(end)
	if e.Before(s) {
		return 0
	}
	days := 0
	EachDay(s, e, func(time.Time) { days++ })
	return days
}

// MonthRange returns the first and last calendar day of the month, inclusive.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// EachDay calls fn for every calendar day from start to end inclusive.
func EachDay(start, end time.Time, fn func(day time.Time)) {
	for d := DayStart(start); !d.After(DayStart(end)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkingDaysIn counts Monday–Friday days in the month.
func WorkingDaysIn(year int, month time.Month, loc *time.Location) int {
	first, last := MonthRange(year, month, loc)
	count := 0
	EachDay(first, last, func(day time.Time) {
		if !IsWeekend(day) {
			count++
		}
	})
	return count
}
