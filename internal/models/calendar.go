package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func NewYearMonth(year int, month time.Month) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// YearMonthOf returns the month containing t (in t's location).
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses "2006-01".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return YearMonthOf(t), nil
}

// First returns the first date of the month as a UTC midnight date.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last date of the month as a UTC midnight date.
func (ym YearMonth) Last() time.Time {
	return ym.First().AddDate(0, 1, -1)
}

// Days returns the number of calendar days in the month.
func (ym YearMonth) Days() int {
	return ym.Last().Day()
}

// Contains reports whether date falls inside the month.
func (ym YearMonth) Contains(date time.Time) bool {
	return date.Year() == ym.Year && date.Month() == ym.Month
}

func (ym YearMonth) Next() YearMonth {
	return YearMonthOf(ym.First().AddDate(0, 1, 0))
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Date builds a calendar date (UTC midnight). Dates are identities, not instants:
// the location that defines the day boundaries is applied by DayWindow.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of instant t as observed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Date(y, m, d)
}

// ParseDate parses "2006-01-02" into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DayWindow returns the [start, end) instants of date's calendar day in loc.
// The window is 23 or 25 hours long on DST transition days.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// IsWeekday reports whether date is Monday to Friday.
func IsWeekday(date time.Time) bool {
	wd := date.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// SameDate compares calendar dates ignoring time of day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
