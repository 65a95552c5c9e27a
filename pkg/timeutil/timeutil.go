// Package timeutil provides calendar helpers bound to a configurable local zone.
// Lumina keys all activity by the learner's local calendar day, so every
// helper here takes the zone explicitly instead of relying on time.Local.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
	// FormatMonth is the abbreviated month name used for heatmap labels.
	FormatMonth = "Jan"
)

// LoadLocation resolves an IANA zone name. An empty name or "Local" yields
// time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// In converts t to loc, treating a nil loc as time.Local.
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc)
}

// Date creates midnight of the given date in loc.
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// StartOfDay returns the start of the day (00:00:00) of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := In(t, loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, l.Location())
}

// StartOfWeek returns Monday 00:00:00 of the week containing t in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	l := In(t, loc)
	weekday := int(l.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(l.AddDate(0, 0, -(weekday - 1)), loc)
}

// AddDays moves t by n calendar days, keeping wall-clock midnight across DST.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// FormatDateStr formats t as YYYY-MM-DD in loc.
func FormatDateStr(t time.Time, loc *time.Location) string {
	return In(t, loc).Format(FormatDate)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(FormatDate, value, loc)
}

// IsSameDay checks if two times fall on the same calendar day in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	a1, a2 := In(t1, loc), In(t2, loc)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// DaysBetween returns the absolute number of calendar days between t1 and t2 in loc.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	a1 := StartOfDay(t1, loc)
	a2 := StartOfDay(t2, loc)
	y1, m1, d1 := a1.Date()
	y2, m2, d2 := a2.Date()
	u1 := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	u2 := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(u2.Sub(u1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Hour returns the local hour of t in loc.
func Hour(t time.Time, loc *time.Location) int {
	return In(t, loc).Hour()
}

// Clock abstracts time to keep the engine deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}
