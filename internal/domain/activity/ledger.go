// Package activity records how much a learner watched on each calendar day
// and derives the day streak and the contribution heatmap from it.
// This is a pure domain layer with no storage or clock of its own.
package activity

import (
	"errors"
	"sort"
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/timeutil"
)

// ErrInvalidDay is returned when a day key is not a YYYY-MM-DD date.
var ErrInvalidDay = errors.New("activity: invalid day key")

// DayKey is a calendar date in the learner's local zone, formatted YYYY-MM-DD.
type DayKey string

// DayOf returns the day key of t in loc.
func DayOf(t time.Time, loc *time.Location) DayKey {
	return DayKey(timeutil.FormatDateStr(t, loc))
}

// ParseDay validates s as a day key.
func ParseDay(s string) (DayKey, error) {
	if _, err := time.Parse(timeutil.FormatDate, s); err != nil {
		return "", ErrInvalidDay
	}
	return DayKey(s), nil
}

// String returns the string representation.
func (d DayKey) String() string {
	return string(d)
}

// IsValid checks if the key parses as a date.
func (d DayKey) IsValid() bool {
	_, err := time.Parse(timeutil.FormatDate, string(d))
	return err == nil
}

// AddDays returns the key n calendar days away. Calendar arithmetic is done
// in UTC so DST transitions of the local zone cannot skip or repeat a day.
// An invalid key yields the empty key.
func (d DayKey) AddDays(n int) DayKey {
	t, err := time.Parse(timeutil.FormatDate, string(d))
	if err != nil {
		return ""
	}
	return DayKey(timeutil.AddDays(t, n).Format(timeutil.FormatDate))
}

// Time returns midnight of the day in loc.
func (d DayKey) Time(loc *time.Location) (time.Time, error) {
	t, err := timeutil.ParseDate(string(d), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// Ledger maps local days to activity counts. Counts never decrease and
// entries are never removed. A Ledger is not safe for concurrent use.
type Ledger struct {
	counts map[DayKey]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counts: make(map[DayKey]int)}
}

// LedgerFrom rebuilds a ledger from persisted counts. Negative counts are
// clamped to zero.
func LedgerFrom(counts map[string]int) *Ledger {
	l := NewLedger()
	for k, v := range counts {
		if v < 0 {
			v = 0
		}
		l.counts[DayKey(k)] = v
	}
	return l
}

// RecordActivity adds one unit of activity to day. It returns the new count
// and whether this was the first unit recorded for that day.
func (l *Ledger) RecordActivity(day DayKey) (count int, firstOfDay bool) {
	prev := l.counts[day]
	l.counts[day] = prev + 1
	return prev + 1, prev == 0
}

// Count returns the activity count of day, or 0.
func (l *Ledger) Count(day DayKey) int {
	return l.counts[day]
}

// Active reports whether day has any activity.
func (l *Ledger) Active(day DayKey) bool {
	return l.counts[day] > 0
}

// Days returns every recorded day in ascending order.
func (l *Ledger) Days() []DayKey {
	out := make([]DayKey, 0, len(l.counts))
	for k := range l.counts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Total returns the sum of all counts.
func (l *Ledger) Total() int {
	total := 0
	for _, v := range l.counts {
		total += v
	}
	return total
}

// Len returns the number of recorded days.
func (l *Ledger) Len() int {
	return len(l.counts)
}

// Snapshot returns a copy of the counts keyed by plain strings.
func (l *Ledger) Snapshot() map[string]int {
	out := make(map[string]int, len(l.counts))
	for k, v := range l.counts {
		out[string(k)] = v
	}
	return out
}
