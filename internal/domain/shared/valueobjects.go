// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════
// State Keys
// ═══════════════════════════════════════════════════════════════════════════

// StateKey names one persisted slice of engine state.
type StateKey string

// Persisted state keys. Values are JSON documents.
const (
	KeyCourseProgress StateKey = "courseProgress"
	KeyWatchHistory   StateKey = "watchHistory"
	KeyAchievements   StateKey = "achievements"
	KeyCourseTags     StateKey = "courseTags"
	KeyLastWatched    StateKey = "lastWatched"
)

// AllStateKeys lists every persisted key in a stable order.
func AllStateKeys() []StateKey {
	return []StateKey{
		KeyCourseProgress,
		KeyWatchHistory,
		KeyAchievements,
		KeyCourseTags,
		KeyLastWatched,
	}
}

// String returns the string representation.
func (k StateKey) String() string {
	return string(k)
}

// IsValid checks if the key is one of the known state keys.
func (k StateKey) IsValid() bool {
	for _, known := range AllStateKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// ChangeSet
// ═══════════════════════════════════════════════════════════════════════════

// ChangeSet names the state keys a mutation dirtied. It is the unit handed to
// the persistence boundary after each engine operation.
type ChangeSet struct {
	keys map[StateKey]struct{}
}

// NewChangeSet creates a ChangeSet holding the given keys.
func NewChangeSet(keys ...StateKey) ChangeSet {
	var cs ChangeSet
	cs.Mark(keys...)
	return cs
}

// Mark adds keys to the set.
func (c *ChangeSet) Mark(keys ...StateKey) {
	if len(keys) == 0 {
		return
	}
	if c.keys == nil {
		c.keys = make(map[StateKey]struct{}, len(keys))
	}
	for _, k := range keys {
		c.keys[k] = struct{}{}
	}
}

// Merge adds every key of other.
func (c *ChangeSet) Merge(other ChangeSet) {
	for k := range other.keys {
		c.Mark(k)
	}
}

// Has reports whether key is dirty.
func (c ChangeSet) Has(key StateKey) bool {
	_, ok := c.keys[key]
	return ok
}

// IsEmpty reports whether nothing changed.
func (c ChangeSet) IsEmpty() bool {
	return len(c.keys) == 0
}

// Keys returns the dirty keys in a stable order.
func (c ChangeSet) Keys() []StateKey {
	out := make([]StateKey, 0, len(c.keys))
	for k := range c.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent is a completion ratio expressed in [0, 100].
type Percent float64

// NewPercent computes part/total as a percentage. A zero total yields 0.
func NewPercent(part, total int) Percent {
	if total <= 0 || part <= 0 {
		return 0
	}
	if part >= total {
		return 100
	}
	return Percent(float64(part) / float64(total) * 100)
}

// Rounded returns the percentage rounded to the nearest integer.
func (p Percent) Rounded() int {
	return int(math.Round(float64(p)))
}

// String returns the percentage formatted for display.
func (p Percent) String() string {
	return fmt.Sprintf("%d%%", p.Rounded())
}
