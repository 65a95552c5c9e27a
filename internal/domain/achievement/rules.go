// Package achievement evaluates one-shot unlock rules against the learner's
// derived progress state.
//
// Rules are evaluated in table order. Each rule fires on one trigger and
// unlocks at most once per profile; unlocked ids are kept in an ordered,
// append-only Set.
package achievement

import (
	"time"
)

// ID identifies an achievement. IDs are persisted and must stay stable.
type ID string

// Built-in achievement ids.
const (
	FirstBlood   ID = "first_blood"
	WeekWarrior  ID = "seven_days"
	CourseMaster ID = "master"
	NightOwl     ID = "night_owl"
)

// String returns the string representation.
func (id ID) String() string {
	return string(id)
}

// Trigger is the kind of progress event a rule listens to.
type Trigger string

const (
	// TriggerLessonCompleted fires when a lesson transitions to completed.
	TriggerLessonCompleted Trigger = "lesson_complete"
	// TriggerStreakRecomputed fires whenever the streak is derived again.
	TriggerStreakRecomputed Trigger = "streak"
	// TriggerCourseCompleted fires when every lesson of a course is completed.
	TriggerCourseCompleted Trigger = "course_complete"
)

// Thresholds used by the built-in rules.
const (
	WeekWarriorStreak = 7
	NightOwlFromHour  = 0
	NightOwlUntilHour = 5
)

// EvalContext carries the state a predicate may inspect.
type EvalContext struct {
	// Streak is the current day streak.
	Streak int
	// At is when the trigger happened.
	At time.Time
	// Location is the learner's zone; nil means At's own zone.
	Location *time.Location
}

// LocalHour returns the hour of At in the learner's zone.
func (c EvalContext) LocalHour() int {
	if c.Location != nil {
		return c.At.In(c.Location).Hour()
	}
	return c.At.Hour()
}

// Predicate decides whether a rule unlocks.
type Predicate func(EvalContext) bool

// Definition is one row of the rule table.
type Definition struct {
	ID          ID
	Name        string
	Description string
	Icon        string
	Trigger     Trigger
	Predicate   Predicate
}

func always(EvalContext) bool { return true }

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Definition {
	return []Definition{
		{
			ID:          FirstBlood,
			Name:        "First Blood",
			Description: "Complete your first lesson",
			Icon:        "🩸",
			Trigger:     TriggerLessonCompleted,
			Predicate:   always,
		},
		{
			ID:          WeekWarrior,
			Name:        "Week Warrior",
			Description: "Reach a 7-day streak",
			Icon:        "🔥",
			Trigger:     TriggerStreakRecomputed,
			Predicate:   func(c EvalContext) bool { return c.Streak >= WeekWarriorStreak },
		},
		{
			ID:          CourseMaster,
			Name:        "Course Master",
			Description: "Complete an entire course",
			Icon:        "🎓",
			Trigger:     TriggerCourseCompleted,
			Predicate:   always,
		},
		{
			ID:          NightOwl,
			Name:        "Night Owl",
			Description: "Finish a video after midnight",
			Icon:        "🦉",
			Trigger:     TriggerLessonCompleted,
			Predicate: func(c EvalContext) bool {
				h := c.LocalHour()
				return h >= NightOwlFromHour && h < NightOwlUntilHour
			},
		},
	}
}

// Lookup returns the built-in definition of id.
func Lookup(id ID) (Definition, bool) {
	for _, def := range DefaultRules() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Unlock is the notification payload of a newly unlocked achievement.
type Unlock struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// NewUnlock builds the payload of def unlocked at at.
func NewUnlock(def Definition, at time.Time) Unlock {
	return Unlock{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Icon:        def.Icon,
		UnlockedAt:  at,
	}
}
