package session

import (
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/activity"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
)

// Outcome reports everything one playback operation caused.
type Outcome struct {
	// Path is the lesson the operation applied to.
	Path string

	// Record is the lesson record after the operation.
	Record progress.LessonRecord

	// DayCount is today's activity count after a position update.
	DayCount int

	// JustCompleted is true when the lesson changed to completed.
	JustCompleted bool

	// Course is the name of the course containing the lesson, if known.
	Course string

	// CourseCompleted is true when this operation completed the last lesson of Course.
	CourseCompleted bool

	// StreakRecomputed is true when the streak was derived again; Streak holds it.
	StreakRecomputed bool
	Streak           int

	// Unlocks lists achievements unlocked by this operation in table order.
	Unlocks []achievement.Unlock

	// Next is the lesson to auto-advance to after FinishLesson.
	Next *content.Lesson
}

// HasUnlocks reports whether the operation unlocked anything.
func (o Outcome) HasUnlocks() bool {
	return len(o.Unlocks) > 0
}

// Analytics is the learner dashboard.
type Analytics struct {
	GeneratedAt      time.Time
	Today            activity.DayKey
	Streak           int
	LongestStreak    int
	CompletedLessons int
	ActiveDays       int
	TotalActivity    int
	Unlocked         []achievement.Definition
	Locked           []achievement.Definition
	NewUnlocks       []achievement.Unlock
	Heatmap          activity.Heatmap
}

func (s *Session) analytics(now time.Time, out Outcome) Analytics {
	today := activity.DayOf(now, s.loc)

	unlocked := s.unlocks.Unlocked()
	var locked []achievement.Definition
	for _, rule := range s.unlocks.Rules() {
		if !s.unlocks.Set().Has(rule.ID) {
			locked = append(locked, rule)
		}
	}

	active := 0
	for _, d := range s.ledger.Days() {
		if s.ledger.Active(d) {
			active++
		}
	}

	return Analytics{
		GeneratedAt:      now,
		Today:            today,
		Streak:           out.Streak,
		LongestStreak:    activity.LongestStreak(s.ledger),
		CompletedLessons: s.tracker.CompletedCount(),
		ActiveDays:       active,
		TotalActivity:    s.ledger.Total(),
		Unlocked:         unlocked,
		Locked:           locked,
		NewUnlocks:       out.Unlocks,
		Heatmap:          activity.BuildHeatmap(s.ledger, today),
	}
}
