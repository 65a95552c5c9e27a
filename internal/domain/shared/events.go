// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types emitted by the progress engine.
const (
	// Progress events
	EventLessonCompleted  EventType = "progress.lesson_completed"
	EventCourseCompleted  EventType = "progress.course_completed"
	EventStreakRecomputed EventType = "progress.streak_recomputed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event. The aggregate of every progress
// event is the learner profile.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// Correlation returns the correlation ID.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// CorrelationOf returns the correlation ID of events built on BaseEvent.
func CorrelationOf(event Event) string {
	if c, ok := event.(interface{ Correlation() string }); ok {
		return c.Correlation()
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a lesson transitions to completed.
type LessonCompletedEvent struct {
	BaseEvent
	LessonPath string `json:"lesson_path"`
	Course     string `json:"course,omitempty"`
	Ended      bool   `json:"ended"` // completion came from the end of media
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_path": e.LessonPath,
		"course":      e.Course,
		"ended":       e.Ended,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(profile, path, course string, ended bool, at time.Time) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:  NewBaseEvent(EventLessonCompleted, profile, at),
		LessonPath: path,
		Course:     course,
		Ended:      ended,
	}
}

// CourseCompletedEvent is emitted when every lesson of a course is completed.
type CourseCompletedEvent struct {
	BaseEvent
	Course  string `json:"course"`
	Lessons int    `json:"lessons"`
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"course":  e.Course,
		"lessons": e.Lessons,
	}
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(profile, course string, lessons int, at time.Time) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent: NewBaseEvent(EventCourseCompleted, profile, at),
		Course:    course,
		Lessons:   lessons,
	}
}

// StreakRecomputedEvent is emitted whenever the streak is derived again.
type StreakRecomputedEvent struct {
	BaseEvent
	Day    string `json:"day"`
	Streak int    `json:"streak"`
}

// Payload implements Event interface.
func (e StreakRecomputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"day":    e.Day,
		"streak": e.Streak,
	}
}

// NewStreakRecomputedEvent creates a new StreakRecomputedEvent.
func NewStreakRecomputedEvent(profile, day string, streak int, at time.Time) StreakRecomputedEvent {
	return StreakRecomputedEvent{
		BaseEvent: NewBaseEvent(EventStreakRecomputed, profile, at),
		Day:       day,
		Streak:    streak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted once per achievement id.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Icon          string `json:"icon"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"icon":           e.Icon,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(profile, id, name, icon string, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, profile, at),
		AchievementID: id,
		Name:          name,
		Icon:          icon,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope serialises an event payload into an envelope.
func NewEnvelope(event Event, correlationID string) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		Type:          event.EventType(),
		AggregateID:   event.AggregateID(),
		Timestamp:     event.OccurredAt(),
		CorrelationID: correlationID,
		Payload:       payload,
	}, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
