// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven parts of the platform.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"

	// Progression events
	EventCoinsAwarded       EventType = "progression.coins_awarded"
	EventLevelUp            EventType = "progression.level_up"
	EventLessonCompleted    EventType = "progression.lesson_completed"
	EventQuizAttempted      EventType = "progression.quiz_attempted"
	EventSimulationRecorded EventType = "progression.simulation_recorded"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventLeaderboardUpdated EventType = "leaderboard.updated"
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

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner profile is created.
type LearnerRegisteredEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"display_name": e.DisplayName,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(userID, displayName string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, userID),
		UserID:      userID,
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// CoinsAwardedEvent is emitted when a learner earns coins.
type CoinsAwardedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // e.g., "quiz", "simulation"
	LessonID string `json:"lesson_id,omitempty"`
}

// Payload implements Event interface.
func (e CoinsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
		"lesson_id": e.LessonID,
	}
}

// NewCoinsAwardedEvent creates a new CoinsAwardedEvent.
func NewCoinsAwardedEvent(userID string, amount, newTotal int, source, lessonID string) CoinsAwardedEvent {
	return CoinsAwardedEvent{
		BaseEvent: NewBaseEvent(EventCoinsAwarded, userID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		LessonID:  lessonID,
	}
}

// LessonCompletedEvent is emitted when a learner passes a lesson quiz
// for the first time.
type LessonCompletedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	LessonID    string `json:"lesson_id"`
	CoinsEarned int    `json:"coins_earned"`
	Score       int    `json:"score"`
	Total       int    `json:"total"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"lesson_id":    e.LessonID,
		"coins_earned": e.CoinsEarned,
		"score":        e.Score,
		"total":        e.Total,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, coinsEarned, score, total int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:   NewBaseEvent(EventLessonCompleted, userID),
		UserID:      userID,
		LessonID:    lessonID,
		CoinsEarned: coinsEarned,
		Score:       score,
		Total:       total,
	}
}

// LevelUpEvent is emitted when a learner's level increases.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// SimulationRecordedEvent is emitted when a loan simulation run is saved.
type SimulationRecordedEvent struct {
	BaseEvent
	UserID         string  `json:"user_id"`
	SimulationID   string  `json:"simulation_id"`
	SimulationType string  `json:"simulation_type"`
	Principal      float64 `json:"principal"`
	BonusCoins     int     `json:"bonus_coins"`
}

// Payload implements Event interface.
func (e SimulationRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"simulation_id":   e.SimulationID,
		"simulation_type": e.SimulationType,
		"principal":       e.Principal,
		"bonus_coins":     e.BonusCoins,
	}
}

// NewSimulationRecordedEvent creates a new SimulationRecordedEvent.
func NewSimulationRecordedEvent(userID, simulationID, simulationType string, principal float64, bonusCoins int) SimulationRecordedEvent {
	return SimulationRecordedEvent{
		BaseEvent:      NewBaseEvent(EventSimulationRecorded, userID),
		UserID:         userID,
		SimulationID:   simulationID,
		SimulationType: simulationType,
		Principal:      principal,
		BonusCoins:     bonusCoins,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedEvent is emitted when a learner's rank changes.
type RankChangedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	RankChange int    `json:"rank_change"` // Positive = moved up, Negative = moved down
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"old_rank":    e.OldRank,
		"new_rank":    e.NewRank,
		"rank_change": e.RankChange,
	}
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(userID string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent:  NewBaseEvent(EventRankChanged, userID),
		UserID:     userID,
		OldRank:    oldRank,
		NewRank:    newRank,
		RankChange: oldRank - newRank, // Positive means moved up
	}
}

// MovedUp returns true if the learner moved up in rank.
func (e RankChangedEvent) MovedUp() bool {
	return e.RankChange > 0
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
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
