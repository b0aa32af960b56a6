// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/lesson"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD QUIZ RESULT COMMAND
// Records a quiz attempt: awards coins on first-time passes, tracks completed
// lessons, and appends an audit record for every attempt including failures.
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizResultCommand contains one quiz attempt to record.
type RecordQuizResultCommand struct {
	// UserID is the learner who took the quiz.
	UserID string

	// LessonID is the lesson whose quiz was taken.
	LessonID string

	// Score is the number of correct answers.
	Score int

	// TotalQuestions is the number of questions in the quiz.
	TotalQuestions int

	// TimeSpent is how long the attempt took (optional).
	TimeSpent time.Duration

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordQuizResultCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if _, err := shared.NewLessonID(c.LessonID); err != nil {
		return err
	}
	return learner.ValidateQuizSubmission(c.Score, c.TotalQuestions)
}

// RecordQuizResultResult contains the outcome of recording a quiz attempt.
type RecordQuizResultResult struct {
	// Passed indicates if the attempt reached the passing threshold.
	Passed bool

	// CoinsEarned is how many coins this attempt awarded (0 on repeats
	// and failures).
	CoinsEarned int

	// IsNewCompletion indicates the lesson was completed for the first time.
	IsNewCompletion bool

	// TotalCoins is the learner's coin balance after the attempt.
	TotalCoins int

	// Level is the learner's level after the attempt.
	Level int

	// CurrentStreak is the daily streak after the attempt.
	CurrentStreak int

	// RecordedAt is when the attempt was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizResultHandler handles the RecordQuizResultCommand.
type RecordQuizResultHandler struct {
	progressRepo   learner.ProgressRepository
	quizRepo       learner.QuizRecordRepository
	catalog        lesson.Catalog
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	retrier        *retry.Retrier
	location       *time.Location
	logger         *slog.Logger
}

// RecordQuizResultHandlerConfig contains configuration for the handler.
type RecordQuizResultHandlerConfig struct {
	// Clock supplies the current time (SystemClock in production).
	Clock shared.Clock

	// Retrier bounds the optimistic-concurrency retry loop.
	Retrier *retry.Retrier

	// Location is the timezone used for streak day boundaries.
	Location *time.Location

	// Logger reports non-fatal journaling failures.
	Logger *slog.Logger
}

// DefaultRecordQuizResultHandlerConfig returns default configuration.
func DefaultRecordQuizResultHandlerConfig() RecordQuizResultHandlerConfig {
	return RecordQuizResultHandlerConfig{
		Clock:    shared.SystemClock{},
		Retrier:  retry.LedgerRetrier(),
		Location: time.UTC,
	}
}

// NewRecordQuizResultHandler creates a new RecordQuizResultHandler.
func NewRecordQuizResultHandler(
	progressRepo learner.ProgressRepository,
	quizRepo learner.QuizRecordRepository,
	catalog lesson.Catalog,
	eventPublisher shared.EventPublisher,
	config RecordQuizResultHandlerConfig,
) *RecordQuizResultHandler {
	if config.Clock == nil {
		config.Clock = shared.SystemClock{}
	}
	if config.Retrier == nil {
		config.Retrier = retry.LedgerRetrier()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &RecordQuizResultHandler{
		progressRepo:   progressRepo,
		quizRepo:       quizRepo,
		catalog:        catalog,
		eventPublisher: eventPublisher,
		clock:          config.Clock,
		retrier:        config.Retrier,
		location:       config.Location,
		logger:         config.Logger,
	}
}

// Handle executes the record quiz result command.
//
// The write path is a bounded compare-and-set loop: each attempt re-reads the
// progress record, re-derives the award from the fresh copy, and commits only
// if the version is unchanged. Exhausting the retry budget surfaces as a
// service-unavailable error, never as a partial write.
func (h *RecordQuizResultHandler) Handle(ctx context.Context, cmd RecordQuizResultCommand) (*RecordQuizResultResult, error) {
	// Validate command
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_quiz_result: validation failed: %w", err)
	}

	userID, _ := shared.NewUserID(cmd.UserID)
	lessonID, _ := shared.NewLessonID(cmd.LessonID)
	now := h.clock.Now()

	// Look up the lesson
	les, err := h.catalog.Lookup(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("record_quiz_result: %w", err)
	}

	result := &RecordQuizResultResult{
		Passed:     learner.IsPassing(cmd.Score, cmd.TotalQuestions),
		RecordedAt: now,
	}
	var events []shared.Event

	// Commit progress under optimistic concurrency
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		progress, err := loadOrCreateProgress(ctx, h.progressRepo, userID, now)
		if err != nil {
			return retry.Permanent(err)
		}

		// The award decision is made against the state before this attempt
		// mutates anything.
		wasAlreadyCompleted := progress.HasCompleted(lessonID)
		coins := learner.QuizReward(les.CoinReward, cmd.Score, cmd.TotalQuestions, wasAlreadyCompleted)

		events = events[:0]
		result.IsNewCompletion = false
		result.CoinsEarned = 0

		if result.Passed && !wasAlreadyCompleted {
			progress.CompleteLesson(lessonID)
			result.IsNewCompletion = true
			events = append(events, shared.NewLessonCompletedEvent(
				userID.String(), lessonID.String(), coins, cmd.Score, cmd.TotalQuestions))
		}

		if coins > 0 {
			oldLevel, newLevel := progress.AwardCoins(coins)
			result.CoinsEarned = coins
			events = append(events, shared.NewCoinsAwardedEvent(
				userID.String(), coins, progress.TotalCoins.Int(), "quiz", lessonID.String()))
			if newLevel > oldLevel {
				events = append(events, shared.NewLevelUpEvent(
					userID.String(), oldLevel.Int(), newLevel.Int()))
			}
		}

		progress.Touch(now, h.location)

		if err := h.progressRepo.CompareAndSet(ctx, progress); err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		result.TotalCoins = progress.TotalCoins.Int()
		result.Level = progress.Level.Int()
		result.CurrentStreak = progress.CurrentStreak
		return nil
	})
	if err != nil {
		if shared.IsConflict(err) {
			return nil, shared.ErrLedgerExhausted
		}
		return nil, fmt.Errorf("record_quiz_result: %w", err)
	}

	// Every attempt is journaled, failures and repeats included. The award
	// is already committed at this point, so a journal failure is logged
	// and does not fail the command.
	h.journal(ctx, cmd, userID, lessonID, result.CoinsEarned, now)

	h.publish(events)

	return result, nil
}

// journal appends the audit record for an attempt whose award already
// committed.
func (h *RecordQuizResultHandler) journal(
	ctx context.Context,
	cmd RecordQuizResultCommand,
	userID shared.UserID,
	lessonID shared.LessonID,
	coinsEarned int,
	now time.Time,
) {
	record, err := learner.NewQuizRecord(learner.NewQuizRecordParams{
		UserID:         userID,
		LessonID:       lessonID,
		Score:          cmd.Score,
		TotalQuestions: cmd.TotalQuestions,
		CoinsEarned:    coinsEarned,
		TimeSpent:      cmd.TimeSpent,
		Now:            now,
	})
	if err != nil {
		h.logger.Error("could not build quiz record",
			"user_id", userID.String(),
			"lesson_id", lessonID.String(),
			"error", err,
		)
		return
	}
	if err := h.quizRepo.Append(ctx, record); err != nil {
		h.logger.Error("could not append quiz record",
			"user_id", userID.String(),
			"lesson_id", lessonID.String(),
			"error", err,
		)
	}
}

// publish delivers domain events. Delivery is best effort and never fails
// the command.
func (h *RecordQuizResultHandler) publish(events []shared.Event) {
	if h.eventPublisher == nil {
		return
	}
	for _, event := range events {
		_ = h.eventPublisher.Publish(event)
	}
}
