package command

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/lesson"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() shared.FixedClock {
	return shared.FixedClock{Instant: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func newQuizHandler(t *testing.T) (*RecordQuizResultHandler, *memory.ProgressStore, *memory.QuizJournal) {
	t.Helper()
	progressStore := memory.NewProgressStore()
	journal := memory.NewQuizJournal()
	cfg := DefaultRecordQuizResultHandlerConfig()
	cfg.Clock = fixedClock()
	handler := NewRecordQuizResultHandler(progressStore, journal, lesson.NewSeededCatalog(), nil, cfg)
	return handler, progressStore, journal
}

func TestRecordQuizResult_FirstPassAwardsProportionalCoins(t *testing.T) {
	handler, store, journal := newQuizHandler(t)
	ctx := context.Background()

	// 7/10 on a 50-coin lesson: floor(50 * 0.7) = 35
	result, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID:         "aigerim",
		LessonID:       "basics-money",
		Score:          7,
		TotalQuestions: 10,
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.True(t, result.IsNewCompletion)
	assert.Equal(t, 35, result.CoinsEarned)
	assert.Equal(t, 35, result.TotalCoins)
	assert.Equal(t, 1, result.Level)

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, []shared.LessonID{"basics-money"}, progress.CompletedLessonIDs)

	count, err := journal.CountByUser(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordQuizResult_RepeatPassEarnsNothing(t *testing.T) {
	handler, store, journal := newQuizHandler(t)
	ctx := context.Background()

	first, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "basics-money", Score: 7, TotalQuestions: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 35, first.CoinsEarned)

	// Perfect score on a repeat still earns zero
	second, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "basics-money", Score: 10, TotalQuestions: 10,
	})
	require.NoError(t, err)

	assert.True(t, second.Passed)
	assert.False(t, second.IsNewCompletion)
	assert.Equal(t, 0, second.CoinsEarned)
	assert.Equal(t, 35, second.TotalCoins)

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Len(t, progress.CompletedLessonIDs, 1)

	// Both attempts are journaled
	count, err := journal.CountByUser(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordQuizResult_FailedAttemptIsAuditedWithoutReward(t *testing.T) {
	handler, store, journal := newQuizHandler(t)
	ctx := context.Background()

	result, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "interest-compound", Score: 6, TotalQuestions: 10,
	})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.False(t, result.IsNewCompletion)
	assert.Equal(t, 0, result.CoinsEarned)
	assert.Equal(t, 0, result.TotalCoins)

	// Lazy-created profile with no completions
	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Empty(t, progress.CompletedLessonIDs)
	assert.Equal(t, 0, progress.TotalCoins.Int())

	records, err := journal.ListByUser(ctx, "aigerim", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Passed)
	assert.Equal(t, 0, records[0].CoinsEarned)
}

func TestRecordQuizResult_ExactThresholdPasses(t *testing.T) {
	handler, _, _ := newQuizHandler(t)

	result, err := handler.Handle(context.Background(), RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "savings-power", Score: 14, TotalQuestions: 20,
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.True(t, result.IsNewCompletion)
	// floor(75 * 14/20) = 52
	assert.Equal(t, 52, result.CoinsEarned)
}

func TestRecordQuizResult_UnknownLesson(t *testing.T) {
	handler, _, journal := newQuizHandler(t)
	ctx := context.Background()

	_, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "no-such-lesson", Score: 7, TotalQuestions: 10,
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	// Nothing is journaled for unknown lessons
	count, err := journal.CountByUser(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecordQuizResult_InvalidSubmission(t *testing.T) {
	handler, _, _ := newQuizHandler(t)
	ctx := context.Background()

	cases := []RecordQuizResultCommand{
		{UserID: "", LessonID: "basics-money", Score: 7, TotalQuestions: 10},
		{UserID: "aigerim", LessonID: "", Score: 7, TotalQuestions: 10},
		{UserID: "aigerim", LessonID: "basics-money", Score: -1, TotalQuestions: 10},
		{UserID: "aigerim", LessonID: "basics-money", Score: 11, TotalQuestions: 10},
		{UserID: "aigerim", LessonID: "basics-money", Score: 5, TotalQuestions: 0},
	}
	for _, cmd := range cases {
		_, err := handler.Handle(ctx, cmd)
		assert.Error(t, err, "command %+v must be rejected", cmd)
	}
}

func TestRecordQuizResult_LevelUpAcrossLessons(t *testing.T) {
	handler, store, _ := newQuizHandler(t)
	ctx := context.Background()

	// Perfect scores: 50 + 75 = 125 coins, level 2
	for _, lessonID := range []string{"basics-money", "savings-power"} {
		_, err := handler.Handle(ctx, RecordQuizResultCommand{
			UserID: "aigerim", LessonID: lessonID, Score: 10, TotalQuestions: 10,
		})
		require.NoError(t, err)
	}

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 125, progress.TotalCoins.Int())
	assert.Equal(t, 2, progress.Level.Int())
	assert.Equal(t, []shared.LessonID{"basics-money", "savings-power"}, progress.CompletedLessonIDs)
}

// Two goroutines complete different lessons for the same user concurrently.
// Optimistic locking must retry the loser so neither award is lost.
func TestRecordQuizResult_ConcurrentLessonsLoseNoUpdates(t *testing.T) {
	handler, store, journal := newQuizHandler(t)
	ctx := context.Background()

	// Pre-create so both goroutines contend on the same record
	_, err := handler.Handle(ctx, RecordQuizResultCommand{
		UserID: "aigerim", LessonID: "credit-cards", Score: 6, TotalQuestions: 10,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	lessons := []string{"basics-money", "savings-power"}

	for i, lessonID := range lessons {
		wg.Add(1)
		go func(i int, lessonID string) {
			defer wg.Done()
			_, errs[i] = handler.Handle(ctx, RecordQuizResultCommand{
				UserID: "aigerim", LessonID: lessonID, Score: 10, TotalQuestions: 10,
			})
		}(i, lessonID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 125, progress.TotalCoins.Int())
	assert.ElementsMatch(t,
		[]shared.LessonID{"basics-money", "savings-power"},
		progress.CompletedLessonIDs)

	count, err := journal.CountByUser(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// failingJournal rejects every append.
type failingJournal struct {
	learner.QuizRecordRepository
}

func (f *failingJournal) Append(ctx context.Context, record *learner.QuizRecord) error {
	return errors.New("journal unavailable")
}

func TestRecordQuizResult_JournalFailureKeepsCommittedAward(t *testing.T) {
	progressStore := memory.NewProgressStore()
	cfg := DefaultRecordQuizResultHandlerConfig()
	cfg.Clock = fixedClock()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRecordQuizResultHandler(
		progressStore,
		&failingJournal{QuizRecordRepository: memory.NewQuizJournal()},
		lesson.NewSeededCatalog(), nil, cfg)

	result, err := handler.Handle(context.Background(), RecordQuizResultCommand{
		UserID:         "aigerim",
		LessonID:       "basics-money",
		Score:          7,
		TotalQuestions: 10,
	})

	// The award committed before journaling, so the caller still gets
	// the successful result.
	require.NoError(t, err)
	assert.Equal(t, 35, result.CoinsEarned)
	assert.Equal(t, 35, result.TotalCoins)

	progress, err := progressStore.GetByUserID(context.Background(), "aigerim")
	require.NoError(t, err)
	assert.Equal(t, 35, progress.TotalCoins.Int())
}
