package learner

import (
	"testing"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"github.com/stretchr/testify/assert"
)

func newTestProgress(t *testing.T) *Progress {
	t.Helper()
	p, err := NewProgress(NewProgressParams{
		UserID:      "user-1",
		DisplayName: "Aisha",
		Now:         time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	return p
}

func TestNewProgress_Defaults(t *testing.T) {
	p := newTestProgress(t)

	assert.Equal(t, shared.Coins(0), p.TotalCoins)
	assert.Equal(t, shared.Level(1), p.Level)
	assert.Empty(t, p.CompletedLessonIDs)
	assert.Equal(t, int64(1), p.Version)
}

func TestNewProgress_RequiresUserID(t *testing.T) {
	_, err := NewProgress(NewProgressParams{UserID: ""})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestAwardCoins_RecomputesLevel(t *testing.T) {
	p := newTestProgress(t)

	p.AwardCoins(99)
	assert.Equal(t, shared.Level(1), p.Level)

	old, newLevel := p.AwardCoins(1)
	assert.Equal(t, shared.Level(1), old)
	assert.Equal(t, shared.Level(2), newLevel)
	assert.Equal(t, shared.Coins(100), p.TotalCoins)

	p.AwardCoins(99)
	assert.Equal(t, shared.Level(2), p.Level)
	p.AwardCoins(1)
	assert.Equal(t, shared.Level(3), p.Level)
}

func TestAwardCoins_NegativeAmountIgnored(t *testing.T) {
	p := newTestProgress(t)
	p.AwardCoins(50)

	p.AwardCoins(-30)
	assert.Equal(t, shared.Coins(50), p.TotalCoins)
}

func TestCompleteLesson_NoDuplicates(t *testing.T) {
	p := newTestProgress(t)

	assert.True(t, p.CompleteLesson("basics-money"))
	assert.True(t, p.CompleteLesson("loans-emi"))
	assert.False(t, p.CompleteLesson("basics-money"))

	assert.Equal(t, []shared.LessonID{"basics-money", "loans-emi"}, p.CompletedLessonIDs)
	assert.True(t, p.HasCompleted("loans-emi"))
	assert.False(t, p.HasCompleted("credit-cards"))
}

func TestTouch_StreakProgression(t *testing.T) {
	p := newTestProgress(t)
	day1 := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	p.Touch(day1, time.UTC)
	assert.Equal(t, 1, p.CurrentStreak)

	// Same day: streak unchanged.
	p.Touch(day1.Add(2*time.Hour), time.UTC)
	assert.Equal(t, 1, p.CurrentStreak)

	// Next day: streak grows.
	p.Touch(day1.AddDate(0, 0, 1), time.UTC)
	assert.Equal(t, 2, p.CurrentStreak)

	// Gap: streak resets.
	p.Touch(day1.AddDate(0, 0, 5), time.UTC)
	assert.Equal(t, 1, p.CurrentStreak)
}

func TestClone_IsDeep(t *testing.T) {
	p := newTestProgress(t)
	p.CompleteLesson("basics-money")

	clone := p.Clone()
	clone.CompleteLesson("loans-emi")
	clone.AwardCoins(100)

	assert.Len(t, p.CompletedLessonIDs, 1)
	assert.Equal(t, shared.Coins(0), p.TotalCoins)
	assert.Len(t, clone.CompletedLessonIDs, 2)
}
