package query

import (
	"context"
	"testing"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgress_NotInitialized(t *testing.T) {
	handler := NewGetProgressHandler(memory.NewProgressStore())

	_, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "aigerim"})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestGetProgress_ReturnsFullState(t *testing.T) {
	store := memory.NewProgressStore()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	progress, err := learner.NewProgress(learner.NewProgressParams{
		UserID:      "aigerim",
		DisplayName: "Айгерим",
		Now:         now,
	})
	require.NoError(t, err)
	progress.CompleteLesson("basics-money")
	progress.CompleteLesson("savings-power")
	progress.AwardCoins(125)
	require.NoError(t, store.Create(context.Background(), progress))

	handler := NewGetProgressHandler(store)

	dto, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "aigerim"})
	require.NoError(t, err)

	assert.Equal(t, "aigerim", dto.UserID)
	assert.Equal(t, "Айгерим", dto.DisplayName)
	assert.Equal(t, 125, dto.TotalCoins)
	assert.Equal(t, 2, dto.Level)
	assert.Equal(t, 25, dto.LevelProgressPercent)
	assert.Equal(t, []string{"basics-money", "savings-power"}, dto.CompletedLessonIDs)
	assert.Equal(t, now, dto.CreatedAt)
}

func TestGetProgress_InvalidUserID(t *testing.T) {
	handler := NewGetProgressHandler(memory.NewProgressStore())

	_, err := handler.Handle(context.Background(), GetProgressQuery{UserID: ""})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
