package command

import (
	"context"
	"testing"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRegisterHandler(t *testing.T) (*RegisterLearnerHandler, *memory.ProgressStore) {
	t.Helper()
	store := memory.NewProgressStore()
	handler := NewRegisterLearnerHandler(store, nil, RegisterLearnerHandlerConfig{
		Clock:      fixedClock(),
		BcryptCost: bcrypt.MinCost, // keep the test fast
	})
	return handler, store
}

func TestRegisterLearner_CreatesEmptyProfile(t *testing.T) {
	handler, store := newRegisterHandler(t)
	ctx := context.Background()

	result, err := handler.Handle(ctx, RegisterLearnerCommand{
		UserID:      "aigerim",
		DisplayName: "Айгерим",
		Password:    "correct-horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "aigerim", result.UserID)
	assert.False(t, result.AlreadyRegistered)

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, "Айгерим", progress.DisplayName)
	assert.Equal(t, 0, progress.TotalCoins.Int())
	assert.Equal(t, 1, progress.Level.Int())
	assert.Empty(t, progress.CompletedLessonIDs)

	// The raw password is never stored
	assert.NotEqual(t, "correct-horse", progress.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(progress.PasswordHash), []byte("correct-horse")))
}

func TestRegisterLearner_RetriedSignupIsHarmless(t *testing.T) {
	handler, store := newRegisterHandler(t)
	ctx := context.Background()

	first, err := handler.Handle(ctx, RegisterLearnerCommand{
		UserID: "aigerim", DisplayName: "Айгерим", Password: "correct-horse",
	})
	require.NoError(t, err)
	require.False(t, first.AlreadyRegistered)

	second, err := handler.Handle(ctx, RegisterLearnerCommand{
		UserID: "aigerim", DisplayName: "Другое имя", Password: "other-password",
	})
	require.NoError(t, err)

	assert.True(t, second.AlreadyRegistered)
	// The original profile wins
	assert.Equal(t, "Айгерим", second.DisplayName)

	progress, err := store.GetByUserID(ctx, "aigerim")
	require.NoError(t, err)
	assert.Equal(t, "Айгерим", progress.DisplayName)
}

func TestRegisterLearner_Validation(t *testing.T) {
	handler, _ := newRegisterHandler(t)
	ctx := context.Background()

	cases := []RegisterLearnerCommand{
		{UserID: "", DisplayName: "X", Password: "longenough"},
		{UserID: "aigerim", DisplayName: "", Password: "longenough"},
		{UserID: "aigerim", DisplayName: "X", Password: "short"},
	}
	for _, cmd := range cases {
		_, err := handler.Handle(ctx, cmd)
		assert.Error(t, err, "command %+v must be rejected", cmd)
	}
}
