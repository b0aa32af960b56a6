package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"
)

// recordingCache — тестовый кеш, запоминающий обновления.
type recordingCache struct {
	updates     []*leaderboard.Entry
	updateErr   error
	invalidated bool
}

func (c *recordingCache) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	return nil, nil
}

func (c *recordingCache) SetTop(ctx context.Context, entries []*leaderboard.Entry, ttl time.Duration) error {
	return nil
}

func (c *recordingCache) UpdateMember(ctx context.Context, entry *leaderboard.Entry) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates = append(c.updates, entry)
	return nil
}

func (c *recordingCache) GetMemberRank(ctx context.Context, userID string) (leaderboard.Rank, error) {
	return 0, nil
}

func (c *recordingCache) Invalidate(ctx context.Context) error {
	c.invalidated = true
	return nil
}

func seedLearner(t *testing.T, store *memory.ProgressStore, userID, name string, coins int) {
	t.Helper()

	progress, err := learner.NewProgress(learner.NewProgressParams{
		UserID:      userID,
		DisplayName: name,
		Now:         time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	progress.AwardCoins(coins)
	require.NoError(t, store.Create(context.Background(), progress))
}

func TestOnCoinsAwarded_WritesThroughToCache(t *testing.T) {
	store := memory.NewProgressStore()
	cache := &recordingCache{}
	seedLearner(t, store, "aruzhan", "Аружан", 135)

	handler := NewOnCoinsAwardedHandler(store, cache, nil, DefaultCoinsAwardedConfig())

	event := shared.NewCoinsAwardedEvent("aruzhan", 35, 135, "quiz", "basics-money")
	require.NoError(t, handler.Handle(event))

	require.Len(t, cache.updates, 1)
	entry := cache.updates[0]
	assert.Equal(t, "aruzhan", entry.UserID)
	assert.Equal(t, "Аружан", entry.DisplayName)
	assert.Equal(t, leaderboard.Coins(135), entry.TotalCoins)
	assert.Equal(t, 2, entry.Level)
	assert.False(t, cache.invalidated)
}

func TestOnCoinsAwarded_InvalidatesCacheWhenUpdateFails(t *testing.T) {
	store := memory.NewProgressStore()
	cache := &recordingCache{updateErr: errors.New("redis down")}
	seedLearner(t, store, "daniyar", "Данияр", 50)

	handler := NewOnCoinsAwardedHandler(store, cache, nil, DefaultCoinsAwardedConfig())

	event := shared.NewCoinsAwardedEvent("daniyar", 25, 50, "simulation", "")
	err := handler.Handle(event)

	require.Error(t, err)
	assert.True(t, cache.invalidated)
}

func TestOnCoinsAwarded_UnknownLearnerFails(t *testing.T) {
	store := memory.NewProgressStore()
	cache := &recordingCache{}

	handler := NewOnCoinsAwardedHandler(store, cache, nil, DefaultCoinsAwardedConfig())

	event := shared.NewCoinsAwardedEvent("ghost", 10, 10, "quiz", "basics-money")
	err := handler.Handle(event)

	require.Error(t, err)
	assert.Empty(t, cache.updates)
}

func TestOnCoinsAwarded_RejectsForeignEvent(t *testing.T) {
	handler := NewOnCoinsAwardedHandler(memory.NewProgressStore(), &recordingCache{}, nil, DefaultCoinsAwardedConfig())

	err := handler.Handle(shared.NewLevelUpEvent("aruzhan", 1, 2))
	require.Error(t, err)
}
