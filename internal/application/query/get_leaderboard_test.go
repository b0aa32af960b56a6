package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-test leaderboard.Cache.
type fakeCache struct {
	top     []*leaderboard.Entry
	getErr  error
	setTop  [][]*leaderboard.Entry
	updates []*leaderboard.Entry
}

func (f *fakeCache) GetTop(_ context.Context, limit int) ([]*leaderboard.Entry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if limit > len(f.top) {
		limit = len(f.top)
	}
	return f.top[:limit], nil
}

func (f *fakeCache) SetTop(_ context.Context, entries []*leaderboard.Entry, _ time.Duration) error {
	f.setTop = append(f.setTop, entries)
	return nil
}

func (f *fakeCache) UpdateMember(_ context.Context, entry *leaderboard.Entry) error {
	f.updates = append(f.updates, entry)
	return nil
}

func (f *fakeCache) GetMemberRank(_ context.Context, _ string) (leaderboard.Rank, error) {
	return 0, nil
}

func (f *fakeCache) Invalidate(_ context.Context) error {
	f.top = nil
	return nil
}

func seedProgress(t *testing.T, store *memory.ProgressStore, userID, name string, coins int) {
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

func TestGetLeaderboard_RanksFromSnapshot(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 300)
	seedProgress(t, store, "bekzat", "Бекзат", 150)
	seedProgress(t, store, "daniyar", "Данияр", 450)

	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.False(t, result.FromCache)
	assert.Equal(t, 3, result.TotalCount)

	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "daniyar", result.Entries[0].UserID)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, "aruzhan", result.Entries[1].UserID)
	assert.Equal(t, 3, result.Entries[2].Rank)
	assert.Equal(t, "bekzat", result.Entries[2].UserID)
}

func TestGetLeaderboard_TieBreakByUserID(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "zarina", "Зарина", 200)
	seedProgress(t, store, "aidos", "Айдос", 200)

	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	// Equal coins: user ID ascending decides the order
	assert.Equal(t, "aidos", result.Entries[0].UserID)
	assert.Equal(t, "zarina", result.Entries[1].UserID)
}

func TestGetLeaderboard_TruncatesToLimit(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 300)
	seedProgress(t, store, "bekzat", "Бекзат", 150)
	seedProgress(t, store, "daniyar", "Данияр", 450)

	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, "daniyar", result.Entries[0].UserID)
	assert.Equal(t, "aruzhan", result.Entries[1].UserID)
}

func TestGetLeaderboard_EmptySnapshot(t *testing.T) {
	handler := NewGetLeaderboardHandler(memory.NewProgressStore(), GetLeaderboardHandlerConfig{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	assert.Empty(t, result.Entries)
	assert.Equal(t, 0, result.TotalCount)
}

func TestGetLeaderboard_Stats(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 100)
	seedProgress(t, store, "bekzat", "Бекзат", 200)
	seedProgress(t, store, "daniyar", "Данияр", 600)

	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10, WithStats: true})
	require.NoError(t, err)

	assert.Equal(t, 300, result.AverageCoins)
	assert.Equal(t, 200, result.MedianCoins)
}

func TestGetLeaderboard_ServedFromCache(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 300)

	cache := &fakeCache{top: []*leaderboard.Entry{
		{Rank: 1, UserID: "cached", DisplayName: "Из кеша", TotalCoins: 999},
	}}
	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{Cache: cache})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	assert.True(t, result.FromCache)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "cached", result.Entries[0].UserID)
}

func TestGetLeaderboard_RankChangeFlowsThrough(t *testing.T) {
	cache := &fakeCache{top: []*leaderboard.Entry{
		{Rank: 1, UserID: "daniyar", DisplayName: "Данияр", TotalCoins: 500, RankChange: 1},
		{Rank: 2, UserID: "aruzhan", DisplayName: "Аружан", TotalCoins: 320, RankChange: -1},
		{Rank: 3, UserID: "bek", DisplayName: "Бек", TotalCoins: 40},
	}}
	handler := NewGetLeaderboardHandler(memory.NewProgressStore(), GetLeaderboardHandlerConfig{Cache: cache})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, 1, result.Entries[0].RankChange)
	assert.Equal(t, "up", result.Entries[0].RankDirection)
	assert.Equal(t, -1, result.Entries[1].RankChange)
	assert.Equal(t, "down", result.Entries[1].RankDirection)
	assert.Equal(t, 0, result.Entries[2].RankChange)
	assert.Equal(t, "stable", result.Entries[2].RankDirection)
}

func TestGetLeaderboard_CacheErrorFallsBackToSnapshot(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 300)

	cache := &fakeCache{getErr: errors.New("redis down")}
	handler := NewGetLeaderboardHandler(store, GetLeaderboardHandlerConfig{Cache: cache})

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: 10})
	require.NoError(t, err)

	assert.False(t, result.FromCache)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "aruzhan", result.Entries[0].UserID)
	// The rebuilt top is written back
	assert.NotEmpty(t, cache.setTop)
}

func TestGetLeaderboard_InvalidLimit(t *testing.T) {
	handler := NewGetLeaderboardHandler(memory.NewProgressStore(), GetLeaderboardHandlerConfig{})

	_, err := handler.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})
	assert.Error(t, err)
}
