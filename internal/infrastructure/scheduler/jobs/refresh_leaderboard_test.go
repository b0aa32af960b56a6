package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/infrastructure/persistence/memory"
)

// captureCache records what the job writes and serves it back on reads.
type captureCache struct {
	top    []*leaderboard.Entry
	ttl    time.Duration
	setErr error
	getErr error
}

func (c *captureCache) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.top, nil
}

func (c *captureCache) SetTop(ctx context.Context, entries []*leaderboard.Entry, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.top = entries
	c.ttl = ttl
	return nil
}

func (c *captureCache) UpdateMember(ctx context.Context, entry *leaderboard.Entry) error {
	return nil
}

func (c *captureCache) GetMemberRank(ctx context.Context, userID string) (leaderboard.Rank, error) {
	return 0, nil
}

func (c *captureCache) Invalidate(ctx context.Context) error {
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

func TestRefreshLeaderboardJob_CachesRankedTop(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 320)
	seedProgress(t, store, "daniyar", "Данияр", 150)
	seedProgress(t, store, "aigerim", "Айгерим", 150)
	seedProgress(t, store, "bek", "Бек", 40)

	cache := &captureCache{}
	job := NewRefreshLeaderboardJob(store, cache, nil, RefreshLeaderboardConfig{
		TopLimit: 3,
		CacheTTL: 2 * time.Minute,
	})

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, cache.top, 3)
	assert.Equal(t, 2*time.Minute, cache.ttl)

	// Coins descending, user ID ascending on ties.
	assert.Equal(t, "aruzhan", cache.top[0].UserID)
	assert.Equal(t, "aigerim", cache.top[1].UserID)
	assert.Equal(t, "daniyar", cache.top[2].UserID)
	assert.Equal(t, leaderboard.Rank(1), cache.top[0].Rank)
	assert.Equal(t, leaderboard.Rank(2), cache.top[1].Rank)
	assert.Equal(t, leaderboard.Rank(3), cache.top[2].Rank)

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.TotalLearners)
	assert.Equal(t, 3, stats.EntriesCached)
	assert.Equal(t, 0, stats.Skipped)
}

func TestRefreshLeaderboardJob_EmptyLedger(t *testing.T) {
	store := memory.NewProgressStore()
	cache := &captureCache{}
	job := NewRefreshLeaderboardJob(store, cache, nil, DefaultRefreshLeaderboardConfig())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, cache.top)
}

func TestRefreshLeaderboardJob_TracksRankChanges(t *testing.T) {
	before := memory.NewProgressStore()
	seedProgress(t, before, "aruzhan", "Аружан", 320)
	seedProgress(t, before, "daniyar", "Данияр", 150)

	cache := &captureCache{}
	config := RefreshLeaderboardConfig{
		TopLimit:        10,
		CacheTTL:        2 * time.Minute,
		TrackRankChange: true,
	}

	// The first run has no previous top, so no movement is recorded.
	require.NoError(t, NewRefreshLeaderboardJob(before, cache, nil, config).Run(context.Background()))
	require.Len(t, cache.top, 2)
	assert.Equal(t, leaderboard.RankChange(0), cache.top[0].RankChange)

	// Daniyar overtakes Aruzhan and Bek enters the ledger.
	after := memory.NewProgressStore()
	seedProgress(t, after, "aruzhan", "Аружан", 320)
	seedProgress(t, after, "daniyar", "Данияр", 500)
	seedProgress(t, after, "bek", "Бек", 40)

	require.NoError(t, NewRefreshLeaderboardJob(after, cache, nil, config).Run(context.Background()))
	require.Len(t, cache.top, 3)

	assert.Equal(t, "daniyar", cache.top[0].UserID)
	assert.Equal(t, leaderboard.RankChange(1), cache.top[0].RankChange)
	assert.Equal(t, leaderboard.RankDirectionUp, cache.top[0].RankChange.Direction())

	assert.Equal(t, "aruzhan", cache.top[1].UserID)
	assert.Equal(t, leaderboard.RankChange(-1), cache.top[1].RankChange)
	assert.Equal(t, leaderboard.RankDirectionDown, cache.top[1].RankChange.Direction())

	// Newcomers carry no movement.
	assert.Equal(t, "bek", cache.top[2].UserID)
	assert.Equal(t, leaderboard.RankChange(0), cache.top[2].RankChange)
}

func TestRefreshLeaderboardJob_RankChangeReadErrorIsNonFatal(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 100)

	cache := &captureCache{getErr: errors.New("redis down")}
	job := NewRefreshLeaderboardJob(store, cache, nil, RefreshLeaderboardConfig{
		TopLimit:        10,
		CacheTTL:        time.Minute,
		TrackRankChange: true,
	})

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, cache.top, 1)
	assert.Equal(t, leaderboard.RankChange(0), cache.top[0].RankChange)
}

func TestRefreshLeaderboardJob_CacheErrorSurfaces(t *testing.T) {
	store := memory.NewProgressStore()
	seedProgress(t, store, "aruzhan", "Аружан", 100)

	cache := &captureCache{setErr: errors.New("redis down")}
	job := NewRefreshLeaderboardJob(store, cache, nil, DefaultRefreshLeaderboardConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Nil(t, job.LastStats())
}
