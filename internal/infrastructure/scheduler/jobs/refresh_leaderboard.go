// Package jobs contains implementations of scheduled jobs for Qarzhy Learning Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshLeaderboardJob rebuilds the cached leaderboard from the progression
// ledger. The write-through event handler keeps the cache updated between
// runs; this job repairs drift after cache evictions or missed events and
// re-warms the cache before the TTL expires.
type RefreshLeaderboardJob struct {
	progressRepo learner.ProgressRepository
	cache        leaderboard.Cache
	logger       *slog.Logger

	config RefreshLeaderboardConfig

	lastRefreshStats atomic.Value // *RefreshStats
}

// RefreshLeaderboardConfig contains configuration for the refresh job.
type RefreshLeaderboardConfig struct {
	// TopLimit is how many entries to cache.
	TopLimit int

	// CacheTTL is the TTL for cached leaderboard data.
	CacheTTL time.Duration

	// Timeout is the maximum duration for one refresh.
	Timeout time.Duration

	// TrackRankChange compares each run against the previously cached top
	// and stores per-entry rank movement alongside the entries.
	TrackRankChange bool
}

// DefaultRefreshLeaderboardConfig returns sensible defaults.
func DefaultRefreshLeaderboardConfig() RefreshLeaderboardConfig {
	return RefreshLeaderboardConfig{
		TopLimit: 100,
		CacheTTL: 5 * time.Minute,
		Timeout:  time.Minute,
	}
}

// RefreshStats contains statistics from a refresh run.
type RefreshStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalLearners int
	EntriesCached int
	Skipped       int
}

// NewRefreshLeaderboardJob creates a new refresh leaderboard job.
func NewRefreshLeaderboardJob(
	progressRepo learner.ProgressRepository,
	cache leaderboard.Cache,
	logger *slog.Logger,
	config RefreshLeaderboardConfig,
) *RefreshLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopLimit <= 0 {
		config.TopLimit = DefaultRefreshLeaderboardConfig().TopLimit
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultRefreshLeaderboardConfig().CacheTTL
	}

	return &RefreshLeaderboardJob{
		progressRepo: progressRepo,
		cache:        cache,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *RefreshLeaderboardJob) Name() string {
	return "refresh_leaderboard"
}

// Description returns a human-readable description.
func (j *RefreshLeaderboardJob) Description() string {
	return "Rebuilds the cached leaderboard from the progression ledger"
}

// Run executes the refresh job.
func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RefreshStats{StartedAt: startedAt}

	j.logger.Debug("starting refresh_leaderboard job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	all, err := j.progressRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list progress records: %w", err)
	}

	stats.TotalLearners = len(all)

	entries := make([]*leaderboard.Entry, 0, len(all))
	for _, p := range all {
		entry, err := leaderboard.NewEntry(
			p.UserID.String(),
			p.DisplayName,
			leaderboard.Coins(p.TotalCoins.Int()),
			p.Level.Int(),
			len(p.CompletedLessonIDs),
		)
		if err != nil {
			// A record that fails entry validation is skipped, not fatal.
			stats.Skipped++
			j.logger.Warn("skipping invalid leaderboard entry",
				"user_id", p.UserID.String(),
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}

	ranked := leaderboard.RankEntries(entries, j.config.TopLimit)

	if j.config.TrackRankChange {
		j.applyRankChanges(ctx, ranked)
	}

	if err := j.cache.SetTop(ctx, ranked, j.config.CacheTTL); err != nil {
		return fmt.Errorf("failed to cache leaderboard: %w", err)
	}

	stats.EntriesCached = len(ranked)
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRefreshStats.Store(stats)

	j.logger.Info("refresh_leaderboard job completed",
		"learners", stats.TotalLearners,
		"cached", stats.EntriesCached,
		"skipped", stats.Skipped,
		"duration_ms", stats.Duration.Milliseconds(),
	)

	return nil
}

// applyRankChanges annotates ranked entries with their movement relative to
// the previously cached top. A cold or unreadable cache leaves every entry
// at zero movement.
func (j *RefreshLeaderboardJob) applyRankChanges(ctx context.Context, ranked []*leaderboard.Entry) {
	prevTop, err := j.cache.GetTop(ctx, j.config.TopLimit)
	if err != nil {
		j.logger.Warn("could not read previous leaderboard for rank changes", "error", err)
		return
	}
	if len(prevTop) == 0 {
		return
	}

	previous := leaderboard.NewSnapshotFromEntries("previous", prevTop)
	current := leaderboard.NewSnapshotFromEntries("current", ranked)
	current.ApplyRankChanges(previous)
}

// LastStats returns statistics from the most recent run, or nil.
func (j *RefreshLeaderboardJob) LastStats() *RefreshStats {
	if v := j.lastRefreshStats.Load(); v != nil {
		return v.(*RefreshStats)
	}
	return nil
}
