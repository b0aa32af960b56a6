package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache provides high-performance leaderboard reads using Redis
// Sorted Sets. It implements leaderboard.Cache.
//
// Architecture:
//   - Sorted Set "leaderboard:coins" stores userID -> coins mapping
//   - Hash "leaderboard:info" stores userID -> entry JSON
//
// This design allows O(log N) rank lookups and O(log N + M) range queries.
// Ranks are derived from the sorted set on read, so a write-through of a
// single member keeps every cached rank consistent.
type LeaderboardCache struct {
	cache *Cache
}

// Key names for leaderboard cache.
const (
	// keyLeaderboardCoins is the sorted set keyed by total coins.
	keyLeaderboardCoins = PrefixLeaderboard + "coins"

	// keyLeaderboardInfo is the hash with entry details.
	keyLeaderboardInfo = PrefixLeaderboard + "info"
)

// cachedEntry is the JSON shape stored in the info hash.
// Rank is not stored: it is derived from the sorted set on read.
type cachedEntry struct {
	UserID           string    `json:"user_id"`
	DisplayName      string    `json:"display_name"`
	TotalCoins       int       `json:"total_coins"`
	Level            int       `json:"level"`
	CompletedLessons int       `json:"completed_lessons"`
	RankChange       int       `json:"rank_change,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SetTop stores the full ranked snapshot with a TTL.
func (l *LeaderboardCache) SetTop(ctx context.Context, entries []*leaderboard.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}

	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, keyLeaderboardCoins, keyLeaderboardInfo)

	if len(entries) == 0 {
		_, err := pipe.Exec(ctx)
		return err
	}

	zMembers := make([]redis.Z, 0, len(entries))
	hashData := make(map[string]interface{}, len(entries))

	for _, entry := range entries {
		if entry == nil || entry.UserID == "" {
			continue
		}

		zMembers = append(zMembers, redis.Z{
			Score:  float64(entry.TotalCoins),
			Member: entry.UserID,
		})

		data, err := json.Marshal(fromDomainEntry(entry))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		hashData[entry.UserID] = data
	}

	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardCoins, zMembers...)
	}
	if len(hashData) > 0 {
		pipe.HSet(ctx, keyLeaderboardInfo, hashData)
	}

	pipe.Expire(ctx, keyLeaderboardCoins, ttl)
	pipe.Expire(ctx, keyLeaderboardInfo, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// UpdateMember updates or adds a single member. This is the write-through
// path from the progression ledger, an O(log N) operation.
func (l *LeaderboardCache) UpdateMember(ctx context.Context, entry *leaderboard.Entry) error {
	if entry == nil || entry.UserID == "" {
		return ErrUserIDEmpty
	}

	data, err := json.Marshal(fromDomainEntry(entry))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	pipe := l.cache.Client().Pipeline()

	pipe.ZAdd(ctx, keyLeaderboardCoins, redis.Z{
		Score:  float64(entry.TotalCoins),
		Member: entry.UserID,
	})
	pipe.HSet(ctx, keyLeaderboardInfo, entry.UserID, data)
	pipe.Expire(ctx, keyLeaderboardCoins, TTLLeaderboardCache)
	pipe.Expire(ctx, keyLeaderboardInfo, TTLLeaderboardCache)

	_, err = pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTop returns the cached top-N entries with ranks populated.
// Returns nil without error when the cache is cold.
func (l *LeaderboardCache) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Descending by coins. Redis orders ties by member in reverse, the
	// opposite of the ranking contract, so entries are re-ranked below.
	userIDs, err := l.cache.Client().ZRevRange(ctx, keyLeaderboardCoins, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	data, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(userIDs))
	for _, v := range data {
		str, ok := v.(string)
		if !ok {
			// Sorted set and hash fell out of sync, treat as a miss
			// so the caller rebuilds from the database.
			return nil, nil
		}

		var cached cachedEntry
		if err := json.Unmarshal([]byte(str), &cached); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}

		entries = append(entries, toDomainEntry(cached))
	}

	return leaderboard.RankEntries(entries, limit), nil
}

// GetMemberRank returns the cached 1-based rank of a learner.
// Returns 0 without error when the learner is not cached.
func (l *LeaderboardCache) GetMemberRank(ctx context.Context, userID string) (leaderboard.Rank, error) {
	if userID == "" {
		return 0, ErrUserIDEmpty
	}

	rank, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardCoins, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return leaderboard.Rank(rank + 1), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Invalidate removes all cached leaderboard data.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, keyLeaderboardCoins, keyLeaderboardInfo)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func fromDomainEntry(e *leaderboard.Entry) cachedEntry {
	return cachedEntry{
		UserID:           e.UserID,
		DisplayName:      e.DisplayName,
		TotalCoins:       int(e.TotalCoins),
		Level:            e.Level,
		CompletedLessons: e.CompletedLessons,
		RankChange:       int(e.RankChange),
		UpdatedAt:        e.UpdatedAt,
	}
}

func toDomainEntry(c cachedEntry) *leaderboard.Entry {
	// Direct initialization: cache data was validated before it was written.
	return &leaderboard.Entry{
		UserID:           c.UserID,
		DisplayName:      c.DisplayName,
		TotalCoins:       leaderboard.Coins(c.TotalCoins),
		Level:            c.Level,
		CompletedLessons: c.CompletedLessons,
		RankChange:       leaderboard.RankChange(c.RankChange),
		UpdatedAt:        c.UpdatedAt,
	}
}
