package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustEntry(t *testing.T, userID string, coins int) *Entry {
	t.Helper()
	e, err := NewEntry(userID, "name-"+userID, Coins(coins), int(coins)/100+1, 0)
	assert.NoError(t, err)
	return e
}

func TestRankEntries_SortsByCoinsDescending(t *testing.T) {
	entries := []*Entry{
		mustEntry(t, "low", 50),
		mustEntry(t, "high", 500),
		mustEntry(t, "mid", 200),
	}

	ranked := RankEntries(entries, 10)

	assert.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].UserID)
	assert.Equal(t, "mid", ranked[1].UserID)
	assert.Equal(t, "low", ranked[2].UserID)
	assert.Equal(t, Rank(1), ranked[0].Rank)
	assert.Equal(t, Rank(2), ranked[1].Rank)
	assert.Equal(t, Rank(3), ranked[2].Rank)
}

func TestRankEntries_TieBrokenByUserID(t *testing.T) {
	entries := []*Entry{
		mustEntry(t, "zeta", 300),
		mustEntry(t, "alpha", 300),
		mustEntry(t, "mike", 300),
	}

	ranked := RankEntries(entries, 10)

	assert.Equal(t, "alpha", ranked[0].UserID)
	assert.Equal(t, "mike", ranked[1].UserID)
	assert.Equal(t, "zeta", ranked[2].UserID)

	// Deterministic: same input, same output.
	again := RankEntries(entries, 10)
	for i := range ranked {
		assert.Equal(t, ranked[i].UserID, again[i].UserID)
		assert.Equal(t, ranked[i].Rank, again[i].Rank)
	}
}

func TestRankEntries_TruncatesToLimit(t *testing.T) {
	entries := []*Entry{
		mustEntry(t, "a", 100),
		mustEntry(t, "b", 200),
		mustEntry(t, "c", 300),
		mustEntry(t, "d", 400),
	}

	ranked := RankEntries(entries, 2)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "d", ranked[0].UserID)
	assert.Equal(t, "c", ranked[1].UserID)
}

func TestRankEntries_EmptyAndNonPositiveLimit(t *testing.T) {
	assert.Empty(t, RankEntries(nil, 10))
	assert.Empty(t, RankEntries([]*Entry{mustEntry(t, "a", 10)}, 0))
	assert.Empty(t, RankEntries([]*Entry{mustEntry(t, "a", 10)}, -1))
}

func TestRankEntries_DoesNotMutateInput(t *testing.T) {
	entries := []*Entry{
		mustEntry(t, "b", 100),
		mustEntry(t, "a", 200),
	}

	_ = RankEntries(entries, 10)

	assert.Equal(t, "b", entries[0].UserID)
	assert.Equal(t, Rank(0), entries[0].Rank)
}

func TestRanking_Neighbors(t *testing.T) {
	ranking := NewRanking()
	for _, e := range []*Entry{
		mustEntry(t, "u1", 500),
		mustEntry(t, "u2", 400),
		mustEntry(t, "u3", 300),
		mustEntry(t, "u4", 200),
		mustEntry(t, "u5", 100),
	} {
		assert.NoError(t, ranking.Add(e))
	}
	ranking.SortByCoins()

	neighbors := ranking.Neighbors("u3", 1)
	assert.Len(t, neighbors, 3)
	assert.Equal(t, "u2", neighbors[0].UserID)
	assert.Equal(t, "u3", neighbors[1].UserID)
	assert.Equal(t, "u4", neighbors[2].UserID)
}

func TestRanking_Stats(t *testing.T) {
	ranking := NewRanking()
	for _, e := range []*Entry{
		mustEntry(t, "a", 100),
		mustEntry(t, "b", 200),
		mustEntry(t, "c", 600),
	} {
		assert.NoError(t, ranking.Add(e))
	}
	ranking.SortByCoins()

	assert.Equal(t, Coins(300), ranking.AverageCoins())
	assert.Equal(t, Coins(200), ranking.MedianCoins())
}

func TestSnapshot_ApplyRankChanges(t *testing.T) {
	prev := NewRanking()
	assert.NoError(t, prev.Add(mustEntry(t, "a", 300)))
	assert.NoError(t, prev.Add(mustEntry(t, "b", 200)))
	prev.SortByCoins()
	prevSnap := NewSnapshot("s1", prev)

	curr := NewRanking()
	assert.NoError(t, curr.Add(mustEntry(t, "a", 300)))
	assert.NoError(t, curr.Add(mustEntry(t, "b", 400)))
	assert.NoError(t, curr.Add(mustEntry(t, "c", 100)))
	curr.SortByCoins()
	currSnap := NewSnapshot("s2", curr)

	currSnap.ApplyRankChanges(prevSnap)

	// b moved from rank 2 to rank 1.
	assert.Equal(t, RankChange(1), currSnap.GetByID("b").RankChange)
	// a dropped from rank 1 to rank 2.
	assert.Equal(t, RankChange(-1), currSnap.GetByID("a").RankChange)
	// c is new.
	assert.Equal(t, RankChange(0), currSnap.GetByID("c").RankChange)
}

func TestNewSnapshotFromEntries(t *testing.T) {
	entries := RankEntries([]*Entry{
		mustEntry(t, "a", 300),
		mustEntry(t, "b", 200),
	}, 10)

	snap := NewSnapshotFromEntries("cached", entries)

	assert.Equal(t, 2, snap.Count())
	assert.True(t, snap.Contains("b"))
	assert.Equal(t, Rank(1), snap.GetRank("a"))
	assert.Equal(t, Rank(0), snap.GetRank("missing"))
}
