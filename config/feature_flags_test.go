package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureLeaderboardCache, nil))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardRankChange, nil))
	assert.True(t, ff.IsEnabled(FeatureLoansSimulationBonus, nil))
	assert.False(t, ff.IsEnabled("unknown.flag", nil))
}

func TestLoadFeatureFlags_EnvironmentOverride(t *testing.T) {
	t.Setenv("FEATURE_LEADERBOARD_RANK_CHANGE", "false")
	t.Setenv("FEATURE_GAMIFICATION_BADGES", "40")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureLeaderboardRankChange, nil))

	// Partial rollout: globally off, per-learner by stable bucket.
	assert.False(t, ff.IsEnabled(FeatureGamificationBadges, nil))
	ctx := &FeatureContext{UserID: "aruzhan"}
	first := ff.IsEnabled(FeatureGamificationBadges, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureGamificationBadges, ctx))
	}
}

func TestFeatureFlags_AdminSeesEverything(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureLoansCompare, 0))

	assert.False(t, ff.IsEnabled(FeatureLoansCompare, nil))
	assert.True(t, ff.IsEnabled(FeatureLoansCompare, &FeatureContext{UserID: "daniyar", IsAdmin: true}))
}

func TestFeatureFlags_UserOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureGamificationStreaks, 0))

	ff.SetUserOverride("aruzhan", FeatureGamificationStreaks, true)

	assert.True(t, ff.IsEnabled(FeatureGamificationStreaks, &FeatureContext{UserID: "aruzhan"}))
	assert.False(t, ff.IsEnabled(FeatureGamificationStreaks, &FeatureContext{UserID: "daniyar"}))
}

func TestFeatureFlags_SetRolloutPercentValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("unknown.flag", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureLoansCompare, 150), ErrInvalidRolloutPercent)

	require.NoError(t, ff.SetRolloutPercent(FeatureLoansCompare, 100))
	assert.True(t, ff.IsEnabled(FeatureLoansCompare, nil))
}
