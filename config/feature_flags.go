package config

import (
	"errors"
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags управляет функциональными переключателями и поэтапными
// раскатками: игровые механики сначала проверяются на части учеников.
// Переключатели читаются при старте из переменных окружения и могут
// меняться на лету через SetRolloutPercent.
type FeatureFlags struct {
	mu            sync.RWMutex
	features      map[string]*Feature
	userOverrides map[string]map[string]bool
}

// Feature is one toggle with its rollout state.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// RolloutPercent is 0-100; learners are bucketed by a hash of
	// their ID so assignment is stable between requests.
	RolloutPercent int
}

// FeatureContext carries the evaluation context.
type FeatureContext struct {
	UserID  string
	IsAdmin bool
}

// Feature names.
const (
	FeatureLeaderboardCache      = "leaderboard.cache"       // Serve top-N from Redis
	FeatureLeaderboardStats      = "leaderboard.stats"       // Average/median coin stats
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // Track rank movement between refreshes

	FeatureGamificationStreaks = "gamification.streaks" // Daily streaks
	FeatureGamificationBadges  = "gamification.badges"  // Badges for milestones

	FeatureLoansCompare         = "loans.compare"          // Bank offer comparison
	FeatureLoansSimulationBonus = "loans.simulation_bonus" // Coin bonus for simulator runs
)

var (
	ErrFeatureNotFound       = errors.New("feature not found")
	ErrInvalidRolloutPercent = errors.New("rollout percent must be 0-100")
)

// LoadFeatureFlags builds the catalog and applies environment overrides.
// Override format: FEATURE_<NAME>=true|false|<percent>, with dots in
// the feature name replaced by underscores, e.g.
// FEATURE_LEADERBOARD_RANK_CHANGE=true.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	add := func(name, description string, enabled bool) {
		percent := 0
		if enabled {
			percent = 100
		}
		ff.features[name] = &Feature{
			Name:           name,
			Description:    description,
			Enabled:        enabled,
			RolloutPercent: percent,
		}
	}

	add(FeatureLeaderboardCache, "Serve leaderboard top-N from Redis", true)
	add(FeatureLeaderboardStats, "Expose average and median coin statistics", true)
	add(FeatureLeaderboardRankChange, "Track rank movement between cache refreshes", true)
	add(FeatureGamificationStreaks, "Track daily activity streaks", true)
	add(FeatureGamificationBadges, "Award badges for milestones", true)
	add(FeatureLoansCompare, "Compare bank loan offers", true)
	add(FeatureLoansSimulationBonus, "Award coins for loan simulator runs", true)

	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			feature.RolloutPercent = 0
			if b {
				feature.RolloutPercent = 100
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey: "leaderboard.cache" -> "FEATURE_LEADERBOARD_CACHE".
func featureNameToEnvKey(name string) string {
	return "FEATURE_" + strings.ReplaceAll(strings.ToUpper(name), ".", "_")
}

// IsEnabled evaluates a flag for the given context. A nil context
// evaluates the flag globally: enabled only at full rollout.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.UserID != "" {
		if overrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}
	if ctx != nil && ctx.IsAdmin {
		return true
	}
	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return inRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}
	return feature.RolloutPercent >= 100
}

// inRollout buckets a learner into 0-99 by a stable hash.
func inRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	return int(h.Sum32()%100) < percent
}

// SetUserOverride pins a flag for one learner, for testing and support.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// SetRolloutPercent live-updates a flag's rollout.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}
	feature.RolloutPercent = percent
	feature.Enabled = percent > 0
	return nil
}

// GetAllFeatures returns a copy of the catalog.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}
