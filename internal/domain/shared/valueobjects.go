// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique platform user identifier.
type UserID string

// IsValid checks if the user ID is valid (non-empty, reasonable length).
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) > 0 && len(s) <= 64
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the user ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.TrimSpace(id))
	if !uid.IsValid() {
		return "", ErrInvalidUserID
	}
	return uid, nil
}

// LessonID represents a unique lesson identifier.
type LessonID string

// Lesson ID format: category-name (e.g., "basics-money", "loans-emi").
var lessonIDRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// IsValid checks if the lesson ID format is valid.
func (l LessonID) IsValid() bool {
	s := string(l)
	return len(s) >= 3 && len(s) <= 64 && lessonIDRegex.MatchString(s)
}

// String returns the string representation.
func (l LessonID) String() string {
	return string(l)
}

// Category extracts the category prefix from the lesson ID.
func (l LessonID) Category() string {
	parts := strings.Split(string(l), "-")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// NewLessonID creates a new LessonID with validation.
func NewLessonID(id string) (LessonID, error) {
	lid := LessonID(strings.ToLower(strings.TrimSpace(id)))
	if !lid.IsValid() {
		return "", NewDomainError("shared", "NewLessonID", ErrInvalidID, "invalid lesson ID format")
	}
	return lid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Coins Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Coins represents the gamification currency earned by a learner.
type Coins int

const (
	// Coin boundaries
	MinCoins Coins = 0
	MaxCoins Coins = 10000000 // 10 million coin cap

	// CoinsPerLevel is the amount of coins that advances one level.
	CoinsPerLevel = 100
)

// IsValid checks if the coin value is within valid range.
func (c Coins) IsValid() bool {
	return c >= MinCoins && c <= MaxCoins
}

// Int returns the underlying int value.
func (c Coins) Int() int {
	return int(c)
}

// Add adds coins and returns the result, capped at MaxCoins.
// Coins never go down; negative amounts are ignored.
func (c Coins) Add(amount int) Coins {
	if amount < 0 {
		return c
	}
	result := Coins(int(c) + amount)
	if result > MaxCoins {
		return MaxCoins
	}
	return result
}

// Level calculates the level based on total coins.
// Every 100 coins advances one level, starting from level 1.
func (c Coins) Level() Level {
	if c <= 0 {
		return 1
	}
	return Level(int(c)/CoinsPerLevel + 1)
}

// ProgressToNextLevel returns percentage progress to the next level (0-100).
func (c Coins) ProgressToNextLevel() int {
	if c < 0 {
		return 0
	}
	return int(c) % CoinsPerLevel * 100 / CoinsPerLevel
}

// NewCoins creates a new Coins value with validation.
func NewCoins(amount int) (Coins, error) {
	if amount < int(MinCoins) {
		return 0, NewDomainError("shared", "NewCoins", ErrNegativeValue, "coins cannot be negative")
	}
	if amount > int(MaxCoins) {
		return MaxCoins, nil // Cap at max
	}
	return Coins(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a learner's level.
type Level int

const (
	MinLevel Level = 1
)

// IsValid checks if the level is valid.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredCoins returns the total coins required to reach this level.
func (l Level) RequiredCoins() int {
	if l <= 1 {
		return 0
	}
	return (int(l) - 1) * CoinsPerLevel
}

// Title returns a human-readable title for the level.
func (l Level) Title() string {
	switch {
	case l < 3:
		return "Новичок"
	case l < 5:
		return "Ученик"
	case l < 10:
		return "Практик"
	case l < 20:
		return "Специалист"
	case l < 40:
		return "Эксперт"
	default:
		return "Мастер"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a learner's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the learner is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// Compare returns the difference between two ranks.
// Positive value means improvement (moved up), negative means dropped.
func (r Rank) Compare(other Rank) int {
	return int(other) - int(r)
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
