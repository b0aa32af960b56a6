// Package lesson contains the lesson catalog domain: the financial-literacy
// lessons learners study, each carrying a coin reward for passing its quiz.
// Lessons are addressed by stable lesson IDs, never by display title.
package lesson

import (
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Category groups lessons by financial topic.
type Category string

const (
	CategoryBasics   Category = "basics"
	CategorySavings  Category = "savings"
	CategoryInterest Category = "interest"
	CategoryLoans    Category = "loans"
	CategoryCredit   Category = "credit"
)

// IsValid checks if the category is one of the known topics.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBasics, CategorySavings, CategoryInterest, CategoryLoans, CategoryCredit:
		return true
	}
	return false
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Difficulty describes how advanced a lesson is.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid checks if the difficulty is known.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Lesson is one unit of the financial-literacy curriculum.
type Lesson struct {
	// ID - stable lesson identifier, e.g. "loans-emi".
	ID shared.LessonID

	// Title - display title shown to learners.
	Title string

	// Description - short summary of the lesson.
	Description string

	// Category - financial topic of the lesson.
	Category Category

	// Difficulty - how advanced the material is.
	Difficulty Difficulty

	// Content - lesson body (markdown).
	Content string

	// CoinReward - maximum coins for passing the quiz with a perfect score.
	CoinReward int

	// EstimatedTime - minutes a learner typically spends on the lesson.
	EstimatedTime int

	// Active - inactive lessons are hidden and reject quiz submissions.
	Active bool

	// CreatedAt - when the lesson was added to the catalog.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewLessonParams contains everything needed to create a lesson.
type NewLessonParams struct {
	ID            string
	Title         string
	Description   string
	Category      Category
	Difficulty    Difficulty
	Content       string
	CoinReward    int
	EstimatedTime int
}

// NewLesson creates a lesson with full validation.
func NewLesson(params NewLessonParams) (*Lesson, error) {
	id, err := shared.NewLessonID(params.ID)
	if err != nil {
		return nil, err
	}
	if params.Title == "" {
		return nil, shared.NewDomainError("lesson", "Create", shared.ErrEmptyValue, "title is required")
	}
	if !params.Category.IsValid() {
		return nil, shared.ErrInvalidCategory
	}
	if !params.Difficulty.IsValid() {
		return nil, shared.NewDomainError("lesson", "Create", shared.ErrInvalidInput, "invalid difficulty")
	}
	if params.CoinReward < 0 {
		return nil, shared.ErrInvalidCoinValue
	}
	if params.EstimatedTime < 0 {
		return nil, shared.NewDomainError("lesson", "Create", shared.ErrNegativeValue, "estimated time cannot be negative")
	}

	return &Lesson{
		ID:            id,
		Title:         params.Title,
		Description:   params.Description,
		Category:      params.Category,
		Difficulty:    params.Difficulty,
		Content:       params.Content,
		CoinReward:    params.CoinReward,
		EstimatedTime: params.EstimatedTime,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Clone returns a deep copy of the lesson.
func (l *Lesson) Clone() *Lesson {
	clone := *l
	return &clone
}
