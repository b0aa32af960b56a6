package lesson

import (
	"context"
	"sync"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Catalog resolves lessons by ID. The progression ledger depends on this
// to validate quiz submissions and to read coin rewards.
type Catalog interface {
	// Lookup returns the lesson for the given ID.
	// Returns a NotFound error for unknown or inactive lessons.
	Lookup(ctx context.Context, id shared.LessonID) (*Lesson, error)

	// List returns all active lessons.
	List(ctx context.Context) ([]*Lesson, error)

	// Count returns the number of active lessons.
	Count(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATIC CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// StaticCatalog is an in-memory Catalog seeded at startup. Used as the
// default curriculum source and in tests.
type StaticCatalog struct {
	mu      sync.RWMutex
	lessons map[shared.LessonID]*Lesson
	order   []shared.LessonID
}

// NewStaticCatalog creates an empty static catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		lessons: make(map[shared.LessonID]*Lesson),
	}
}

// NewSeededCatalog creates a static catalog preloaded with the default
// curriculum.
func NewSeededCatalog() *StaticCatalog {
	c := NewStaticCatalog()
	for _, l := range DefaultCurriculum() {
		c.Add(l)
	}
	return c
}

// Add registers a lesson, replacing any lesson with the same ID.
func (c *StaticCatalog) Add(l *Lesson) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.lessons[l.ID]; !exists {
		c.order = append(c.order, l.ID)
	}
	c.lessons[l.ID] = l.Clone()
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(_ context.Context, id shared.LessonID) (*Lesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	if !l.Active {
		return nil, shared.ErrLessonInactive
	}
	return l.Clone(), nil
}

// List implements Catalog. Lessons come back in insertion order.
func (c *StaticCatalog) List(_ context.Context) ([]*Lesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Lesson, 0, len(c.order))
	for _, id := range c.order {
		if l := c.lessons[id]; l.Active {
			result = append(result, l.Clone())
		}
	}
	return result, nil
}

// Count implements Catalog.
func (c *StaticCatalog) Count(ctx context.Context) (int, error) {
	lessons, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(lessons), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT CURRICULUM
// ══════════════════════════════════════════════════════════════════════════════

// DefaultCurriculum returns the built-in lesson set.
func DefaultCurriculum() []*Lesson {
	specs := []NewLessonParams{
		{
			ID:            "basics-money",
			Title:         "Understanding Money Basics",
			Description:   "Learn what money is, how it works, and why budgeting matters",
			Category:      CategoryBasics,
			Difficulty:    DifficultyBeginner,
			Content:       "Money is a medium of exchange. A budget tracks income against expenses so spending stays intentional.",
			CoinReward:    50,
			EstimatedTime: 10,
		},
		{
			ID:            "savings-power",
			Title:         "The Power of Saving",
			Description:   "Why saving early beats saving more, and how an emergency fund protects you",
			Category:      CategorySavings,
			Difficulty:    DifficultyBeginner,
			Content:       "Saving a fixed share of every income builds a cushion. Three to six months of expenses is a healthy emergency fund.",
			CoinReward:    75,
			EstimatedTime: 15,
		},
		{
			ID:            "interest-compound",
			Title:         "Understanding Interest",
			Description:   "Simple vs compound interest and how both work for or against you",
			Category:      CategoryInterest,
			Difficulty:    DifficultyIntermediate,
			Content:       "Compound interest earns interest on interest. The same mechanism that grows deposits inflates unpaid debt.",
			CoinReward:    100,
			EstimatedTime: 20,
		},
		{
			ID:            "loans-emi",
			Title:         "Loans and EMI Explained",
			Description:   "How equated monthly installments are calculated and what drives the interest cost",
			Category:      CategoryLoans,
			Difficulty:    DifficultyIntermediate,
			Content:       "An EMI splits each payment between interest on the remaining balance and principal repayment. Early payments are mostly interest.",
			CoinReward:    125,
			EstimatedTime: 25,
		},
		{
			ID:            "credit-cards",
			Title:         "Credit Cards: Benefits and Risks",
			Description:   "Grace periods, minimum payments, and how revolving debt compounds",
			Category:      CategoryCredit,
			Difficulty:    DifficultyAdvanced,
			Content:       "Paying the full statement balance inside the grace period costs nothing. Carrying a balance turns the card into an expensive loan.",
			CoinReward:    100,
			EstimatedTime: 20,
		},
	}

	lessons := make([]*Lesson, 0, len(specs))
	for _, spec := range specs {
		l, err := NewLesson(spec)
		if err != nil {
			// Built-in curriculum is validated by tests; a broken entry is a
			// programmer error.
			panic(err)
		}
		lessons = append(lessons, l)
	}
	return lessons
}
