package lesson

import (
	"context"
	"testing"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestNewLesson_Validation(t *testing.T) {
	_, err := NewLesson(NewLessonParams{
		ID:         "basics-test",
		Title:      "",
		Category:   CategoryBasics,
		Difficulty: DifficultyBeginner,
	})
	assert.Error(t, err)

	_, err = NewLesson(NewLessonParams{
		ID:         "basics-test",
		Title:      "Test",
		Category:   Category("nonsense"),
		Difficulty: DifficultyBeginner,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCategory)

	_, err = NewLesson(NewLessonParams{
		ID:         "basics-test",
		Title:      "Test",
		Category:   CategoryBasics,
		Difficulty: DifficultyBeginner,
		CoinReward: -10,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidCoinValue)

	_, err = NewLesson(NewLessonParams{
		ID:         "BAD ID!",
		Title:      "Test",
		Category:   CategoryBasics,
		Difficulty: DifficultyBeginner,
	})
	assert.Error(t, err)
}

func TestStaticCatalog_LookupByID(t *testing.T) {
	catalog := NewSeededCatalog()
	ctx := context.Background()

	l, err := catalog.Lookup(ctx, "loans-emi")
	assert.NoError(t, err)
	assert.Equal(t, "Loans and EMI Explained", l.Title)
	assert.Equal(t, 125, l.CoinReward)
	assert.Equal(t, CategoryLoans, l.Category)
}

func TestStaticCatalog_UnknownLessonIsNotFound(t *testing.T) {
	catalog := NewSeededCatalog()

	_, err := catalog.Lookup(context.Background(), "no-such-lesson")
	assert.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestStaticCatalog_InactiveLessonIsNotFound(t *testing.T) {
	catalog := NewStaticCatalog()
	l, err := NewLesson(NewLessonParams{
		ID:         "basics-hidden",
		Title:      "Hidden",
		Category:   CategoryBasics,
		Difficulty: DifficultyBeginner,
		CoinReward: 10,
	})
	assert.NoError(t, err)
	l.Active = false
	catalog.Add(l)

	_, err = catalog.Lookup(context.Background(), "basics-hidden")
	assert.True(t, shared.IsNotFound(err))

	count, err := catalog.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStaticCatalog_ListPreservesInsertionOrder(t *testing.T) {
	catalog := NewSeededCatalog()

	lessons, err := catalog.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, lessons, 5)
	assert.Equal(t, shared.LessonID("basics-money"), lessons[0].ID)
	assert.Equal(t, shared.LessonID("credit-cards"), lessons[4].ID)
}

func TestDefaultCurriculum_AllEntriesValid(t *testing.T) {
	lessons := DefaultCurriculum()

	assert.Len(t, lessons, 5)
	for _, l := range lessons {
		assert.True(t, l.ID.IsValid())
		assert.True(t, l.Category.IsValid())
		assert.True(t, l.Difficulty.IsValid())
		assert.True(t, l.Active)
		assert.GreaterOrEqual(t, l.CoinReward, 0)
	}
}
