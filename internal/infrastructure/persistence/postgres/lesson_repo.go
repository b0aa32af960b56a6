package postgres

import (
	"context"
	"fmt"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/lesson"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON CATALOG IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements lesson.Catalog for PostgreSQL. The curriculum
// is edited in the database, so lessons can be added or retired without a
// redeploy. Inactive lessons are invisible to the ledger and the API.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

const lessonColumns = `
	id, title, description, category, difficulty, content,
	coin_reward, estimated_time, active, created_at
`

// Lookup implements lesson.Catalog.
func (r *LessonRepository) Lookup(ctx context.Context, id shared.LessonID) (*lesson.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE id = $1
	`

	var (
		l          lesson.Lesson
		lessonID   string
		category   string
		difficulty string
	)

	err := r.conn.QueryRow(ctx, query, id.String()).Scan(
		&lessonID,
		&l.Title,
		&l.Description,
		&category,
		&difficulty,
		&l.Content,
		&l.CoinReward,
		&l.EstimatedTime,
		&l.Active,
		&l.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	if !l.Active {
		return nil, shared.ErrLessonInactive
	}

	l.ID = shared.LessonID(lessonID)
	l.Category = lesson.Category(category)
	l.Difficulty = lesson.Difficulty(difficulty)

	return &l, nil
}

// List implements lesson.Catalog. Lessons come back in curriculum order.
func (r *LessonRepository) List(ctx context.Context) ([]*lesson.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE active = TRUE
		ORDER BY position ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]*lesson.Lesson, 0)
	for rows.Next() {
		var (
			l          lesson.Lesson
			lessonID   string
			category   string
			difficulty string
		)

		err := rows.Scan(
			&lessonID,
			&l.Title,
			&l.Description,
			&category,
			&difficulty,
			&l.Content,
			&l.CoinReward,
			&l.EstimatedTime,
			&l.Active,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}

		l.ID = shared.LessonID(lessonID)
		l.Category = lesson.Category(category)
		l.Difficulty = lesson.Difficulty(difficulty)
		lessons = append(lessons, &l)
	}

	return lessons, rows.Err()
}

// Count implements lesson.Catalog.
func (r *LessonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM lessons WHERE active = TRUE").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// Seed inserts lessons that are not yet present. Existing rows are left
// untouched so database-side curriculum edits survive restarts.
func (r *LessonRepository) Seed(ctx context.Context, lessons []*lesson.Lesson) error {
	query := `
		INSERT INTO lessons (
			id, title, description, category, difficulty, content,
			coin_reward, estimated_time, active, position, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	for i, l := range lessons {
		_, err := r.conn.Exec(ctx, query,
			l.ID.String(),
			l.Title,
			l.Description,
			string(l.Category),
			string(l.Difficulty),
			l.Content,
			l.CoinReward,
			l.EstimatedTime,
			l.Active,
			i,
			l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to seed lesson %s: %w", l.ID, err)
		}
	}

	return nil
}
