package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ RECORD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// QuizRecordRepository implements learner.QuizRecordRepository for PostgreSQL.
// The quiz_attempts table is append-only: every attempt is journaled, whether
// it passed, failed, or repeated an already-completed lesson.
type QuizRecordRepository struct {
	conn *Connection
}

// NewQuizRecordRepository creates a new QuizRecordRepository.
func NewQuizRecordRepository(conn *Connection) *QuizRecordRepository {
	return &QuizRecordRepository{conn: conn}
}

// Append journals one quiz attempt.
func (r *QuizRecordRepository) Append(ctx context.Context, record *learner.QuizRecord) error {
	query := `
		INSERT INTO quiz_attempts (
			id, user_id, lesson_id, score, total_questions,
			passed, coins_earned, time_spent_ms, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.UserID.String(),
		record.LessonID.String(),
		record.Score,
		record.TotalQuestions,
		record.Passed,
		record.CoinsEarned,
		record.TimeSpent.Milliseconds(),
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append quiz attempt: %w", err)
	}

	return nil
}

// ListByUser returns a learner's attempts, newest first.
func (r *QuizRecordRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]*learner.QuizRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, lesson_id, score, total_questions,
			   passed, coins_earned, time_spent_ms, recorded_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz attempts: %w", err)
	}
	defer rows.Close()

	records := make([]*learner.QuizRecord, 0)
	for rows.Next() {
		var (
			rec         learner.QuizRecord
			uid         string
			lid         string
			timeSpentMS int64
		)

		err := rows.Scan(
			&rec.ID,
			&uid,
			&lid,
			&rec.Score,
			&rec.TotalQuestions,
			&rec.Passed,
			&rec.CoinsEarned,
			&timeSpentMS,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
		}

		rec.UserID = shared.UserID(uid)
		rec.LessonID = shared.LessonID(lid)
		rec.TimeSpent = time.Duration(timeSpentMS) * time.Millisecond
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// CountByUser returns how many attempts a learner has journaled.
func (r *QuizRecordRepository) CountByUser(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1",
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quiz attempts: %w", err)
	}
	return count, nil
}
