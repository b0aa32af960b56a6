// Package postgres implements PostgreSQL persistence layer for Qarzhy Learning Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements learner.ProgressRepository for PostgreSQL.
// Optimistic locking: CompareAndSet bumps the version column only when the
// stored version matches the aggregate's, so two concurrent quiz submissions
// cannot overwrite each other's coins.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `
	user_id, display_name, password_hash, total_coins, level,
	completed_lesson_ids, current_streak, badges, last_active_date,
	version, created_at, updated_at
`

// ─────────────────────────────────────────────────────────────────────────────
// Read Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetByUserID returns the progress aggregate for a learner.
func (r *ProgressRepository) GetByUserID(ctx context.Context, userID shared.UserID) (*learner.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM user_progress
		WHERE user_id = $1
	`

	row := r.conn.QueryRow(ctx, query, userID.String())
	return r.scanProgress(row)
}

// ListAll returns every progress record ordered by user ID.
// The leaderboard snapshot is built from this.
func (r *ProgressRepository) ListAll(ctx context.Context) ([]*learner.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM user_progress
		ORDER BY user_id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress records: %w", err)
	}
	defer rows.Close()

	records := make([]*learner.Progress, 0)
	for rows.Next() {
		p, err := r.scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}

	return records, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Write Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a new progress aggregate.
func (r *ProgressRepository) Create(ctx context.Context, p *learner.Progress) error {
	query := `
		INSERT INTO user_progress (
			user_id, display_name, password_hash, total_coins, level,
			completed_lesson_ids, current_streak, badges, last_active_date,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	lessonsJSON, badgesJSON, err := marshalProgressLists(p)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		p.UserID.String(),
		p.DisplayName,
		p.PasswordHash,
		p.TotalCoins.Int(),
		p.Level.Int(),
		lessonsJSON,
		p.CurrentStreak,
		badgesJSON,
		p.LastActiveDate,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create progress record: %w", err)
	}

	return nil
}

// CompareAndSet saves the aggregate only if the stored version matches.
// On success the aggregate's Version is advanced to the stored value.
func (r *ProgressRepository) CompareAndSet(ctx context.Context, p *learner.Progress) error {
	query := `
		UPDATE user_progress SET
			display_name = $1,
			password_hash = $2,
			total_coins = $3,
			level = $4,
			completed_lesson_ids = $5,
			current_streak = $6,
			badges = $7,
			last_active_date = $8,
			version = version + 1,
			updated_at = $9
		WHERE user_id = $10 AND version = $11
	`

	lessonsJSON, badgesJSON, err := marshalProgressLists(p)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		p.DisplayName,
		p.PasswordHash,
		p.TotalCoins.Int(),
		p.Level.Int(),
		lessonsJSON,
		p.CurrentStreak,
		badgesJSON,
		p.LastActiveDate,
		time.Now().UTC(),
		p.UserID.String(),
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress record: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or someone committed first.
		exists, err := r.exists(ctx, p.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrProgressNotFound
		}
		return shared.ErrProgressConflict
	}

	p.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProgressRepository) exists(ctx context.Context, userID shared.UserID) (bool, error) {
	var found bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_progress WHERE user_id = $1)",
		userID.String(),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check progress existence: %w", err)
	}
	return found, nil
}

func (r *ProgressRepository) scanProgress(row pgx.Row) (*learner.Progress, error) {
	var (
		p           learner.Progress
		userID      string
		coins       int
		level       int
		lessonsJSON []byte
		badgesJSON  []byte
	)

	err := row.Scan(
		&userID,
		&p.DisplayName,
		&p.PasswordHash,
		&coins,
		&level,
		&lessonsJSON,
		&p.CurrentStreak,
		&badgesJSON,
		&p.LastActiveDate,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to scan progress record: %w", err)
	}

	p.UserID = shared.UserID(userID)
	p.TotalCoins = shared.Coins(coins)
	p.Level = shared.Level(level)

	var lessonIDs []string
	if err := json.Unmarshal(lessonsJSON, &lessonIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed lessons: %w", err)
	}
	p.CompletedLessonIDs = make([]shared.LessonID, len(lessonIDs))
	for i, id := range lessonIDs {
		p.CompletedLessonIDs[i] = shared.LessonID(id)
	}

	if err := json.Unmarshal(badgesJSON, &p.Badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}

	return &p, nil
}

// marshalProgressLists serializes the insertion-ordered lesson list and
// badges as JSONB payloads.
func marshalProgressLists(p *learner.Progress) ([]byte, []byte, error) {
	lessonIDs := make([]string, len(p.CompletedLessonIDs))
	for i, id := range p.CompletedLessonIDs {
		lessonIDs[i] = id.String()
	}

	lessonsJSON, err := json.Marshal(lessonIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal completed lessons: %w", err)
	}

	badges := p.Badges
	if badges == nil {
		badges = []string{}
	}
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal badges: %w", err)
	}

	return lessonsJSON, badgesJSON, nil
}
