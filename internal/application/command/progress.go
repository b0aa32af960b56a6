package command

import (
	"context"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// loadOrCreateProgress returns the learner's progress, creating an empty
// record on first contact. A concurrent creator winning the race is fine:
// the record is re-read.
func loadOrCreateProgress(
	ctx context.Context,
	repo learner.ProgressRepository,
	userID shared.UserID,
	now time.Time,
) (*learner.Progress, error) {
	progress, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return progress, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	fresh, err := learner.NewProgress(learner.NewProgressParams{
		UserID: userID.String(),
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	if err := repo.Create(ctx, fresh); err != nil {
		if shared.IsAlreadyExists(err) {
			return repo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return fresh, nil
}
