// Package memory provides in-memory repository implementations backed by
// mutex-guarded maps. Used for tests and local development without Postgres.
// The CompareAndSet semantics mirror the Postgres implementation exactly,
// which is what makes the concurrency tests meaningful.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STORE
// ══════════════════════════════════════════════════════════════════════════════

// ProgressStore is an in-memory learner.ProgressRepository.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[shared.UserID]*learner.Progress
}

// NewProgressStore creates an empty ProgressStore.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[shared.UserID]*learner.Progress),
	}
}

// GetByUserID returns a copy of the progress record.
func (s *ProgressStore) GetByUserID(_ context.Context, userID shared.UserID) (*learner.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress, ok := s.records[userID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return progress.Clone(), nil
}

// ListAll returns copies of every progress record, ordered by user ID for
// deterministic iteration.
func (s *ProgressStore) ListAll(_ context.Context) ([]*learner.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*learner.Progress, 0, len(s.records))
	for _, progress := range s.records {
		all = append(all, progress.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UserID < all[j].UserID
	})
	return all, nil
}

// Create stores a new progress record.
func (s *ProgressStore) Create(_ context.Context, progress *learner.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[progress.UserID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	s.records[progress.UserID] = progress.Clone()
	return nil
}

// CompareAndSet stores the record only if the caller's Version matches the
// stored Version. On success the stored copy gets Version+1 and the caller's
// record is bumped to match.
func (s *ProgressStore) CompareAndSet(_ context.Context, progress *learner.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[progress.UserID]
	if !ok {
		return shared.ErrProgressNotFound
	}
	if current.Version != progress.Version {
		return shared.ErrProgressConflict
	}

	stored := progress.Clone()
	stored.Version++
	s.records[progress.UserID] = stored
	progress.Version = stored.Version
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

// QuizJournal is an in-memory learner.QuizRecordRepository.
type QuizJournal struct {
	mu      sync.RWMutex
	records []*learner.QuizRecord
}

// NewQuizJournal creates an empty QuizJournal.
func NewQuizJournal() *QuizJournal {
	return &QuizJournal{}
}

// Append adds a quiz attempt record.
func (j *QuizJournal) Append(_ context.Context, record *learner.QuizRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	copied := *record
	j.records = append(j.records, &copied)
	return nil
}

// ListByUser returns the user's attempts, newest first.
func (j *QuizJournal) ListByUser(_ context.Context, userID shared.UserID, limit int) ([]*learner.QuizRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []*learner.QuizRecord
	for i := len(j.records) - 1; i >= 0; i-- {
		if j.records[i].UserID != userID {
			continue
		}
		copied := *j.records[i]
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CountByUser returns how many attempts the user has recorded.
func (j *QuizJournal) CountByUser(_ context.Context, userID shared.UserID) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	count := 0
	for _, record := range j.records {
		if record.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SIMULATION STORE
// ══════════════════════════════════════════════════════════════════════════════

// SimulationStore is an in-memory loan.SimulationRepository.
type SimulationStore struct {
	mu   sync.RWMutex
	runs []*loan.Simulation
}

// NewSimulationStore creates an empty SimulationStore.
func NewSimulationStore() *SimulationStore {
	return &SimulationStore{}
}

// Save stores a simulation record.
func (s *SimulationStore) Save(_ context.Context, sim *loan.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sim
	s.runs = append(s.runs, &copied)
	return nil
}

// ListByUser returns the user's simulations, newest first.
func (s *SimulationStore) ListByUser(_ context.Context, userID shared.UserID, limit int) ([]*loan.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*loan.Simulation
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].UserID != userID {
			continue
		}
		copied := *s.runs[i]
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CountByUser returns how many simulations the user has recorded.
func (s *SimulationStore) CountByUser(_ context.Context, userID shared.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sim := range s.runs {
		if sim.UserID == userID {
			count++
		}
	}
	return count, nil
}
