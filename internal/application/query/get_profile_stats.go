package query

import (
	"context"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/lesson"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE STATS QUERY
// Сводная статистика профиля: доля пройденной программы, средний балл
// по квизам, количество симуляций. Собирается из трёх источников.
// ══════════════════════════════════════════════════════════════════════════════

// quizHistoryWindow - сколько последних попыток участвует в среднем балле.
const quizHistoryWindow = 200

// GetProfileStatsQuery содержит параметры запроса статистики.
type GetProfileStatsQuery struct {
	// UserID - идентификатор ученика.
	UserID string
}

// ProfileStatsDTO - сводная статистика профиля.
type ProfileStatsDTO struct {
	// UserID - идентификатор ученика.
	UserID string `json:"user_id"`

	// TotalCoins - суммарно заработанные монеты.
	TotalCoins int `json:"total_coins"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// CompletedLessons - количество зачтённых уроков.
	CompletedLessons int `json:"completed_lessons"`

	// TotalLessons - размер каталога уроков.
	TotalLessons int `json:"total_lessons"`

	// CompletionRatePercent - доля пройденной программы (0-100).
	CompletionRatePercent int `json:"completion_rate_percent"`

	// QuizAttempts - количество попыток квизов.
	QuizAttempts int `json:"quiz_attempts"`

	// AverageQuizScorePercent - средний балл по последним попыткам (0-100).
	AverageQuizScorePercent int `json:"average_quiz_score_percent"`

	// SimulationRuns - количество запусков симулятора кредитов.
	SimulationRuns int `json:"simulation_runs"`

	// CurrentStreak - серия активных дней подряд.
	CurrentStreak int `json:"current_streak"`

	// MemberSince - когда профиль был создан.
	MemberSince time.Time `json:"member_since"`
}

// GetProfileStatsHandler обрабатывает запросы статистики профиля.
type GetProfileStatsHandler struct {
	progressRepo   learner.ProgressRepository
	quizRepo       learner.QuizRecordRepository
	simulationRepo loan.SimulationRepository
	catalog        lesson.Catalog
}

// NewGetProfileStatsHandler создаёт новый обработчик статистики профиля.
func NewGetProfileStatsHandler(
	progressRepo learner.ProgressRepository,
	quizRepo learner.QuizRecordRepository,
	simulationRepo loan.SimulationRepository,
	catalog lesson.Catalog,
) *GetProfileStatsHandler {
	return &GetProfileStatsHandler{
		progressRepo:   progressRepo,
		quizRepo:       quizRepo,
		simulationRepo: simulationRepo,
		catalog:        catalog,
	}
}

// Handle выполняет запрос статистики профиля.
func (h *GetProfileStatsHandler) Handle(ctx context.Context, query GetProfileStatsQuery) (*ProfileStatsDTO, error) {
	userID, err := shared.NewUserID(query.UserID)
	if err != nil {
		return nil, err
	}

	progress, err := h.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalLessons, err := h.catalog.Count(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetProfileStats", shared.ErrServiceUnavailable, "failed to count lessons", err)
	}

	attempts, err := h.quizRepo.ListByUser(ctx, userID, quizHistoryWindow)
	if err != nil {
		return nil, shared.WrapError("query", "GetProfileStats", shared.ErrServiceUnavailable, "failed to load quiz history", err)
	}

	simulationRuns, err := h.simulationRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "GetProfileStats", shared.ErrServiceUnavailable, "failed to count simulations", err)
	}

	completionRate := 0
	if totalLessons > 0 {
		completionRate = len(progress.CompletedLessonIDs) * 100 / totalLessons
	}

	return &ProfileStatsDTO{
		UserID:                  userID.String(),
		TotalCoins:              progress.TotalCoins.Int(),
		Level:                   progress.Level.Int(),
		CompletedLessons:        len(progress.CompletedLessonIDs),
		TotalLessons:            totalLessons,
		CompletionRatePercent:   completionRate,
		QuizAttempts:            len(attempts),
		AverageQuizScorePercent: averageScorePercent(attempts),
		SimulationRuns:          simulationRuns,
		CurrentStreak:           progress.CurrentStreak,
		MemberSince:             progress.CreatedAt,
	}, nil
}

// averageScorePercent считает средний балл по попыткам в процентах.
func averageScorePercent(attempts []*learner.QuizRecord) int {
	if len(attempts) == 0 {
		return 0
	}

	var sum float64
	for _, attempt := range attempts {
		sum += attempt.ScoreRatio()
	}
	return int(sum / float64(len(attempts)) * 100)
}
