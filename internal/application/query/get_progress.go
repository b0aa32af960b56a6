package query

import (
	"context"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Получает прогресс одного ученика: монеты, уровень, зачтённые уроки.
// Прогресс создаётся лениво записью, поэтому отсутствие записи - это
// нормальный ответ NotFound, а не ошибка системы.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// UserID - идентификатор ученика.
	UserID string
}

// ProgressDTO - DTO прогресса ученика.
type ProgressDTO struct {
	// UserID - идентификатор ученика.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// TotalCoins - суммарно заработанные монеты.
	TotalCoins int `json:"total_coins"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// LevelTitle - название уровня.
	LevelTitle string `json:"level_title"`

	// LevelProgressPercent - прогресс внутри текущего уровня (0-100).
	LevelProgressPercent int `json:"level_progress_percent"`

	// CompletedLessonIDs - зачтённые уроки в порядке прохождения.
	CompletedLessonIDs []string `json:"completed_lesson_ids"`

	// CurrentStreak - серия активных дней подряд.
	CurrentStreak int `json:"current_streak"`

	// Badges - выданные значки.
	Badges []string `json:"badges"`

	// LastActiveDate - момент последней активности.
	LastActiveDate time.Time `json:"last_active_date"`

	// CreatedAt - когда профиль был создан.
	CreatedAt time.Time `json:"created_at"`
}

// GetProgressHandler обрабатывает запросы прогресса.
type GetProgressHandler struct {
	progressRepo learner.ProgressRepository
}

// NewGetProgressHandler создаёт новый обработчик запроса прогресса.
func NewGetProgressHandler(progressRepo learner.ProgressRepository) *GetProgressHandler {
	return &GetProgressHandler{progressRepo: progressRepo}
}

// Handle выполняет запрос прогресса.
// Возвращает NotFound, если ученик ещё ни с чем не взаимодействовал.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*ProgressDTO, error) {
	userID, err := shared.NewUserID(query.UserID)
	if err != nil {
		return nil, err
	}

	progress, err := h.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return toProgressDTO(progress), nil
}

// toProgressDTO конвертирует агрегат прогресса в DTO.
func toProgressDTO(progress *learner.Progress) *ProgressDTO {
	lessonIDs := make([]string, len(progress.CompletedLessonIDs))
	for i, id := range progress.CompletedLessonIDs {
		lessonIDs[i] = id.String()
	}

	badges := progress.Badges
	if badges == nil {
		badges = []string{}
	}

	return &ProgressDTO{
		UserID:               progress.UserID.String(),
		DisplayName:          progress.DisplayName,
		TotalCoins:           progress.TotalCoins.Int(),
		Level:                progress.Level.Int(),
		LevelTitle:           progress.Level.Title(),
		LevelProgressPercent: progress.TotalCoins.ProgressToNextLevel(),
		CompletedLessonIDs:   lessonIDs,
		CurrentStreak:        progress.CurrentStreak,
		Badges:               badges,
		LastActiveDate:       progress.LastActiveDate,
		CreatedAt:            progress.CreatedAt,
	}
}
