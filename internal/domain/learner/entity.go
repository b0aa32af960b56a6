// Package learner содержит доменную модель прогресса пользователя:
// монеты, уровень, пройденные уроки и серию активных дней.
// Это чистый доменный слой без внешних зависимостей (кроме uuid в записях квизов).
package learner

import (
	"fmt"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PassThreshold - минимальная доля правильных ответов для зачёта урока.
	PassThreshold = 0.70

	// MaxDisplayNameLength - максимальная длина отображаемого имени.
	MaxDisplayNameLength = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Progress — агрегат прогресса одного пользователя. Создаётся лениво при
// первом взаимодействии. Инварианты:
//   - Level всегда равен TotalCoins/100 + 1;
//   - TotalCoins никогда не уменьшается;
//   - CompletedLessonIDs только растёт, без дубликатов, порядок вставки сохраняется.
type Progress struct {
	// UserID - идентификатор пользователя, один агрегат на пользователя.
	UserID shared.UserID

	// DisplayName - отображаемое имя на лидерборде.
	DisplayName string

	// PasswordHash - bcrypt-хэш пароля (граница аутентификации).
	PasswordHash string

	// TotalCoins - суммарно заработанные монеты.
	TotalCoins shared.Coins

	// Level - уровень, производный от монет.
	Level shared.Level

	// CompletedLessonIDs - зачтённые уроки в порядке прохождения.
	CompletedLessonIDs []shared.LessonID

	// CurrentStreak - серия календарных дней активности подряд.
	CurrentStreak int

	// Badges - выданные значки (только отображение).
	Badges []string

	// LastActiveDate - момент последней активности (UTC).
	LastActiveDate time.Time

	// Version - версия записи для оптимистичной блокировки.
	Version int64

	// CreatedAt - когда агрегат был создан.
	CreatedAt time.Time

	// UpdatedAt - когда агрегат последний раз менялся.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewProgressParams содержит данные для создания агрегата прогресса.
type NewProgressParams struct {
	UserID       string
	DisplayName  string
	PasswordHash string
	Now          time.Time
}

// NewProgress создаёт новый агрегат прогресса с нулевыми монетами и
// первым уровнем.
func NewProgress(params NewProgressParams) (*Progress, error) {
	userID, err := shared.NewUserID(params.UserID)
	if err != nil {
		return nil, err
	}
	if len(params.DisplayName) > MaxDisplayNameLength {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrValueOutOfRange, "display name too long")
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Progress{
		UserID:             userID,
		DisplayName:        params.DisplayName,
		PasswordHash:       params.PasswordHash,
		TotalCoins:         0,
		Level:              1,
		CompletedLessonIDs: []shared.LessonID{},
		CurrentStreak:      0,
		Badges:             []string{},
		LastActiveDate:     now,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// HasCompleted проверяет, зачтён ли урок.
func (p *Progress) HasCompleted(lessonID shared.LessonID) bool {
	for _, id := range p.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// CompleteLesson добавляет урок в список зачтённых. Повторное добавление
// игнорируется, порядок вставки сохраняется.
func (p *Progress) CompleteLesson(lessonID shared.LessonID) bool {
	if p.HasCompleted(lessonID) {
		return false
	}
	p.CompletedLessonIDs = append(p.CompletedLessonIDs, lessonID)
	return true
}

// AwardCoins начисляет монеты и пересчитывает уровень. Отрицательные
// значения игнорируются: монеты никогда не уменьшаются.
// Возвращает старый и новый уровень.
func (p *Progress) AwardCoins(amount int) (oldLevel, newLevel shared.Level) {
	oldLevel = p.Level
	p.TotalCoins = p.TotalCoins.Add(amount)
	p.Level = p.TotalCoins.Level()
	return oldLevel, p.Level
}

// Touch отмечает активность: обновляет серию дней и момент последней
// активности. Активность в тот же календарный день серию не меняет,
// на следующий день увеличивает, после пропуска сбрасывает до 1.
func (p *Progress) Touch(now time.Time, loc *time.Location) {
	switch timeutil.DaysBetween(p.LastActiveDate, now, loc) {
	case 0:
		if p.CurrentStreak == 0 {
			p.CurrentStreak = 1
		}
	case 1:
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}

	p.LastActiveDate = now
	p.UpdatedAt = now
}

// MarkUpdated обновляет отметку времени изменения.
func (p *Progress) MarkUpdated(now time.Time) {
	p.UpdatedAt = now
}

// Clone возвращает глубокую копию агрегата.
func (p *Progress) Clone() *Progress {
	clone := *p
	clone.CompletedLessonIDs = append([]shared.LessonID(nil), p.CompletedLessonIDs...)
	clone.Badges = append([]string(nil), p.Badges...)
	return &clone
}

// String возвращает краткое строковое представление.
func (p *Progress) String() string {
	return fmt.Sprintf("Progress{user=%s coins=%d level=%d lessons=%d}",
		p.UserID, p.TotalCoins.Int(), p.Level.Int(), len(p.CompletedLessonIDs))
}
