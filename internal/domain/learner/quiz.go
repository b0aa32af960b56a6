package learner

import (
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ RECORD ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// QuizRecord — неизменяемая запись одной попытки квиза. Добавляется при
// каждой попытке, включая провалы и повторные прохождения.
type QuizRecord struct {
	// ID - уникальный идентификатор попытки.
	ID uuid.UUID

	// UserID - кто проходил квиз.
	UserID shared.UserID

	// LessonID - урок, к которому относится квиз.
	LessonID shared.LessonID

	// Score - количество правильных ответов.
	Score int

	// TotalQuestions - всего вопросов в квизе.
	TotalQuestions int

	// Passed - достигнут ли порог прохождения.
	Passed bool

	// CoinsEarned - фактически начисленные монеты за эту попытку.
	CoinsEarned int

	// TimeSpent - сколько времени заняла попытка (0, если неизвестно).
	TimeSpent time.Duration

	// RecordedAt - момент записи попытки.
	RecordedAt time.Time
}

// ScoreRatio возвращает долю правильных ответов (0..1).
func (r *QuizRecord) ScoreRatio() float64 {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return float64(r.Score) / float64(r.TotalQuestions)
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewQuizRecordParams содержит данные одной попытки квиза.
type NewQuizRecordParams struct {
	UserID         shared.UserID
	LessonID       shared.LessonID
	Score          int
	TotalQuestions int
	CoinsEarned    int
	TimeSpent      time.Duration
	Now            time.Time
}

// NewQuizRecord создаёт запись попытки с валидацией.
// Passed вычисляется из доли правильных ответов и порога PassThreshold;
// граница включается: ровно 70% — это зачёт.
func NewQuizRecord(params NewQuizRecordParams) (*QuizRecord, error) {
	if err := ValidateQuizSubmission(params.Score, params.TotalQuestions); err != nil {
		return nil, err
	}
	if params.UserID.IsEmpty() {
		return nil, shared.ErrInvalidUserID
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &QuizRecord{
		ID:             uuid.New(),
		UserID:         params.UserID,
		LessonID:       params.LessonID,
		Score:          params.Score,
		TotalQuestions: params.TotalQuestions,
		Passed:         IsPassing(params.Score, params.TotalQuestions),
		CoinsEarned:    params.CoinsEarned,
		TimeSpent:      params.TimeSpent,
		RecordedAt:     now,
	}, nil
}

// ValidateQuizSubmission проверяет сырые данные попытки до любых побочных
// эффектов.
func ValidateQuizSubmission(score, totalQuestions int) error {
	if totalQuestions <= 0 {
		return shared.NewDomainError("learner", "SubmitQuiz", shared.ErrValueOutOfRange, "total questions must be positive")
	}
	if score < 0 || score > totalQuestions {
		return shared.NewDomainError("learner", "SubmitQuiz", shared.ErrValueOutOfRange, "score must be between 0 and total questions")
	}
	return nil
}

// QuizReward вычисляет монеты за попытку: floor(reward * ratio) при зачёте
// нового урока, иначе 0. Целочисленная арифметика даёт точный floor без
// погрешностей float64.
func QuizReward(coinReward, score, totalQuestions int, alreadyCompleted bool) int {
	if alreadyCompleted || totalQuestions <= 0 {
		return 0
	}
	if !IsPassing(score, totalQuestions) {
		return 0
	}
	return coinReward * score / totalQuestions
}

// IsPassing проверяет порог прохождения без float64: score/total >= 70/100.
func IsPassing(score, totalQuestions int) bool {
	if totalQuestions <= 0 {
		return false
	}
	return score*100 >= totalQuestions*70
}
