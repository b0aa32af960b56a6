package learner

import (
	"context"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository — хранилище агрегатов прогресса с оптимистичной
// блокировкой по Version.
type ProgressRepository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Чтение
	// ─────────────────────────────────────────────────────────────────────────

	// GetByUserID возвращает прогресс пользователя.
	// Возвращает NotFound, если записи ещё нет.
	GetByUserID(ctx context.Context, userID shared.UserID) (*Progress, error)

	// ListAll возвращает все записи прогресса (снимок для лидерборда).
	ListAll(ctx context.Context) ([]*Progress, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Запись
	// ─────────────────────────────────────────────────────────────────────────

	// Create сохраняет новый агрегат. Возвращает AlreadyExists, если
	// запись для пользователя уже создана.
	Create(ctx context.Context, progress *Progress) error

	// CompareAndSet сохраняет изменённый агрегат, только если его Version
	// совпадает с версией в хранилище; при успехе версия увеличивается.
	// Возвращает ErrConcurrentModification при несовпадении версии.
	CompareAndSet(ctx context.Context, progress *Progress) error
}

// QuizRecordRepository — журнал попыток квизов, только добавление.
type QuizRecordRepository interface {
	// Append добавляет запись попытки.
	Append(ctx context.Context, record *QuizRecord) error

	// ListByUser возвращает попытки пользователя, новые первыми.
	ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]*QuizRecord, error)

	// CountByUser возвращает количество попыток пользователя.
	CountByUser(ctx context.Context, userID shared.UserID) (int, error)
}
