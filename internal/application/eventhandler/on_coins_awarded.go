// Package eventhandler содержит обработчики доменных событий.
// Эти обработчики реализуют event-driven архитектуру и связывают
// различные части системы через асинхронные события.
//
// Философия: запись в леджер — источник истины, а обработчики
// событий поддерживают производные представления (кеш лидерборда)
// в актуальном состоянии, не замедляя основной путь записи.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COINS AWARDED HANDLER
// Обрабатывает событие начисления монет ученику.
//
// Write-through в кеш лидерборда: после каждого начисления монет
// обновляем позицию ученика в Redis sorted set, чтобы горячий путь
// чтения лидерборда не ждал следующего пересчёта из базы.
// ═══════════════════════════════════════════════════════════════════════════

// OnCoinsAwardedHandler обрабатывает событие начисления монет.
// Проталкивает новый баланс ученика в кеш лидерборда.
type OnCoinsAwardedHandler struct {
	// Dependencies (интерфейсы из domain layer)
	progressRepo learner.ProgressRepository
	cache        leaderboard.Cache

	// Logger для структурированного логирования
	logger *slog.Logger

	// Configuration
	config CoinsAwardedConfig
}

// CoinsAwardedConfig содержит конфигурацию обработчика.
type CoinsAwardedConfig struct {
	// UpdateTimeout — максимальное время на обновление кеша.
	// Обработчик вызывается из пула воркеров диспетчера, поэтому
	// долгие операции задерживают остальные события.
	UpdateTimeout time.Duration

	// InvalidateOnError — сбрасывать ли весь кеш, если точечное
	// обновление не удалось. Лучше пустой кеш, чем устаревший ранг.
	InvalidateOnError bool
}

// DefaultCoinsAwardedConfig возвращает конфигурацию по умолчанию.
func DefaultCoinsAwardedConfig() CoinsAwardedConfig {
	return CoinsAwardedConfig{
		UpdateTimeout:     3 * time.Second,
		InvalidateOnError: true,
	}
}

// NewOnCoinsAwardedHandler создаёт обработчик события начисления монет.
func NewOnCoinsAwardedHandler(
	progressRepo learner.ProgressRepository,
	cache leaderboard.Cache,
	logger *slog.Logger,
	config CoinsAwardedConfig,
) *OnCoinsAwardedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = DefaultCoinsAwardedConfig().UpdateTimeout
	}

	return &OnCoinsAwardedHandler{
		progressRepo: progressRepo,
		cache:        cache,
		logger:       logger.With("handler", "on_coins_awarded"),
		config:       config,
	}
}

// Handle реализует shared.EventHandler.
// Читает актуальный агрегат прогресса и обновляет запись ученика
// в кеше лидерборда. Событие несёт сумму и новый баланс, но для
// кеша нужны ещё имя, уровень и число уроков, поэтому читаем агрегат.
func (h *OnCoinsAwardedHandler) Handle(event shared.Event) error {
	awarded, ok := event.(shared.CoinsAwardedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.UpdateTimeout)
	defer cancel()

	userID, err := shared.NewUserID(awarded.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id in event: %w", err)
	}

	progress, err := h.progressRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load progress for cache update: %w", err)
	}

	entry, err := leaderboard.NewEntry(
		progress.UserID.String(),
		progress.DisplayName,
		leaderboard.Coins(progress.TotalCoins.Int()),
		progress.Level.Int(),
		len(progress.CompletedLessonIDs),
	)
	if err != nil {
		return fmt.Errorf("build leaderboard entry: %w", err)
	}

	if err := h.cache.UpdateMember(ctx, entry); err != nil {
		h.logger.Warn("leaderboard cache write-through failed",
			"user_id", awarded.UserID,
			"amount", awarded.Amount,
			"error", err)

		if h.config.InvalidateOnError {
			if invErr := h.cache.Invalidate(ctx); invErr != nil {
				h.logger.Error("leaderboard cache invalidation failed",
					"error", invErr)
			}
		}
		return fmt.Errorf("update leaderboard member: %w", err)
	}

	h.logger.Debug("leaderboard cache updated",
		"user_id", awarded.UserID,
		"new_total", awarded.NewTotal,
		"source", awarded.Source)

	return nil
}
