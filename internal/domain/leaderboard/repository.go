// Package leaderboard содержит доменную модель лидерборда платформы.
package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет контракт горячего пути чтения лидерборда.
// Реализация находится в infrastructure слое (Redis sorted set).
type Cache interface {
	// GetTop возвращает закешированный топ-N.
	// Возвращает nil без ошибки, если кеш пуст.
	GetTop(ctx context.Context, limit int) ([]*Entry, error)

	// SetTop сохраняет топ-N в кеш с TTL.
	SetTop(ctx context.Context, entries []*Entry, ttl time.Duration) error

	// UpdateMember обновляет монеты одного ученика в отсортированном
	// множестве (write-through из леджера).
	UpdateMember(ctx context.Context, entry *Entry) error

	// GetMemberRank возвращает закешированный ранг ученика (1-based).
	// Возвращает 0 без ошибки, если ученика нет в кеше.
	GetMemberRank(ctx context.Context, userID string) (Rank, error)

	// Invalidate сбрасывает весь кеш лидерборда.
	Invalidate(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// QueryOptions содержит опции для запросов к лидерборду.
type QueryOptions struct {
	// Limit - сколько записей вернуть.
	Limit int

	// WithStats - считать ли среднее и медиану по всем участникам.
	WithStats bool
}

// DefaultQueryOptions возвращает опции по умолчанию.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:     20,
		WithStats: false,
	}
}

// WithLimit устанавливает лимит (1..100).
func (o QueryOptions) WithLimit(limit int) QueryOptions {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	o.Limit = limit
	return o
}
