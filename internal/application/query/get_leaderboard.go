// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/leaderboard"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N учеников по монетам. Горячий путь - Redis sorted set,
// холодный - пересборка рейтинга из снимка всех записей прогресса.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// WithStats - включать ли среднее и медиану по всем участникам.
	WithStats bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи лидерборда (Data Transfer Object).
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - идентификатор ученика.
	UserID string `json:"user_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// TotalCoins - суммарно заработанные монеты.
	TotalCoins int `json:"total_coins"`

	// Level - уровень ученика.
	Level int `json:"level"`

	// CompletedLessons - количество зачтённых уроков.
	CompletedLessons int `json:"completed_lessons"`

	// RankChange - сдвиг позиции относительно предыдущего снимка
	// (положительный - рост, отрицательный - падение, 0 - без изменений).
	RankChange int `json:"rank_change"`

	// RankDirection - направление сдвига: up, down или stable.
	RankDirection string `json:"rank_direction"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда, отсортированные по монетам.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - общее количество участников.
	TotalCount int `json:"total_count"`

	// AverageCoins - среднее количество монет (только при WithStats).
	AverageCoins int `json:"average_coins,omitempty"`

	// MedianCoins - медианное количество монет (только при WithStats).
	MedianCoins int `json:"median_coins,omitempty"`

	// FromCache - обслужен ли запрос из кеша.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	progressRepo learner.ProgressRepository
	cache        leaderboard.Cache
	cacheBreaker *circuitbreaker.CircuitBreaker
	clock        shared.Clock
	cacheTTL     time.Duration
}

// GetLeaderboardHandlerConfig содержит конфигурацию обработчика.
type GetLeaderboardHandlerConfig struct {
	// Cache - горячий путь чтения (может быть nil).
	Cache leaderboard.Cache

	// CacheBreaker защищает запросы от деградировавшего кеша.
	CacheBreaker *circuitbreaker.CircuitBreaker

	// Clock - источник времени.
	Clock shared.Clock

	// CacheTTL - время жизни пересобранного топа в кеше.
	CacheTTL time.Duration
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(
	progressRepo learner.ProgressRepository,
	config GetLeaderboardHandlerConfig,
) *GetLeaderboardHandler {
	if config.Clock == nil {
		config.Clock = shared.SystemClock{}
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 30 * time.Second
	}

	return &GetLeaderboardHandler{
		progressRepo: progressRepo,
		cache:        config.Cache,
		cacheBreaker: config.CacheBreaker,
		clock:        config.Clock,
		cacheTTL:     config.CacheTTL,
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	// Валидация входных данных
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	// Статистика требует полного снимка, кеш хранит только топ
	if !query.WithStats {
		if cached := h.tryGetFromCache(ctx, query.Limit); len(cached) > 0 {
			return h.buildResult(cached, len(cached), nil, true), nil
		}
	}

	// Холодный путь: пересборка из снимка всех записей прогресса
	snapshot, err := h.progressRepo.ListAll(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to load progress snapshot", err)
	}

	ranking := leaderboard.NewRanking()
	for _, progress := range snapshot {
		entry := toLeaderboardEntry(progress)
		if err := ranking.Add(entry); err != nil {
			continue
		}
	}
	ranking.SortByCoins()

	top := ranking.Top(query.Limit)
	h.refreshCache(ctx, top)

	var stats *leaderboardStats
	if query.WithStats {
		stats = &leaderboardStats{
			average: int(ranking.AverageCoins()),
			median:  int(ranking.MedianCoins()),
		}
	}

	return h.buildResult(top, ranking.Count(), stats, false), nil
}

// leaderboardStats - агрегаты по всем участникам.
type leaderboardStats struct {
	average int
	median  int
}

// tryGetFromCache читает топ из кеша через circuit breaker.
// Любая ошибка кеша даёт пустой результат и уводит запрос на холодный путь.
func (h *GetLeaderboardHandler) tryGetFromCache(ctx context.Context, limit int) []*leaderboard.Entry {
	if h.cache == nil {
		return nil
	}

	var entries []*leaderboard.Entry
	fetch := func(ctx context.Context) error {
		var err error
		entries, err = h.cache.GetTop(ctx, limit)
		return err
	}

	var err error
	if h.cacheBreaker != nil {
		err = h.cacheBreaker.Execute(ctx, fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil
	}
	return entries
}

// refreshCache сохраняет пересобранный топ в кеш. Ошибки кеша не влияют
// на результат запроса.
func (h *GetLeaderboardHandler) refreshCache(ctx context.Context, top []*leaderboard.Entry) {
	if h.cache == nil || len(top) == 0 {
		return
	}

	store := func(ctx context.Context) error {
		return h.cache.SetTop(ctx, top, h.cacheTTL)
	}
	if h.cacheBreaker != nil {
		_ = h.cacheBreaker.Execute(ctx, store)
		return
	}
	_ = store(ctx)
}

// buildResult формирует итоговый результат.
func (h *GetLeaderboardHandler) buildResult(
	entries []*leaderboard.Entry,
	totalCount int,
	stats *leaderboardStats,
	fromCache bool,
) *GetLeaderboardResult {
	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			Rank:             int(e.Rank),
			UserID:           e.UserID,
			DisplayName:      e.DisplayName,
			TotalCoins:       int(e.TotalCoins),
			Level:            e.Level,
			CompletedLessons: e.CompletedLessons,
			RankChange:       int(e.RankChange),
			RankDirection:    string(e.RankChange.Direction()),
		}
	}

	result := &GetLeaderboardResult{
		Entries:     dtos,
		TotalCount:  totalCount,
		FromCache:   fromCache,
		GeneratedAt: h.clock.Now(),
	}
	if stats != nil {
		result.AverageCoins = stats.average
		result.MedianCoins = stats.median
	}
	return result
}

// toLeaderboardEntry конвертирует агрегат прогресса в запись лидерборда.
func toLeaderboardEntry(progress *learner.Progress) *leaderboard.Entry {
	displayName := progress.DisplayName
	if displayName == "" {
		displayName = progress.UserID.String()
	}

	return &leaderboard.Entry{
		UserID:           progress.UserID.String(),
		DisplayName:      displayName,
		TotalCoins:       leaderboard.Coins(progress.TotalCoins.Int()),
		Level:            progress.Level.Int(),
		CompletedLessons: len(progress.CompletedLessonIDs),
		UpdatedAt:        progress.UpdatedAt,
	}
}
