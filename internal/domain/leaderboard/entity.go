// Package leaderboard содержит доменную модель лидерборда платформы.
// Лидерборд ранжирует учеников по заработанным монетам и служит
// мотивацией продолжать уроки, а не источником стресса.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию ученика в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если ученик в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// IsTop50 возвращает true, если ученик в топ-50.
func (r Rank) IsTop50() bool {
	return r >= 1 && r <= 50
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange представляет изменение позиции в рейтинге.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Direction возвращает направление изменения.
func (rc RankChange) Direction() RankDirection {
	switch {
	case rc > 0:
		return RankDirectionUp
	case rc < 0:
		return RankDirectionDown
	default:
		return RankDirectionStable
	}
}

// Abs возвращает абсолютное значение изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// RankDirection определяет направление изменения ранга.
type RankDirection string

const (
	// RankDirectionUp - ученик поднялся в рейтинге.
	RankDirectionUp RankDirection = "up"
	// RankDirectionDown - ученик опустился в рейтинге.
	RankDirectionDown RankDirection = "down"
	// RankDirectionStable - позиция не изменилась.
	RankDirectionStable RankDirection = "stable"
	// RankDirectionNew - новый участник в рейтинге.
	RankDirectionNew RankDirection = "new"
)

// Emoji возвращает эмодзи для отображения направления.
func (rd RankDirection) Emoji() string {
	switch rd {
	case RankDirectionUp:
		return "🔼"
	case RankDirectionDown:
		return "🔽"
	case RankDirectionNew:
		return "🆕"
	default:
		return "➖"
	}
}

// Coins представляет монеты для лидерборда.
type Coins int

// IsValid проверяет, что значение неотрицательное.
func (c Coins) IsValid() bool {
	return c >= 0
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в лидерборде.
// Содержит всю информацию для отображения ученика в рейтинге.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// UserID - идентификатор ученика.
	UserID string

	// DisplayName - отображаемое имя ученика.
	DisplayName string

	// TotalCoins - суммарно заработанные монеты.
	TotalCoins Coins

	// Level - уровень ученика (вычисляется из монет).
	Level int

	// CompletedLessons - количество зачтённых уроков.
	CompletedLessons int

	// RankChange - изменение позиции с прошлого снапшота.
	RankChange RankChange

	// UpdatedAt - время последнего изменения монет.
	UpdatedAt time.Time
}

// NewEntry создаёт новую запись лидерборда с валидацией.
func NewEntry(userID, displayName string, coins Coins, level, completedLessons int) (*Entry, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !coins.IsValid() {
		return nil, ErrInvalidCoins
	}

	return &Entry{
		Rank:             0, // присваивается при сортировке
		UserID:           userID,
		DisplayName:      displayName,
		TotalCoins:       coins,
		Level:            level,
		CompletedLessons: completedLessons,
		RankChange:       0,
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

// Direction возвращает направление изменения ранга.
func (e *Entry) Direction() RankDirection {
	return e.RankChange.Direction()
}

// HasImproved возвращает true, если ученик поднялся в рейтинге.
func (e *Entry) HasImproved() bool {
	return e.RankChange > 0
}

// CoinsToNext возвращает количество монет до следующего места.
func (e *Entry) CoinsToNext(nextCoins Coins) Coins {
	if nextCoins <= e.TotalCoins {
		return 0
	}
	return nextCoins - e.TotalCoins + 1
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, DisplayName: %s, Coins: %d, Change: %s}",
		e.Rank, e.DisplayName, e.TotalCoins, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список учеников.
// Сортировка и присвоение рангов — чистые операции без ввода-вывода.
type Ranking struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[string]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.UserID]; exists {
		return ErrDuplicateUser
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.UserID] = entry
	return nil
}

// SortByCoins сортирует записи по монетам (по убыванию) и присваивает
// ранги 1..N в порядке сортировки. При равных монетах порядок
// детерминирован: вторичный ключ — UserID по возрастанию, поэтому
// одинаковый вход всегда даёт одинаковый выход.
func (r *Ranking) SortByCoins() {
	sort.Slice(r.entries, func(i, j int) bool {
		if r.entries[i].TotalCoins != r.entries[j].TotalCoins {
			return r.entries[i].TotalCoins > r.entries[j].TotalCoins
		}
		return r.entries[i].UserID < r.entries[j].UserID
	})

	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// GetByID возвращает запись по ID ученика.
func (r *Ranking) GetByID(userID string) *Entry {
	return r.byID[userID]
}

// Top возвращает топ-N записей. Неположительный N даёт пустой результат.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice возвращает срез записей [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Neighbors возвращает соседей ученика по рангу (±range).
// Включает самого ученика в центре.
func (r *Ranking) Neighbors(userID string, rangeSize int) []*Entry {
	entry := r.GetByID(userID)
	if entry == nil {
		return nil
	}

	var idx int
	for i, e := range r.entries {
		if e.UserID == userID {
			idx = i
			break
		}
	}

	from := idx - rangeSize
	to := idx + rangeSize + 1

	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}

	return r.Slice(from, to)
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// AverageCoins возвращает среднее количество монет по всем участникам.
func (r *Ranking) AverageCoins() Coins {
	if len(r.entries) == 0 {
		return 0
	}

	var total int
	for _, entry := range r.entries {
		total += int(entry.TotalCoins)
	}

	return Coins(total / len(r.entries))
}

// MedianCoins возвращает медианное количество монет.
func (r *Ranking) MedianCoins() Coins {
	if len(r.entries) == 0 {
		return 0
	}

	mid := len(r.entries) / 2
	if len(r.entries)%2 == 0 {
		return Coins((int(r.entries[mid-1].TotalCoins) + int(r.entries[mid].TotalCoins)) / 2)
	}
	return r.entries[mid].TotalCoins
}

// ══════════════════════════════════════════════════════════════════════════════
// PURE RANKING FUNCTION
// ══════════════════════════════════════════════════════════════════════════════

// RankEntries — чистая функция ранжирования: принимает снимок записей,
// возвращает отсортированный и усечённый топ. Вход не модифицируется.
func RankEntries(entries []*Entry, limit int) []*Entry {
	if limit <= 0 || len(entries) == 0 {
		return []*Entry{}
	}

	ranking := NewRanking()
	for _, e := range entries {
		if err := ranking.Add(e.Clone()); err != nil {
			// Дубликаты в снимке пропускаем: один пользователь — одна запись.
			continue
		}
	}
	ranking.SortByCoins()

	top := ranking.Top(limit)
	if top == nil {
		return []*Entry{}
	}
	return top
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRank - невалидный ранг (должен быть положительным).
	ErrInvalidRank = errors.New("invalid rank: must be positive")

	// ErrInvalidUserID - невалидный ID ученика.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidCoins - невалидное значение монет.
	ErrInvalidCoins = errors.New("invalid coins: must be non-negative")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateUser - ученик уже есть в рейтинге.
	ErrDuplicateUser = errors.New("user already exists in ranking")

	// ErrSnapshotNotFound - снапшот не найден.
	ErrSnapshotNotFound = errors.New("leaderboard snapshot not found")

	// ErrEmptyLeaderboard - лидерборд пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
