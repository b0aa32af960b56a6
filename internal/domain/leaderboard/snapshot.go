// Package leaderboard содержит доменную модель лидерборда платформы.
package leaderboard

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет состояние лидерборда в определённый момент времени.
// Снапшоты используются для расчёта изменений рангов между обновлениями.
type Snapshot struct {
	// ID - идентификатор снапшота.
	ID string

	// Entries - отсортированные записи с присвоенными рангами.
	Entries []*Entry

	// CreatedAt - момент снятия снапшота.
	CreatedAt time.Time

	byID map[string]*Entry
}

// NewSnapshot создаёт снапшот из отсортированного Ranking.
func NewSnapshot(id string, ranking *Ranking) *Snapshot {
	entries := ranking.All()
	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byID[e.UserID] = e
	}

	return &Snapshot{
		ID:        id,
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
		byID:      byID,
	}
}

// NewSnapshotFromEntries создаёт снапшот из уже ранжированных записей,
// например из закешированного топа.
func NewSnapshotFromEntries(id string, entries []*Entry) *Snapshot {
	byID := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byID[e.UserID] = e
	}

	return &Snapshot{
		ID:        id,
		Entries:   entries,
		CreatedAt: time.Now().UTC(),
		byID:      byID,
	}
}

// NewEmptySnapshot создаёт пустой снапшот.
func NewEmptySnapshot(id string) *Snapshot {
	return &Snapshot{
		ID:        id,
		Entries:   []*Entry{},
		CreatedAt: time.Now().UTC(),
		byID:      map[string]*Entry{},
	}
}

// GetByID возвращает запись по ID ученика.
func (s *Snapshot) GetByID(userID string) *Entry {
	return s.byID[userID]
}

// GetRank возвращает ранг ученика по его ID.
// Возвращает 0, если ученик не найден.
func (s *Snapshot) GetRank(userID string) Rank {
	if e := s.byID[userID]; e != nil {
		return e.Rank
	}
	return 0
}

// Top возвращает топ-N записей.
func (s *Snapshot) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	result := make([]*Entry, n)
	copy(result, s.Entries[:n])
	return result
}

// Page возвращает страницу лидерборда. page начинается с 1.
func (s *Snapshot) Page(page, pageSize int) []*Entry {
	if page < 1 || pageSize < 1 {
		return nil
	}
	from := (page - 1) * pageSize
	to := from + pageSize
	if from >= len(s.Entries) {
		return nil
	}
	if to > len(s.Entries) {
		to = len(s.Entries)
	}
	result := make([]*Entry, to-from)
	copy(result, s.Entries[from:to])
	return result
}

// IsEmpty возвращает true, если снапшот пуст.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Count возвращает количество записей.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// Contains проверяет, есть ли ученик в снапшоте.
func (s *Snapshot) Contains(userID string) bool {
	_, ok := s.byID[userID]
	return ok
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK CHANGES
// ══════════════════════════════════════════════════════════════════════════════

// ApplyRankChanges проставляет RankChange у записей текущего снапшота,
// сравнивая их с предыдущим. Участники, которых не было в предыдущем
// снапшоте, получают RankChange 0.
func (s *Snapshot) ApplyRankChanges(previous *Snapshot) {
	if previous == nil {
		return
	}
	for _, entry := range s.Entries {
		oldRank := previous.GetRank(entry.UserID)
		if oldRank == 0 {
			entry.RankChange = 0
			continue
		}
		// Положительное значение = подъём.
		entry.RankChange = RankChange(int(oldRank) - int(entry.Rank))
	}
}
