package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	// 21:30 UTC is already 02:30 the next day in Almaty.
	moment := time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)

	utcDay := StartOfDay(moment, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), utcDay)

	almatyDay := StartOfDay(moment, AlmatyTZ)
	assert.Equal(t, 11, almatyDay.Day())
	assert.Equal(t, 0, almatyDay.Hour())
}

func TestStartOfDay_NilLocationMeansUTC(t *testing.T) {
	moment := time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, StartOfDay(moment, time.UTC), StartOfDay(moment, nil))
}

func TestDaysBetween(t *testing.T) {
	evening := time.Date(2025, 3, 10, 23, 50, 0, 0, AlmatyTZ)
	nextMorning := time.Date(2025, 3, 11, 0, 10, 0, 0, AlmatyTZ)

	// Twenty minutes apart but on different calendar days.
	assert.Equal(t, 1, DaysBetween(evening, nextMorning, AlmatyTZ))
	assert.Equal(t, -1, DaysBetween(nextMorning, evening, AlmatyTZ))
	assert.Equal(t, 0, DaysBetween(evening, evening, AlmatyTZ))

	// The same two instants share a day in UTC.
	assert.Equal(t, 0, DaysBetween(evening, nextMorning, time.UTC))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 3, 10, 8, 0, 0, 0, AlmatyTZ)
	evening := time.Date(2025, 3, 10, 22, 0, 0, 0, AlmatyTZ)

	assert.True(t, SameDay(morning, evening, AlmatyTZ))
	assert.False(t, SameDay(morning, evening.AddDate(0, 0, 1), AlmatyTZ))
}

func TestIsConsecutiveDay(t *testing.T) {
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, AlmatyTZ)

	assert.True(t, IsConsecutiveDay(day, day.AddDate(0, 0, 1), AlmatyTZ))
	assert.False(t, IsConsecutiveDay(day, day, AlmatyTZ))
	assert.False(t, IsConsecutiveDay(day, day.AddDate(0, 0, 2), AlmatyTZ))
}
