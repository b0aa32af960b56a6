// Package timeutil provides calendar arithmetic for daily-activity
// tracking. All helpers take an explicit *time.Location: streaks and
// "last active date" are calendar-day concepts, and the day boundary
// depends on the zone the platform serves.
package timeutil

import "time"

// AlmatyTZ is the platform timezone (UTC+5, no DST).
// Kazakhstan abolished DST in 2005, so the offset is constant year-round.
var AlmatyTZ = time.FixedZone("Asia/Almaty", 5*60*60)

// StartOfDay returns midnight of t's calendar day in loc.
// A nil loc means UTC.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether t1 and t2 fall on the same calendar day in loc.
func SameDay(t1, t2 time.Time, loc *time.Location) bool {
	return DaysBetween(t1, t2, loc) == 0
}

// DaysBetween returns the signed number of calendar days from t1 to t2
// in loc: positive when t2 is on a later day, negative when earlier.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	from := StartOfDay(t1, loc)
	to := StartOfDay(t2, loc)
	return int(to.Sub(from).Hours() / 24)
}

// IsConsecutiveDay reports whether t2 is on the calendar day right
// after t1 in loc.
func IsConsecutiveDay(t1, t2 time.Time, loc *time.Location) bool {
	return DaysBetween(t1, t2, loc) == 1
}
