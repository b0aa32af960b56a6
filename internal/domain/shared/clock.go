package shared

import "time"

// Clock abstracts the current time so progression logic can be tested
// against fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (f FixedClock) Now() time.Time {
	return f.Instant
}
