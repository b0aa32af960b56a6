// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "lesson", "loan"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrInvalidUserID        = NewDomainError("learner", "Validate", ErrInvalidID, "invalid user ID")
	ErrProgressNotFound     = NewDomainError("learner", "FindProgress", ErrNotFound, "progress record not found")
	ErrProgressConflict     = NewDomainError("learner", "SaveProgress", ErrConcurrentModification, "progress record modified concurrently")
	ErrCoinsDecreased       = NewDomainError("learner", "UpdateCoins", ErrInvalidState, "total coins can never decrease")
)

// Lesson domain errors
var (
	ErrLessonNotFound   = NewDomainError("lesson", "Lookup", ErrNotFound, "lesson not found")
	ErrLessonInactive   = NewDomainError("lesson", "Lookup", ErrNotFound, "lesson is not active")
	ErrInvalidLessonID  = NewDomainError("lesson", "Validate", ErrInvalidID, "invalid lesson ID")
	ErrInvalidCategory  = NewDomainError("lesson", "Validate", ErrInvalidInput, "invalid lesson category")
	ErrInvalidCoinValue = NewDomainError("lesson", "Validate", ErrNegativeValue, "coin reward cannot be negative")
)

// Loan domain errors
var (
	ErrInvalidPrincipal = NewDomainError("loan", "Validate", ErrNegativeValue, "principal cannot be negative")
	ErrInvalidRate      = NewDomainError("loan", "Validate", ErrNegativeValue, "annual rate cannot be negative")
	ErrInvalidTerm      = NewDomainError("loan", "Validate", ErrValueOutOfRange, "term must be at least one month")
	ErrInvalidOffer     = NewDomainError("loan", "Compare", ErrInvalidInput, "invalid loan offer")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// Ledger errors
var (
	ErrLedgerExhausted = NewDomainError("ledger", "Record", ErrServiceUnavailable, "could not commit progress after retries")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is an optimistic concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrOptimisticLock)
}

// IsUnavailable checks if the error means the operation should be retried later.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsUnauthorized checks if the error is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
