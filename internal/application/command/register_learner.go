package command

import (
	"context"
	"fmt"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates a learner profile with an empty progress record. Registration with
// an already-taken user ID reports the existing profile instead of failing,
// so retried signups stay harmless.
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// UserID is the chosen user identifier.
	UserID string

	// DisplayName is the name shown on the leaderboard.
	DisplayName string

	// Password is the raw password; only its bcrypt hash is stored.
	Password string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	if c.DisplayName == "" {
		return shared.NewDomainError("learner", "Register", shared.ErrEmptyValue, "display name is required")
	}
	if len(c.Password) < MinPasswordLength {
		return shared.NewDomainError("learner", "Register", shared.ErrValueOutOfRange, "password too short")
	}
	return nil
}

// RegisterLearnerResult contains the outcome of registration.
type RegisterLearnerResult struct {
	// UserID is the registered user identifier.
	UserID string

	// DisplayName is the registered display name.
	DisplayName string

	// AlreadyRegistered indicates the profile existed before this call.
	AlreadyRegistered bool

	// RegisteredAt is when the profile was created.
	RegisteredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	progressRepo   learner.ProgressRepository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	bcryptCost     int
}

// RegisterLearnerHandlerConfig contains configuration for the handler.
type RegisterLearnerHandlerConfig struct {
	// Clock supplies the current time (SystemClock in production).
	Clock shared.Clock

	// BcryptCost is the bcrypt work factor (bcrypt.DefaultCost if zero).
	BcryptCost int
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	progressRepo learner.ProgressRepository,
	eventPublisher shared.EventPublisher,
	config RegisterLearnerHandlerConfig,
) *RegisterLearnerHandler {
	if config.Clock == nil {
		config.Clock = shared.SystemClock{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}

	return &RegisterLearnerHandler{
		progressRepo:   progressRepo,
		eventPublisher: eventPublisher,
		clock:          config.Clock,
		bcryptCost:     config.BcryptCost,
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	// Validate command
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_learner: validation failed: %w", err)
	}

	now := h.clock.Now()

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to hash password: %w", err)
	}

	progress, err := learner.NewProgress(learner.NewProgressParams{
		UserID:       cmd.UserID,
		DisplayName:  cmd.DisplayName,
		PasswordHash: string(hash),
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	if err := h.progressRepo.Create(ctx, progress); err != nil {
		if shared.IsAlreadyExists(err) {
			existing, getErr := h.progressRepo.GetByUserID(ctx, progress.UserID)
			if getErr != nil {
				return nil, fmt.Errorf("register_learner: %w", getErr)
			}
			return &RegisterLearnerResult{
				UserID:            existing.UserID.String(),
				DisplayName:       existing.DisplayName,
				AlreadyRegistered: true,
				RegisteredAt:      existing.CreatedAt,
			}, nil
		}
		return nil, fmt.Errorf("register_learner: failed to create profile: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewLearnerRegisteredEvent(cmd.UserID, cmd.DisplayName))
	}

	return &RegisterLearnerResult{
		UserID:       cmd.UserID,
		DisplayName:  cmd.DisplayName,
		RegisteredAt: now,
	}, nil
}
