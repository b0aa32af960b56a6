package command

import (
	"context"
	"fmt"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/learner"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SIMULATION RUN COMMAND
// Persists one loan simulator run and awards a flat engagement bonus.
// Every run pays out: there is no once-per-lesson idempotency here.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultSimulationBonusCoins is the flat coin bonus for running a simulation.
const DefaultSimulationBonusCoins = 25

// RecordSimulationRunCommand contains one simulator run to record.
type RecordSimulationRunCommand struct {
	// UserID is the learner who ran the simulation.
	UserID string

	// Principal is the simulated loan amount.
	Principal float64

	// AnnualRatePercent is the simulated annual interest rate.
	AnnualRatePercent float64

	// TermMonths is the simulated repayment term.
	TermMonths int

	// Type is what kind of loan was simulated (defaults to personal).
	Type loan.SimulationType

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordSimulationRunCommand) Validate() error {
	if _, err := shared.NewUserID(c.UserID); err != nil {
		return err
	}
	q := loan.Query{
		Principal:         c.Principal,
		AnnualRatePercent: c.AnnualRatePercent,
		TermMonths:        c.TermMonths,
	}
	return q.Validate()
}

// RecordSimulationRunResult contains the outcome of recording a run.
type RecordSimulationRunResult struct {
	// SimulationID is the ID of the persisted run.
	SimulationID string

	// Amortization is the computed payment breakdown.
	Amortization *loan.Amortization

	// CoinsEarned is the bonus awarded for this run.
	CoinsEarned int

	// TotalCoins is the learner's coin balance after the run.
	TotalCoins int

	// Level is the learner's level after the run.
	Level int

	// RecordedAt is when the run was recorded.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordSimulationRunHandler handles the RecordSimulationRunCommand.
type RecordSimulationRunHandler struct {
	progressRepo   learner.ProgressRepository
	simulationRepo loan.SimulationRepository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
	retrier        *retry.Retrier
	location       *time.Location
	bonusCoins     int
}

// RecordSimulationRunHandlerConfig contains configuration for the handler.
type RecordSimulationRunHandlerConfig struct {
	// Clock supplies the current time (SystemClock in production).
	Clock shared.Clock

	// Retrier bounds the optimistic-concurrency retry loop.
	Retrier *retry.Retrier

	// Location is the timezone used for streak day boundaries.
	Location *time.Location

	// BonusCoins is the flat award per run.
	BonusCoins int
}

// DefaultRecordSimulationRunHandlerConfig returns default configuration.
func DefaultRecordSimulationRunHandlerConfig() RecordSimulationRunHandlerConfig {
	return RecordSimulationRunHandlerConfig{
		Clock:      shared.SystemClock{},
		Retrier:    retry.LedgerRetrier(),
		Location:   time.UTC,
		BonusCoins: DefaultSimulationBonusCoins,
	}
}

// NewRecordSimulationRunHandler creates a new RecordSimulationRunHandler.
func NewRecordSimulationRunHandler(
	progressRepo learner.ProgressRepository,
	simulationRepo loan.SimulationRepository,
	eventPublisher shared.EventPublisher,
	config RecordSimulationRunHandlerConfig,
) *RecordSimulationRunHandler {
	if config.Clock == nil {
		config.Clock = shared.SystemClock{}
	}
	if config.Retrier == nil {
		config.Retrier = retry.LedgerRetrier()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.BonusCoins == 0 {
		config.BonusCoins = DefaultSimulationBonusCoins
	}

	return &RecordSimulationRunHandler{
		progressRepo:   progressRepo,
		simulationRepo: simulationRepo,
		eventPublisher: eventPublisher,
		clock:          config.Clock,
		retrier:        config.Retrier,
		location:       config.Location,
		bonusCoins:     config.BonusCoins,
	}
}

// Handle executes the record simulation run command.
func (h *RecordSimulationRunHandler) Handle(ctx context.Context, cmd RecordSimulationRunCommand) (*RecordSimulationRunResult, error) {
	// Validate command
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_simulation_run: validation failed: %w", err)
	}

	userID, _ := shared.NewUserID(cmd.UserID)
	now := h.clock.Now()

	q := loan.Query{
		Principal:         cmd.Principal,
		AnnualRatePercent: cmd.AnnualRatePercent,
		TermMonths:        cmd.TermMonths,
	}
	amortization, err := loan.ComputeAmortization(q)
	if err != nil {
		return nil, fmt.Errorf("record_simulation_run: %w", err)
	}

	sim, err := loan.NewSimulation(userID, q, amortization, cmd.Type, now)
	if err != nil {
		return nil, fmt.Errorf("record_simulation_run: %w", err)
	}
	if err := h.simulationRepo.Save(ctx, sim); err != nil {
		return nil, fmt.Errorf("record_simulation_run: failed to save simulation: %w", err)
	}

	result := &RecordSimulationRunResult{
		SimulationID: sim.ID.String(),
		Amortization: amortization,
		CoinsEarned:  h.bonusCoins,
		RecordedAt:   now,
	}
	var events []shared.Event

	// Award the flat bonus under optimistic concurrency
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		progress, err := loadOrCreateProgress(ctx, h.progressRepo, userID, now)
		if err != nil {
			return retry.Permanent(err)
		}

		events = events[:0]
		oldLevel, newLevel := progress.AwardCoins(h.bonusCoins)
		progress.Touch(now, h.location)

		events = append(events, shared.NewCoinsAwardedEvent(
			userID.String(), h.bonusCoins, progress.TotalCoins.Int(), "simulation", ""))
		if newLevel > oldLevel {
			events = append(events, shared.NewLevelUpEvent(
				userID.String(), oldLevel.Int(), newLevel.Int()))
		}

		if err := h.progressRepo.CompareAndSet(ctx, progress); err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		result.TotalCoins = progress.TotalCoins.Int()
		result.Level = progress.Level.Int()
		return nil
	})
	if err != nil {
		if shared.IsConflict(err) {
			return nil, shared.ErrLedgerExhausted
		}
		return nil, fmt.Errorf("record_simulation_run: %w", err)
	}

	events = append(events, shared.NewSimulationRecordedEvent(
		userID.String(), sim.ID.String(), sim.Type.String(), sim.Principal, h.bonusCoins))

	if h.eventPublisher != nil {
		for _, event := range events {
			_ = h.eventPublisher.Publish(event)
		}
	}

	return result, nil
}
