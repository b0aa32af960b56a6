package loan

import (
	"context"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIMULATION TYPE ENUM
// ══════════════════════════════════════════════════════════════════════════════

// SimulationType classifies what kind of loan the learner simulated.
type SimulationType string

const (
	SimulationPersonal  SimulationType = "personal"
	SimulationHome      SimulationType = "home"
	SimulationCar       SimulationType = "car"
	SimulationEducation SimulationType = "education"
)

// IsValid checks if the simulation type is one of the known kinds.
func (t SimulationType) IsValid() bool {
	switch t {
	case SimulationPersonal, SimulationHome, SimulationCar, SimulationEducation:
		return true
	}
	return false
}

// String returns the string representation.
func (t SimulationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// SIMULATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Simulation is a persisted record of one loan simulator run.
type Simulation struct {
	// ID - unique simulation identifier.
	ID uuid.UUID

	// UserID - who ran the simulation.
	UserID shared.UserID

	// Principal - simulated loan amount.
	Principal float64

	// AnnualRatePercent - simulated annual rate.
	AnnualRatePercent float64

	// TermMonths - simulated term.
	TermMonths int

	// InstallmentAmount - computed monthly payment.
	InstallmentAmount float64

	// TotalInterest - computed interest cost.
	TotalInterest float64

	// TotalPaid - computed total repayment.
	TotalPaid float64

	// Type - what kind of loan was simulated.
	Type SimulationType

	// CreatedAt - when the run was recorded.
	CreatedAt time.Time
}

// NewSimulation builds a simulation record from a query and its result.
func NewSimulation(userID shared.UserID, q Query, result *Amortization, simType SimulationType, now time.Time) (*Simulation, error) {
	if userID.IsEmpty() {
		return nil, shared.ErrInvalidUserID
	}
	if result == nil {
		return nil, shared.NewDomainError("loan", "NewSimulation", shared.ErrInvalidInput, "amortization result is required")
	}
	if !simType.IsValid() {
		simType = SimulationPersonal
	}

	return &Simulation{
		ID:                uuid.New(),
		UserID:            userID,
		Principal:         q.Principal,
		AnnualRatePercent: q.AnnualRatePercent,
		TermMonths:        q.TermMonths,
		InstallmentAmount: result.InstallmentAmount,
		TotalInterest:     result.TotalInterest,
		TotalPaid:         result.TotalPaid,
		Type:              simType,
		CreatedAt:         now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// SimulationRepository persists simulation runs.
type SimulationRepository interface {
	// Save stores a simulation record.
	Save(ctx context.Context, sim *Simulation) error

	// ListByUser returns the most recent simulations for a user, newest first.
	ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]*Simulation, error)

	// CountByUser returns how many simulations a user has recorded.
	CountByUser(ctx context.Context, userID shared.UserID) (int, error)
}
