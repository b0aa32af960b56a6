package postgres

import (
	"context"
	"fmt"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIMULATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SimulationRepository implements loan.SimulationRepository for PostgreSQL.
type SimulationRepository struct {
	conn *Connection
}

// NewSimulationRepository creates a new SimulationRepository.
func NewSimulationRepository(conn *Connection) *SimulationRepository {
	return &SimulationRepository{conn: conn}
}

// Save journals one simulator run.
func (r *SimulationRepository) Save(ctx context.Context, sim *loan.Simulation) error {
	query := `
		INSERT INTO loan_simulations (
			id, user_id, principal, annual_rate_percent, term_months,
			installment_amount, total_interest, total_paid, loan_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		sim.ID,
		sim.UserID.String(),
		sim.Principal,
		sim.AnnualRatePercent,
		sim.TermMonths,
		sim.InstallmentAmount,
		sim.TotalInterest,
		sim.TotalPaid,
		string(sim.Type),
		sim.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}

	return nil
}

// ListByUser returns a learner's simulations, newest first.
func (r *SimulationRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]*loan.Simulation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, principal, annual_rate_percent, term_months,
			   installment_amount, total_interest, total_paid, loan_type, created_at
		FROM loan_simulations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulations: %w", err)
	}
	defer rows.Close()

	sims := make([]*loan.Simulation, 0)
	for rows.Next() {
		var (
			sim      loan.Simulation
			uid      string
			loanType string
		)

		err := rows.Scan(
			&sim.ID,
			&uid,
			&sim.Principal,
			&sim.AnnualRatePercent,
			&sim.TermMonths,
			&sim.InstallmentAmount,
			&sim.TotalInterest,
			&sim.TotalPaid,
			&loanType,
			&sim.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}

		sim.UserID = shared.UserID(uid)
		sim.Type = loan.SimulationType(loanType)
		sims = append(sims, &sim)
	}

	return sims, rows.Err()
}

// CountByUser returns how many simulations a learner has recorded.
func (r *SimulationRepository) CountByUser(ctx context.Context, userID shared.UserID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM loan_simulations WHERE user_id = $1",
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count simulations: %w", err)
	}
	return count, nil
}
