// Package loan contains loan amortization math for the financial-literacy
// simulator: fixed-rate EMI calculation, payment schedules, and side-by-side
// offer comparison. This is a pure domain layer with zero external dependencies.
package loan

import (
	"math"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxPrincipal caps the loan amount accepted by the simulator.
	MaxPrincipal = 100_000_000.0

	// MaxAnnualRatePercent caps the nominal annual interest rate.
	MaxAnnualRatePercent = 100.0

	// MaxTermMonths caps the loan term (50 years).
	MaxTermMonths = 600

	// MonthsPerYear converts annual rates to monthly.
	MonthsPerYear = 12

	// SchedulePreviewPeriods is how many schedule rows the result carries.
	// Longer loans are truncated; the totals still cover the full term.
	SchedulePreviewPeriods = 12
)

// ══════════════════════════════════════════════════════════════════════════════
// QUERY & RESULT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Query describes a loan to be amortized.
type Query struct {
	// Principal - loan amount in whole currency units (tenge).
	Principal float64

	// AnnualRatePercent - nominal annual interest rate, e.g. 12.5 for 12.5%.
	AnnualRatePercent float64

	// TermMonths - repayment term in months.
	TermMonths int
}

// Validate checks the query against simulator limits.
func (q Query) Validate() error {
	if q.TermMonths <= 0 {
		return shared.ErrInvalidTerm
	}
	if q.TermMonths > MaxTermMonths {
		return shared.NewDomainError("loan", "Validate", shared.ErrValueOutOfRange, "term exceeds maximum")
	}
	if q.Principal < 0 {
		return shared.ErrInvalidPrincipal
	}
	if q.Principal > MaxPrincipal {
		return shared.NewDomainError("loan", "Validate", shared.ErrValueOutOfRange, "principal exceeds maximum")
	}
	if q.AnnualRatePercent < 0 {
		return shared.ErrInvalidRate
	}
	if q.AnnualRatePercent > MaxAnnualRatePercent {
		return shared.NewDomainError("loan", "Validate", shared.ErrValueOutOfRange, "annual rate exceeds maximum")
	}
	return nil
}

// SchedulePeriod is one row of the amortization schedule.
type SchedulePeriod struct {
	// Period - 1-based payment number.
	Period int `json:"period"`

	// InterestAccrued - interest portion of this payment, rounded.
	InterestAccrued float64 `json:"interest_accrued"`

	// PrincipalApplied - principal portion of this payment, rounded.
	PrincipalApplied float64 `json:"principal_applied"`

	// RemainingBalance - balance after this payment, rounded, never negative.
	RemainingBalance float64 `json:"remaining_balance"`
}

// Amortization is the result of amortizing a loan query.
type Amortization struct {
	// InstallmentAmount - fixed monthly payment, rounded to whole units.
	InstallmentAmount float64 `json:"installment_amount"`

	// TotalPaid - installment * term, rounded to whole units.
	TotalPaid float64 `json:"total_paid"`

	// TotalInterest - total paid minus principal, rounded to whole units.
	TotalInterest float64 `json:"total_interest"`

	// MonthlyRatePercent - annual rate / 12, not rounded.
	MonthlyRatePercent float64 `json:"monthly_rate_percent"`

	// Schedule - first SchedulePreviewPeriods rows (or fewer for short terms).
	Schedule []SchedulePeriod `json:"schedule"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// ComputeAmortization amortizes a fixed-rate loan.
//
// The periodic rate is AnnualRatePercent / 1200. A zero rate degenerates to
// equal principal installments with no interest. Intermediate math runs on
// unrounded float64 values; rounding to whole currency units happens only at
// the output boundary. The running balance carried between periods stays
// unrounded, so row interest always derives from the exact prior balance.
func ComputeAmortization(q Query) (*Amortization, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	periodicRate := q.AnnualRatePercent / (MonthsPerYear * 100)

	var installment float64
	if periodicRate == 0 {
		installment = q.Principal / float64(q.TermMonths)
	} else {
		growth := math.Pow(1+periodicRate, float64(q.TermMonths))
		installment = q.Principal * periodicRate * growth / (growth - 1)
	}

	totalPaid := installment * float64(q.TermMonths)
	totalInterest := totalPaid - q.Principal

	return &Amortization{
		InstallmentAmount:  roundCurrency(installment),
		TotalPaid:          roundCurrency(totalPaid),
		TotalInterest:      roundCurrency(totalInterest),
		MonthlyRatePercent: q.AnnualRatePercent / MonthsPerYear,
		Schedule:           buildSchedule(q, periodicRate, installment),
	}, nil
}

// buildSchedule produces the truncated payment schedule.
func buildSchedule(q Query, periodicRate, installment float64) []SchedulePeriod {
	periods := q.TermMonths
	if periods > SchedulePreviewPeriods {
		periods = SchedulePreviewPeriods
	}

	schedule := make([]SchedulePeriod, 0, periods)
	balance := q.Principal

	for period := 1; period <= periods; period++ {
		interest := balance * periodicRate
		principalApplied := installment - interest
		balance -= principalApplied

		schedule = append(schedule, SchedulePeriod{
			Period:           period,
			InterestAccrued:  roundCurrency(interest),
			PrincipalApplied: roundCurrency(principalApplied),
			RemainingBalance: roundCurrency(math.Max(0, balance)),
		})
	}

	return schedule
}

// roundCurrency rounds to the nearest whole currency unit.
func roundCurrency(amount float64) float64 {
	return math.Round(amount)
}
