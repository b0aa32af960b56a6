package loan

import (
	"testing"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestComputeAmortization_StandardLoan(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         1000,
		AnnualRatePercent: 5,
		TermMonths:        24,
	})

	assert.NoError(t, err)
	assert.Equal(t, 44.0, result.InstallmentAmount)
	assert.Equal(t, 1053.0, result.TotalPaid)
	assert.Equal(t, 53.0, result.TotalInterest)
	assert.InDelta(t, 5.0/12.0, result.MonthlyRatePercent, 1e-12)
}

func TestComputeAmortization_ZeroRate(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         1200,
		AnnualRatePercent: 0,
		TermMonths:        12,
	})

	assert.NoError(t, err)
	assert.Equal(t, 100.0, result.InstallmentAmount)
	assert.Equal(t, 1200.0, result.TotalPaid)
	assert.Equal(t, 0.0, result.TotalInterest)
	assert.Equal(t, 0.0, result.MonthlyRatePercent)
}

func TestComputeAmortization_ZeroPrincipal(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         0,
		AnnualRatePercent: 10,
		TermMonths:        12,
	})

	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.InstallmentAmount)
	assert.Equal(t, 0.0, result.TotalPaid)
	assert.Equal(t, 0.0, result.TotalInterest)
}

func TestComputeAmortization_ScheduleTruncatedToTwelvePeriods(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         500000,
		AnnualRatePercent: 15,
		TermMonths:        60,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Schedule, SchedulePreviewPeriods)
	assert.Equal(t, 1, result.Schedule[0].Period)
	assert.Equal(t, 12, result.Schedule[11].Period)
}

func TestComputeAmortization_ShortTermScheduleCoversWholeLoan(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         1000,
		AnnualRatePercent: 12,
		TermMonths:        6,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Schedule, 6)

	// Balance strictly decreases and finishes at zero.
	prev := result.Schedule[0].RemainingBalance
	for _, row := range result.Schedule[1:] {
		assert.Less(t, row.RemainingBalance, prev)
		prev = row.RemainingBalance
	}
	assert.Equal(t, 0.0, result.Schedule[5].RemainingBalance)
}

func TestComputeAmortization_FirstPeriodInterestFromFullPrincipal(t *testing.T) {
	result, err := ComputeAmortization(Query{
		Principal:         120000,
		AnnualRatePercent: 12,
		TermMonths:        24,
	})

	assert.NoError(t, err)
	// 1% monthly on the full principal.
	assert.Equal(t, 1200.0, result.Schedule[0].InterestAccrued)
}

func TestComputeAmortization_InvalidInputs(t *testing.T) {
	_, err := ComputeAmortization(Query{Principal: 1000, AnnualRatePercent: 5, TermMonths: 0})
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = ComputeAmortization(Query{Principal: 1000, AnnualRatePercent: 5, TermMonths: -3})
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = ComputeAmortization(Query{Principal: -1, AnnualRatePercent: 5, TermMonths: 12})
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = ComputeAmortization(Query{Principal: 1000, AnnualRatePercent: -0.5, TermMonths: 12})
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestComputeAmortization_LimitsEnforced(t *testing.T) {
	_, err := ComputeAmortization(Query{Principal: MaxPrincipal + 1, AnnualRatePercent: 5, TermMonths: 12})
	assert.Error(t, err)

	_, err = ComputeAmortization(Query{Principal: 1000, AnnualRatePercent: 5, TermMonths: MaxTermMonths + 1})
	assert.Error(t, err)

	_, err = ComputeAmortization(Query{Principal: 1000, AnnualRatePercent: MaxAnnualRatePercent + 1, TermMonths: 12})
	assert.Error(t, err)
}
