package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareOffers_PreservesInputOrder(t *testing.T) {
	offers := []Offer{
		{BankName: "Halyk", AnnualRatePercent: 18, TermMonths: 24},
		{BankName: "Kaspi", AnnualRatePercent: 14, TermMonths: 24},
		{BankName: "Forte", AnnualRatePercent: 16, TermMonths: 24},
	}

	comparisons, err := CompareOffers(500000, offers)

	assert.NoError(t, err)
	assert.Len(t, comparisons, 3)
	assert.Equal(t, "Halyk", comparisons[0].BankName)
	assert.Equal(t, "Kaspi", comparisons[1].BankName)
	assert.Equal(t, "Forte", comparisons[2].BankName)
}

func TestCompareOffers_SavingsRelativeToWorstOffer(t *testing.T) {
	offers := []Offer{
		{BankName: "Expensive", AnnualRatePercent: 20, TermMonths: 12},
		{BankName: "Cheap", AnnualRatePercent: 10, TermMonths: 12},
	}

	comparisons, err := CompareOffers(100000, offers)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, comparisons[0].SavingsVsWorst)
	assert.Equal(t, comparisons[0].TotalPaid-comparisons[1].TotalPaid, comparisons[1].SavingsVsWorst)
	assert.Greater(t, comparisons[1].SavingsVsWorst, 0.0)
}

func TestCompareOffers_SingleOfferHasZeroSavings(t *testing.T) {
	comparisons, err := CompareOffers(100000, []Offer{
		{BankName: "Only", AnnualRatePercent: 12, TermMonths: 36},
	})

	assert.NoError(t, err)
	assert.Len(t, comparisons, 1)
	assert.Equal(t, 0.0, comparisons[0].SavingsVsWorst)
}

func TestCompareOffers_EmptyInput(t *testing.T) {
	comparisons, err := CompareOffers(100000, nil)

	assert.NoError(t, err)
	assert.Empty(t, comparisons)
}

func TestCompareOffers_InvalidOfferFailsWholeComparison(t *testing.T) {
	offers := []Offer{
		{BankName: "Good", AnnualRatePercent: 10, TermMonths: 12},
		{BankName: "Broken", AnnualRatePercent: 10, TermMonths: 0},
	}

	comparisons, err := CompareOffers(100000, offers)

	assert.Error(t, err)
	assert.Nil(t, comparisons)
}
