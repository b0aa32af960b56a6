package loan

import (
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OFFER COMPARISON
// ══════════════════════════════════════════════════════════════════════════════

// Offer is one bank offer to be compared against a shared principal.
type Offer struct {
	// BankName - display label for the offering bank.
	BankName string `json:"bank_name"`

	// AnnualRatePercent - nominal annual rate of this offer.
	AnnualRatePercent float64 `json:"annual_rate_percent"`

	// TermMonths - repayment term of this offer.
	TermMonths int `json:"term_months"`
}

// OfferComparison is the evaluated view of one offer.
type OfferComparison struct {
	// BankName - carried through from the offer.
	BankName string `json:"bank_name"`

	// InstallmentAmount - monthly payment for this offer, rounded.
	InstallmentAmount float64 `json:"installment_amount"`

	// TotalPaid - total repayment for this offer, rounded.
	TotalPaid float64 `json:"total_paid"`

	// TotalInterest - interest cost of this offer, rounded.
	TotalInterest float64 `json:"total_interest"`

	// SavingsVsWorst - how much cheaper this offer is than the most
	// expensive one in the set. The worst offer has zero savings.
	SavingsVsWorst float64 `json:"savings_vs_worst"`
}

// CompareOffers amortizes every offer against the shared principal and
// annotates each with its savings relative to the most expensive offer.
//
// Output order matches input order. An empty offer slice yields an empty
// result. If any single offer fails validation the whole comparison fails.
func CompareOffers(principal float64, offers []Offer) ([]OfferComparison, error) {
	comparisons := make([]OfferComparison, 0, len(offers))

	for _, offer := range offers {
		result, err := ComputeAmortization(Query{
			Principal:         principal,
			AnnualRatePercent: offer.AnnualRatePercent,
			TermMonths:        offer.TermMonths,
		})
		if err != nil {
			return nil, shared.WrapError("loan", "CompareOffers", shared.ErrInvalidInput, "offer "+offer.BankName+" is invalid", err)
		}

		comparisons = append(comparisons, OfferComparison{
			BankName:          offer.BankName,
			InstallmentAmount: result.InstallmentAmount,
			TotalPaid:         result.TotalPaid,
			TotalInterest:     result.TotalInterest,
		})
	}

	// Second pass: savings relative to the most expensive offer.
	var worstTotal float64
	for _, c := range comparisons {
		if c.TotalPaid > worstTotal {
			worstTotal = c.TotalPaid
		}
	}
	for i := range comparisons {
		comparisons[i].SavingsVsWorst = worstTotal - comparisons[i].TotalPaid
	}

	return comparisons, nil
}
