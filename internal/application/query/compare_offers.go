package query

import (
	"context"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPARE OFFERS QUERY
// Сравнение банковских предложений по одной сумме кредита.
// Порядок результата совпадает с порядком входа.
// ══════════════════════════════════════════════════════════════════════════════

// CompareOffersQuery содержит параметры сравнения.
type CompareOffersQuery struct {
	// Principal - общая сумма кредита для всех предложений.
	Principal float64

	// Offers - сравниваемые предложения банков.
	Offers []loan.Offer
}

// CompareOffersHandler обрабатывает запросы сравнения предложений.
type CompareOffersHandler struct{}

// NewCompareOffersHandler создаёт новый обработчик сравнения.
func NewCompareOffersHandler() *CompareOffersHandler {
	return &CompareOffersHandler{}
}

// Handle выполняет сравнение предложений.
func (h *CompareOffersHandler) Handle(_ context.Context, query CompareOffersQuery) ([]loan.OfferComparison, error) {
	return loan.CompareOffers(query.Principal, query.Offers)
}
