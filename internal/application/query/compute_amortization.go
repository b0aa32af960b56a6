package query

import (
	"context"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE AMORTIZATION QUERY
// Расчёт аннуитетного платежа без побочных эффектов: ничего не сохраняется,
// монеты не начисляются. Запись запусков - отдельная команда.
// ══════════════════════════════════════════════════════════════════════════════

// ComputeAmortizationQuery содержит параметры расчёта.
type ComputeAmortizationQuery struct {
	// Principal - сумма кредита.
	Principal float64

	// AnnualRatePercent - номинальная годовая ставка, например 12.5.
	AnnualRatePercent float64

	// TermMonths - срок кредита в месяцах.
	TermMonths int
}

// ComputeAmortizationHandler обрабатывает запросы расчёта кредита.
type ComputeAmortizationHandler struct{}

// NewComputeAmortizationHandler создаёт новый обработчик расчёта.
func NewComputeAmortizationHandler() *ComputeAmortizationHandler {
	return &ComputeAmortizationHandler{}
}

// Handle выполняет расчёт аннуитетного платежа.
func (h *ComputeAmortizationHandler) Handle(_ context.Context, query ComputeAmortizationQuery) (*loan.Amortization, error) {
	return loan.ComputeAmortization(loan.Query{
		Principal:         query.Principal,
		AnnualRatePercent: query.AnnualRatePercent,
		TermMonths:        query.TermMonths,
	})
}
