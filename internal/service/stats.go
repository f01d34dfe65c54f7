package service

import (
	"github.com/shopspring/decimal"

	"payrecon/internal/domain"
)

// Tally accumulates payment statistics. Amounts count completed payments only.
type Tally struct {
	total           int
	completed       int
	completedAmount decimal.Decimal
}

// NewTally starts a tally from store-side totals.
func NewTally(totals domain.PaymentTotals) *Tally {
	return &Tally{
		total:           totals.Count,
		completed:       totals.CompletedCount,
		completedAmount: totals.CompletedAmount,
	}
}

// Add counts one payment.
func (t *Tally) Add(p *domain.Payment) {
	t.total++
	if p.Status == domain.PaymentStatusCompleted {
		t.completed++
		t.completedAmount = t.completedAmount.Add(p.Amount)
	}
}

// Summary returns the statistics. The average is the exact decimal quotient
// over completed payments, and zero when nothing completed. Rounding is left
// to presentation.
func (t *Tally) Summary() domain.PaymentStats {
	average := decimal.Zero
	if t.completed > 0 {
		average = t.completedAmount.Div(decimal.NewFromInt(int64(t.completed)))
	}

	return domain.PaymentStats{
		Total:         t.total,
		Completed:     t.completed,
		TotalAmount:   t.completedAmount,
		AverageAmount: average,
	}
}
