package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"payrecon/internal/domain"
)

func TestTally_NoCompletedHasZeroAverage(t *testing.T) {
	tally := NewTally(domain.PaymentTotals{})
	tally.Add(&domain.Payment{Status: domain.PaymentStatusPending, Amount: decimal.NewFromInt(100)})
	tally.Add(&domain.Payment{Status: domain.PaymentStatusFailed, Amount: decimal.NewFromInt(50)})

	s := tally.Summary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 0, s.Completed)
	assert.True(t, s.TotalAmount.IsZero())
	assert.True(t, s.AverageAmount.IsZero())
}

func TestTally_AverageOverCompletedOnly(t *testing.T) {
	tally := NewTally(domain.PaymentTotals{})
	for _, p := range []*domain.Payment{
		{Status: domain.PaymentStatusCompleted, Amount: decimal.NewFromInt(100)},
		{Status: domain.PaymentStatusCompleted, Amount: decimal.NewFromInt(300)},
		{Status: domain.PaymentStatusPending, Amount: decimal.NewFromInt(200)},
	} {
		tally.Add(p)
	}

	s := tally.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.True(t, decimal.NewFromInt(400).Equal(s.TotalAmount))
	assert.True(t, decimal.NewFromInt(200).Equal(s.AverageAmount))
}

func TestTally_AverageIsUnroundedQuotient(t *testing.T) {
	s := NewTally(domain.PaymentTotals{
		Count:           5,
		CompletedCount:  3,
		CompletedAmount: decimal.NewFromInt(301),
	}).Summary()

	assert.Equal(t, 5, s.Total)
	want := s.TotalAmount.Div(decimal.NewFromInt(3))
	assert.True(t, want.Equal(s.AverageAmount), "got %s, want %s", s.AverageAmount, want)
	assert.False(t, s.AverageAmount.Equal(s.AverageAmount.Round(2)))
	assert.Equal(t, "100.33", s.AverageAmount.StringFixed(2))
}
