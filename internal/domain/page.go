package domain

import "github.com/shopspring/decimal"

// PaymentStats summarizes the full set of payments matched by a filter.
type PaymentStats struct {
	Total         int
	Completed     int
	TotalAmount   decimal.Decimal // Sum over completed payments only
	AverageAmount decimal.Decimal
}

// PaymentTotals are the raw aggregates a store computes for a filter.
type PaymentTotals struct {
	Count           int
	CompletedCount  int
	CompletedAmount decimal.Decimal
}

// Pagination describes where a page sits in the matched set.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// NewPagination computes page bookkeeping for total matched rows.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// PaymentPage is the result of listing payments.
type PaymentPage struct {
	Payments   []*Payment
	Stats      PaymentStats
	Pagination Pagination
}
