package repository

import (
	"context"
	"time"

	"payrecon/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// Find returns one page of payments matching the filter, newest first
	// (ties broken by id), and the total number of matches.
	Find(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error)

	// Totals aggregates the full set of payments matching the filter.
	Totals(ctx context.Context, filter domain.PaymentFilter) (domain.PaymentTotals, error)

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByTranID retrieves a payment by its gateway transaction id.
	GetByTranID(ctx context.Context, tranID string) (*domain.Payment, error)

	// UpdateStatus atomically writes the mutable status fields of a payment.
	// A payment date that is already set is never overwritten or cleared.
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error
}
