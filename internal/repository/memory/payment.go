// Package memory provides an in-process payment store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"payrecon/internal/domain"
	"payrecon/internal/repository"
)

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byTranID map[string]string // tranID -> payment id
}

// NewPaymentRepository creates an empty in-memory store.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]*domain.Payment),
		byTranID: make(map[string]string),
	}
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// Create stores a copy of a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ID]; exists {
		return repository.ErrDuplicateID
	}
	if payment.HasTranID() {
		if _, taken := r.byTranID[payment.TranID]; taken {
			return repository.ErrDuplicateTranID
		}
		r.byTranID[payment.TranID] = payment.ID
	}
	r.payments[payment.ID] = payment.Clone()
	return nil
}

// Find returns one page of matching payments, newest first, and the total.
func (r *PaymentRepository) Find(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error) {
	filter = filter.Normalize()
	matched := r.match(filter)

	total := len(matched)
	start := filter.Offset()
	switch {
	case start < 0:
		start = 0
	case start > total:
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

// Totals aggregates every payment matching the filter.
func (r *PaymentRepository) Totals(ctx context.Context, filter domain.PaymentFilter) (domain.PaymentTotals, error) {
	var totals domain.PaymentTotals
	for _, p := range r.match(filter) {
		totals.Count++
		if p.Status == domain.PaymentStatusCompleted {
			totals.CompletedCount++
			totals.CompletedAmount = totals.CompletedAmount.Add(p.Amount)
		}
	}
	return totals, nil
}

// GetByID retrieves a copy of the payment with the given id.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return payment.Clone(), nil
}

// GetByTranID retrieves a copy of the payment with the given transaction id.
func (r *PaymentRepository) GetByTranID(ctx context.Context, tranID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTranID[tranID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.payments[id].Clone(), nil
}

// UpdateStatus writes the mutable status fields under the store lock.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return repository.ErrNotFound
	}

	payment.Status = status
	payment.UpdatedAt = updatedAt
	if payment.PaymentDate == nil && paymentDate != nil {
		d := *paymentDate
		payment.PaymentDate = &d
	}
	return nil
}

// match returns copies of every matching payment in listing order.
func (r *PaymentRepository) match(filter domain.PaymentFilter) []*domain.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		if filter.Matches(p) {
			matched = append(matched, p.Clone())
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}
