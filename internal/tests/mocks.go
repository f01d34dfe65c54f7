package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"payrecon/internal/domain"
	"payrecon/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	GetByIDCallCount      int32
	GetByTranIDCallCount  int32
	UpdateStatusCallCount int32

	// Error injection
	FindError         error
	TotalsError       error
	GetByTranIDError  error
	UpdateStatusError error

	// UpdateDelay widens the window between read and write for race tests.
	UpdateDelay time.Duration

	// OnUpdateStatus is called with the context of every status write.
	OnUpdateStatus func(ctx context.Context)
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment.Clone()
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[payment.ID]; exists {
		return repository.ErrDuplicateID
	}
	for _, p := range m.payments {
		if payment.HasTranID() && p.TranID == payment.TranID {
			return repository.ErrDuplicateTranID
		}
	}
	m.payments[payment.ID] = payment.Clone()
	return nil
}

func (m *MockPaymentRepository) Find(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error) {
	if m.FindError != nil {
		return nil, 0, m.FindError
	}
	filter = filter.Normalize()
	matched := m.matching(filter)

	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *MockPaymentRepository) Totals(ctx context.Context, filter domain.PaymentFilter) (domain.PaymentTotals, error) {
	if m.TotalsError != nil {
		return domain.PaymentTotals{}, m.TotalsError
	}
	var totals domain.PaymentTotals
	for _, p := range m.matching(filter) {
		totals.Count++
		if p.Status == domain.PaymentStatusCompleted {
			totals.CompletedCount++
			totals.CompletedAmount = totals.CompletedAmount.Add(p.Amount)
		}
	}
	return totals, nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	return payment.Clone(), nil
}

func (m *MockPaymentRepository) GetByTranID(ctx context.Context, tranID string) (*domain.Payment, error) {
	atomic.AddInt32(&m.GetByTranIDCallCount, 1)
	if m.GetByTranIDError != nil {
		return nil, m.GetByTranIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.HasTranID() && p.TranID == tranID {
			return p.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus, paymentDate *time.Time, updatedAt time.Time) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.OnUpdateStatus != nil {
		m.OnUpdateStatus(ctx)
	}
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	if m.UpdateDelay > 0 {
		time.Sleep(m.UpdateDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
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

// GetPayment returns a copy of a payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return p.Clone()
	}
	return nil
}

func (m *MockPaymentRepository) matching(filter domain.PaymentFilter) []*domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		if filter.Matches(p) {
			result = append(result, p.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore mimics the Redis payment lock: a held key is polled until
// it is free or the context is done.
type MockLockStore struct {
	mu   sync.Mutex
	held map[string]bool

	// Counters
	LockCallCount int32
	maxHeld       int32
	current       int32

	// Keys records every key that was locked, in order.
	Keys []string

	// Error injection
	LockError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[string]bool)}
}

// Hold marks a key as locked by someone else.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = true
}

// MaxConcurrent returns the highest number of locks held at the same time.
func (m *MockLockStore) MaxConcurrent() int32 {
	return atomic.LoadInt32(&m.maxHeld)
}

func (m *MockLockStore) Lock(ctx context.Context, key string) (func(), error) {
	atomic.AddInt32(&m.LockCallCount, 1)
	if m.LockError != nil {
		return nil, m.LockError
	}

	for {
		m.mu.Lock()
		if !m.held[key] {
			m.held[key] = true
			m.Keys = append(m.Keys, key)
			m.mu.Unlock()
			break
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-time.After(time.Millisecond):
		}
	}

	n := atomic.AddInt32(&m.current, 1)
	for {
		peak := atomic.LoadInt32(&m.maxHeld)
		if n <= peak || atomic.CompareAndSwapInt32(&m.maxHeld, peak, n) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			atomic.AddInt32(&m.current, -1)
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.held, key)
		})
	}, nil
}

// LockedKeys returns a copy of every key locked so far.
func (m *MockLockStore) LockedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Keys...)
}

// ──────────────────────────────────────────────
// MOCK STATS CACHE
// ──────────────────────────────────────────────

// MockStatsCache is an in-memory versioned stats cache.
type MockStatsCache struct {
	mu      sync.Mutex
	version int64
	entries map[string]domain.PaymentStats

	// Counters
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockStatsCache creates a new mock stats cache.
func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{entries: make(map[string]domain.PaymentStats)}
}

func (m *MockStatsCache) key(version int64, f domain.PaymentFilter) string {
	return fmt.Sprintf("%d|%s|%s|%s|%v|%v", version, f.Search, f.Status, f.PaymentMethod, f.StartDate, f.EndDate)
}

func (m *MockStatsCache) Get(ctx context.Context, filter domain.PaymentFilter) (*domain.PaymentStats, int64, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, 0, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if stats, ok := m.entries[m.key(m.version, filter)]; ok {
		return &stats, m.version, nil
	}
	return nil, m.version, nil
}

func (m *MockStatsCache) Set(ctx context.Context, filter domain.PaymentFilter, version int64, stats domain.PaymentStats) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(version, filter)] = stats
	return nil
}

func (m *MockStatsCache) Invalidate(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	return nil
}

// ──────────────────────────────────────────────
// FIXTURES
// ──────────────────────────────────────────────

var fixtureTime = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

// NewTestPayment builds a pending payment created minutesAgo before fixtureTime.
func NewTestPayment(id, tranID string, amount int64, status domain.PaymentStatus, minutesAgo int) *domain.Payment {
	created := fixtureTime.Add(-time.Duration(minutesAgo) * time.Minute)
	p := &domain.Payment{
		ID:            id,
		OrderID:       "ORD-" + id,
		TranID:        tranID,
		CustomerName:  "Customer " + id,
		CustomerEmail: id + "@academy.test",
		Amount:        decimal.NewFromInt(amount),
		Currency:      "BDT",
		Status:        status,
		PaymentMethod: domain.PaymentMethodBkash,
		Items:         []domain.PaymentItem{{Name: "Go Course", Price: decimal.NewFromInt(amount), Quantity: 1}},
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if status != domain.PaymentStatusPending {
		paid := created
		p.PaymentDate = &paid
	}
	return p
}
