package gateway

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockAdapter is an in-process gateway for local runs and tests.
// Transactions without a configured status report DefaultStatus.
type MockAdapter struct {
	mu       sync.RWMutex
	statuses map[string]Status
	err      error

	DefaultStatus Status
	calls         atomic.Int64
}

// NewMockAdapter creates a mock gateway that reports "success" by default.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		statuses:      make(map[string]Status),
		DefaultStatus: "success",
	}
}

// Name returns "mock".
func (m *MockAdapter) Name() string {
	return "mock"
}

// SetStatus configures the status reported for tranID.
func (m *MockAdapter) SetStatus(tranID string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[tranID] = status
}

// SetError makes every following query fail with err. Pass nil to clear.
func (m *MockAdapter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of queries served.
func (m *MockAdapter) Calls() int64 {
	return m.calls.Load()
}

// QueryStatus returns the configured status for tranID.
func (m *MockAdapter) QueryStatus(ctx context.Context, tranID string) (Status, error) {
	m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return "", m.err
	}
	if status, ok := m.statuses[tranID]; ok {
		return status, nil
	}
	return m.DefaultStatus, nil
}
