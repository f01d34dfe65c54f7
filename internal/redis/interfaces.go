package redis

import (
	"context"

	"payrecon/internal/domain"
)

// PaymentLockInterface serializes writes to one payment record.
// Lock blocks until the lock is held or ctx is done; the returned func
// releases it and is safe to call more than once.
type PaymentLockInterface interface {
	Lock(ctx context.Context, paymentID string) (unlock func(), err error)
}

// StatsCacheInterface caches statistics per filter. Get returns the cache
// version it read so that Set never stores stale results under a newer version.
type StatsCacheInterface interface {
	Get(ctx context.Context, filter domain.PaymentFilter) (*domain.PaymentStats, int64, error)
	Set(ctx context.Context, filter domain.PaymentFilter, version int64, stats domain.PaymentStats) error
	Invalidate(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ PaymentLockInterface = (*PaymentLocker)(nil)
	_ StatsCacheInterface  = (*StatsCache)(nil)
)
