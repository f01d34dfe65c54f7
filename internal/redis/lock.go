package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	paymentLockPrefix = "lock:payment:"
	lockRetryInterval = 25 * time.Millisecond
	lockReleaseWait   = 2 * time.Second
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PaymentLocker is a Redis lock per payment record, shared by every
// replica of the service.
type PaymentLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPaymentLocker creates a new PaymentLocker. ttl bounds how long a crashed
// holder can block the record.
func NewPaymentLocker(client *redis.Client, ttl time.Duration) *PaymentLocker {
	return &PaymentLocker{client: client, ttl: ttl}
}

// Lock polls SET NX until the lock is acquired or ctx is done.
func (l *PaymentLocker) Lock(ctx context.Context, paymentID string) (func(), error) {
	key := paymentLockPrefix + paymentID
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *PaymentLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be gone.
			ctx, cancel := context.WithTimeout(context.Background(), lockReleaseWait)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		})
	}
}
