package gateway

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a gateway call when no positive timeout is configured.
const DefaultTimeout = 10 * time.Second

// Guard bounds every call to the wrapped adapter with a timeout and a shared
// token bucket. Any failure is reported as ErrUnavailable.
type Guard struct {
	next    Adapter
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGuard wraps next. A non-positive timeout falls back to DefaultTimeout.
// A non-positive perSecond disables throttling.
func NewGuard(next Adapter, timeout time.Duration, perSecond float64, burst int) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &Guard{
		next:    next,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Name returns the wrapped adapter's name.
func (g *Guard) Name() string {
	return g.next.Name()
}

// QueryStatus waits for a token and queries the wrapped adapter, both within
// the guard timeout.
func (g *Guard) QueryStatus(ctx context.Context, tranID string) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, g.next.Name(), err)
	}

	status, err := g.next.QueryStatus(ctx, tranID)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, g.next.Name(), err)
	}
	if status == "" {
		return "", fmt.Errorf("%w: %s: empty status", ErrUnavailable, g.next.Name())
	}
	return status, nil
}
