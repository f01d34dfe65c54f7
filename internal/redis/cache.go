package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"payrecon/internal/domain"
)

// Key prefixes
const (
	statsVersionKey  = "stats:version"
	statsCachePrefix = "cache:stats:"
)

// StatsCache caches list statistics per filter. Every write to a payment
// bumps a version counter, which orphans all cached entries at once.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a new StatsCache.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get retrieves cached stats and the current version. A miss returns nil stats.
func (c *StatsCache) Get(ctx context.Context, filter domain.PaymentFilter) (*domain.PaymentStats, int64, error) {
	version, err := c.client.Get(ctx, statsVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, statsKey(version, filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, nil // Cache miss
		}
		return nil, version, err
	}

	var stats domain.PaymentStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, version, err
	}
	return &stats, version, nil
}

// Set stores stats computed while the cache was at version.
func (c *StatsCache) Set(ctx context.Context, filter domain.PaymentFilter, version int64, stats domain.PaymentStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(version, filter), data, c.ttl).Err()
}

// Invalidate bumps the version so existing entries are never read again.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, statsVersionKey).Err()
}

// statsKey derives the cache key from the version and the filter predicates.
// Paging does not affect stats and is left out.
func statsKey(version int64, f domain.PaymentFilter) string {
	var start, end string
	if f.StartDate != nil {
		start = f.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if f.EndDate != nil {
		end = f.EndDate.UTC().Format(time.RFC3339Nano)
	}

	raw := fmt.Sprintf("%s|%s|%s|%s|%s", f.Search, f.Status, f.PaymentMethod, start, end)
	sum := sha1.Sum([]byte(raw))
	return statsCachePrefix + strconv.FormatInt(version, 10) + ":" + hex.EncodeToString(sum[:])
}
