// Package dedup records structured de-duplication keys for a time window.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger grants at most one claim per key within a window.
type Ledger interface {
	// Claim returns true when the caller now owns key until now+window,
	// false when a live claim already exists.
	Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error)
	// Release drops a claim, e.g. when the guarded side effect failed.
	Release(ctx context.Context, key string) error
}

// Key joins the parts of a structured key. Empty parts are kept so that
// positions stay stable.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// RedisLedger stores claims as Redis keys with a TTL (SET NX EX).
// Expiry follows the Redis server clock, not the now passed to Claim.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLedger creates a ledger storing keys under prefix.
func NewRedisLedger(client redis.UniversalClient, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "fleet:dedup:"
	}
	return &RedisLedger{client: client, prefix: prefix}
}

// NewRedisClient creates a Redis client with the pool settings used by the jobs.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func (l *RedisLedger) Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, now.UTC().Format(time.RFC3339), window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// MemoryLedger keeps claims in process memory, expiring them against the
// now supplied by the caller.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time // key -> expiry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]time.Time)}
}

func (l *MemoryLedger) Claim(_ context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if exp, ok := l.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.claims[key] = now.Add(window)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.claims, key)
	l.mu.Unlock()
	return nil
}
