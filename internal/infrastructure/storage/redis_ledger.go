package storage

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/redis/go-redis/v9"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// RedisLedger keeps delivered keys in a Redis set, mirrored in memory.
type RedisLedger struct {
	rdb *redis.Client
	key string

	mu   sync.RWMutex
	keys domain.KeySet
}

var _ ports.SentLedger = (*RedisLedger)(nil)

// OpenRedisLedger connects and loads the whole set.
func OpenRedisLedger(ctx context.Context, opts *redis.Options, setKey string) (*RedisLedger, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	members, err := rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("load ledger %s: %w", setKey, err)
	}

	keys := make(domain.KeySet, len(members))
	for _, m := range members {
		keys.Add(m)
	}
	return &RedisLedger{rdb: rdb, key: setKey, keys: keys}, nil
}

// Close releases the Redis connection.
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}

// Contains reports whether key was already delivered.
func (l *RedisLedger) Contains(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.keys.Has(key)
}

// Record adds key to the set once Redis acknowledges the write.
func (l *RedisLedger) Record(ctx context.Context, key string) error {
	if l.Contains(key) {
		return nil
	}
	if err := l.rdb.SAdd(ctx, l.key, key).Err(); err != nil {
		return fmt.Errorf("record %s in ledger: %w", key, err)
	}

	l.mu.Lock()
	l.keys.Add(key)
	l.mu.Unlock()
	return nil
}

// Keys returns a snapshot of the delivered set.
func (l *RedisLedger) Keys() domain.KeySet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.keys)
}
