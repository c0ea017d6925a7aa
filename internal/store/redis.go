package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements KV on a Redis server. Keys are namespaced with an
// optional prefix so several games can share one instance.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

// CachedStore wraps a primary KV (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and refresh the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary KV
	rdb     *redis.Client
	ttl     time.Duration
	prefix  string
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary KV, rdb *redis.Client, ttl time.Duration, prefix string) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
		prefix:  prefix,
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, s.cacheKey(key)).Bytes()
	if err == nil {
		return data, nil
	}

	// Cache miss: read from primary.
	data, err = s.primary.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, key, data)
	return data, nil
}

func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.primary.Set(ctx, key, value); err != nil {
		return err
	}
	s.cache(ctx, key, value)
	return nil
}

// cache is best effort. On a failed write the stale entry is dropped.
func (s *CachedStore) cache(ctx context.Context, key string, value []byte) {
	if err := s.rdb.Set(ctx, s.cacheKey(key), value, s.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
		s.rdb.Del(ctx, s.cacheKey(key))
	}
}

func (s *CachedStore) cacheKey(k string) string {
	if s.prefix == "" {
		return fmt.Sprintf("cache:%s", k)
	}
	return fmt.Sprintf("%s:cache:%s", s.prefix, k)
}
