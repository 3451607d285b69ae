package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/gomodule/redigo/redis"
)

// Errors
var (
	ErrCacheUnavailable = errors.New("Cache is unavailable")
)

// Cache stores JSON encoded values for a limited time. A miss is not an
// error
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// NewPool builds the redigo pool shared by the cache and the session store
func NewPool(cfg config.Redis) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     cfg.MaxIdle,
		IdleTimeout: cfg.IdleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			opts := []redis.DialOption{redis.DialDatabase(cfg.Database)}
			if cfg.Password != "" {
				opts = append(opts, redis.DialPassword(cfg.Password))
			}
			return redis.DialContext(ctx, "tcp", cfg.Address, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

type redisCache struct {
	pool   *redis.Pool
	prefix string
}

// NewRedis returns a Cache backed by pool. Every key is namespaced by prefix
func NewRedis(pool *redis.Pool, prefix string) Cache {
	return &redisCache{
		pool:   pool,
		prefix: prefix,
	}
}

func (r *redisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "%v", ErrCacheUnavailable)
	}
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", r.prefix+key))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to read %s from cache", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to decode cached %s", key)
	}
	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to encode %s for cache", key)
	}
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "%v", ErrCacheUnavailable)
	}
	defer conn.Close()

	args := redis.Args{}.Add(r.prefix + key).Add(raw)
	if ttl > 0 {
		args = args.Add("PX").Add(ttl.Milliseconds())
	}
	if _, err := conn.Do("SET", args...); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to write %s to cache", key)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "%v", ErrCacheUnavailable)
	}
	defer conn.Close()

	args := redis.Args{}
	for _, k := range keys {
		args = args.Add(r.prefix + k)
	}
	if _, err := conn.Do("DEL", args...); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnavailable, "Failed to evict %v from cache", keys)
	}
	return nil
}

type entry struct {
	raw       []byte
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

// NewMemory returns a process local Cache. Used in development and tests
func NewMemory() Cache {
	return &memoryCache{
		now:     time.Now,
		entries: map[string]entry{},
	}
}

func (m *memoryCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return false, internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to decode cached %s", key)
	}
	return true, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInternal, "Failed to encode %s for cache", key)
	}
	e := entry{raw: raw}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
