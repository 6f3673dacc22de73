package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/redis/go-redis/v9"
)

// FlagStore persists the per-user "prompted on" date
type FlagStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Swap stores value and returns the previous live value in one atomic step
	Swap(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error)
}

// RedisClient is the part of *redis.Client used by RedisFlagStore
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetArgs(ctx context.Context, key string, value any, a redis.SetArgs) *redis.StatusCmd
}

// RedisFlagStore keeps flags in Redis so every instance shares them
type RedisFlagStore struct {
	client RedisClient
}

// NewRedisFlagStore creates a flag store on top of a redis client
func NewRedisFlagStore(client RedisClient) *RedisFlagStore {
	return &RedisFlagStore{client: client}
}

// Get returns the flag stored under key
func (r *RedisFlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read prompt flag: %w", err)
	}
	return val, true, nil
}

// Set stores the flag with a TTL
func (r *RedisFlagStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write prompt flag: %w", err)
	}
	return nil
}

// Swap uses SET ... GET (Redis 6.2+)
func (r *RedisFlagStore) Swap(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	prev, err := r.client.SetArgs(ctx, key, value, redis.SetArgs{TTL: ttl, Get: true}).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to swap prompt flag: %w", err)
	}
	return prev, true, nil
}

// MemoryFlagStore keeps flags in process. Values live in fastcache and
// their expiry times in a map, checked on read.
type MemoryFlagStore struct {
	mu      sync.Mutex
	cache   *fastcache.Cache
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryFlagStore creates an in-process flag store of at most maxBytes
func NewMemoryFlagStore(maxBytes int) *MemoryFlagStore {
	if maxBytes <= 0 {
		maxBytes = 32 * 1024 * 1024
	}
	return &MemoryFlagStore{
		cache:   fastcache.New(maxBytes),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Get returns the flag stored under key unless it has expired
func (m *MemoryFlagStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.get(key)
	return val, ok, nil
}

// Set stores the flag; a ttl <= 0 never expires
func (m *MemoryFlagStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value, ttl)
	return nil
}

// Swap stores value and returns the previous live value
func (m *MemoryFlagStore) Swap(_ context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.get(key)
	m.set(key, value, ttl)
	return prev, ok, nil
}

func (m *MemoryFlagStore) get(key string) (string, bool) {
	if exp, ok := m.expires[key]; ok && !m.now().Before(exp) {
		m.cache.Del([]byte(key))
		delete(m.expires, key)
		return "", false
	}
	val, ok := m.cache.HasGet(nil, []byte(key))
	if !ok {
		return "", false
	}
	return string(val), true
}

func (m *MemoryFlagStore) set(key, value string, ttl time.Duration) {
	m.cache.Set([]byte(key), []byte(value))
	if ttl > 0 {
		m.expires[key] = m.now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
}
