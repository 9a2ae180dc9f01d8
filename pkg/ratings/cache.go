package ratings

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sasha-s/go-deadlock"
)

// Cache holds encoded rating lookups. Implementations may drop entries at
// any time, but generations must outlive the entries keyed on them.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	// Generation reads a named counter, zero when it was never bumped.
	Generation(ctx context.Context, name string) (int64, error)
	// Bump increments a named counter and returns its new value.
	Bump(ctx context.Context, name string) (int64, error)
}

var Missing = fmt.Errorf("rating not cached")

const (
	RATING_KEY     = "tally-rating-%s"
	GENERATION_KEY = "tally-rating-gen-%s"
	RATING_EXPIRY  = time.Duration(1 * time.Hour)
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	entries     map[string]memoryEntry
	generations map[string]int64
	ttl         time.Duration
	mutex       deadlock.Mutex
	// Now is the clock used for expiry.
	Now func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = RATING_EXPIRY
	}

	return &MemoryCache{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]int64),
		ttl:         ttl,
		Now:         time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, Missing
	}

	if !m.Now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, Missing
	}

	return entry.data, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = memoryEntry{
		data:    append([]byte(nil), data...),
		expires: m.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryCache) Generation(ctx context.Context, name string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.generations[name], nil
}

func (m *MemoryCache) Bump(ctx context.Context, name string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.generations[name]++
	return m.generations[name], nil
}

// Clear drops every entry. Generations are kept.
func (m *MemoryCache) Clear() {
	m.mutex.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mutex.Unlock()
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = RATING_EXPIRY
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// DialRedis connects to the Redis server at address and checks that it
// answers.
func DialRedis(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not reach redis at %s: %w", address, err)
	}

	return client, nil
}

func (r *RedisCache) Get(ctx context.Context, id string) ([]byte, error) {
	key := fmt.Sprintf(RATING_KEY, id)
	data, err := r.client.Get(ctx, key).Bytes()

	if err == redis.Nil {
		return nil, Missing
	}

	if err != nil {
		return nil, err
	}

	return data, nil
}

func (r *RedisCache) Set(ctx context.Context, id string, data []byte) error {
	key := fmt.Sprintf(RATING_KEY, id)
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

// Generations are shared by every process using the server and never
// expire.
func (r *RedisCache) Generation(ctx context.Context, name string) (int64, error) {
	key := fmt.Sprintf(GENERATION_KEY, name)
	value, err := r.client.Get(ctx, key).Int64()

	if err == redis.Nil {
		return 0, nil
	}

	return value, err
}

func (r *RedisCache) Bump(ctx context.Context, name string) (int64, error) {
	key := fmt.Sprintf(GENERATION_KEY, name)
	return r.client.Incr(ctx, key).Result()
}

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*RedisCache)(nil)
