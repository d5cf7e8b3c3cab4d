// Package rediscache implements a Redis-backed statistic cache for
// deployments that share derived statistics across processes, for example a
// dashboard fleet reading averages computed by an ingestion instance. The
// in-process cache keeps its own TTL/LRU semantics; this backend mirrors the
// same get/put/invalidate surface over Redis with native key expiry.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address in "host:port" format.
	Addr string

	// Password is the authentication password (empty if no auth).
	Password string

	// DB is the Redis database number.
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration

	// TTL applied to every entry; Redis expires keys natively, so there is
	// no sweep goroutine here.
	TTL time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		TTL:          5 * time.Minute,
	}
}

var (
	// ErrMiss is returned when the requested key is not found.
	ErrMiss = errors.New("rediscache: key not found")

	// ErrConnection is returned when the Redis connection fails.
	ErrConnection = errors.New("rediscache: connection failed")

	// ErrSerialization is returned when encoding or decoding fails.
	ErrSerialization = errors.New("rediscache: serialization failed")
)

// keyPrefix namespaces every statistic key.
const keyPrefix = "gradehub:stat:"

// Cache is the Redis-backed statistic cache.
type Cache struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &Cache{client: client, cfg: cfg}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks that Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// statKey builds the namespaced key for a kind/key pair.
func statKey(kind, key string) string {
	return keyPrefix + kind + ":" + key
}

// Get retrieves a statistic. Returns ErrMiss when absent or expired.
func (c *Cache) Get(ctx context.Context, kind, key string) (float64, error) {
	data, err := c.client.Get(ctx, statKey(kind, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrMiss
		}
		return 0, err
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return v, nil
}

// Put stores a statistic with the configured TTL.
func (c *Cache) Put(ctx context.Context, kind, key string, value float64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return c.client.Set(ctx, statKey(kind, key), data, c.cfg.TTL).Err()
}

// Invalidate removes every kind's entry for a key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.deleteByPattern(ctx, keyPrefix+"*:"+key)
}

// InvalidateAll clears every statistic entry.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	return c.deleteByPattern(ctx, keyPrefix+"*")
}

// deleteByPattern scans and deletes matching keys. SCAN keeps Redis
// responsive on large keyspaces where KEYS would block.
func (c *Cache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// AverageSource is the slice of the ledger the warm routine reads.
type AverageSource interface {
	OverallAverage(id string) float64
}

// WarmStudentAverages bulk-loads the student-average statistic for the given
// students, typically at startup before traffic arrives.
func (c *Cache) WarmStudentAverages(ctx context.Context, src AverageSource, studentIDs []string) error {
	pipe := c.client.Pipeline()
	for _, id := range studentIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(src.OverallAverage(id))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		pipe.Set(ctx, statKey("student-average", id), data, c.cfg.TTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
