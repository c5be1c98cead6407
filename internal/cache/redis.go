// Package cache owns the single Redis connection pool of the service.
//
// Three concerns share it:
//
//	url:<id>          redirect hash, TTL capped by the URL's expiry
//	url:<id>:neg      not-found marker and delete tombstone
//	ratelimit:*       token buckets for identities and client IPs
//
// The visits pipeline borrows the same client through Client for its
// stream, so a single pool bounds all Redis traffic.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolConfig sizes the shared connection pool.
type PoolConfig struct {
	Size        int
	MinIdle     int
	Timeout     time.Duration
	MaxIdleTime time.Duration
}

// DefaultPoolConfig leaves room for the visits worker, which parks one
// connection in a blocking stream read.
var DefaultPoolConfig = PoolConfig{
	Size:        10,
	MinIdle:     2,
	Timeout:     4 * time.Second,
	MaxIdleTime: 5 * time.Minute,
}

// minPoolSize is one connection for the blocked stream reader plus one
// for request traffic.
const minPoolSize = 2

// Cache is the Redis-backed redirect cache and rate limiter.
type Cache struct {
	client *redis.Client
}

// New connects with DefaultPoolConfig.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	return NewWithPool(ctx, redisURL, DefaultPoolConfig)
}

// NewWithPool connects to redisURL and verifies the connection.
func NewWithPool(ctx context.Context, redisURL string, pool PoolConfig) (*Cache, error) {
	opt, err := clientOptions(redisURL, pool)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func clientOptions(redisURL string, pool PoolConfig) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = max(pool.Size, minPoolSize)
	opt.MinIdleConns = min(pool.MinIdle, opt.PoolSize)
	opt.PoolTimeout = pool.Timeout
	opt.ConnMaxIdleTime = pool.MaxIdleTime
	return opt, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the pool. The visits worker must be stopped first.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the shared client for the visit stream publisher and
// worker.
func (c *Cache) Client() *redis.Client {
	return c.client
}
