package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key does not exist or has expired.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	client *redis.Client
}

type Options struct {
	Addr     string
	Password string
	DB       int
	// ConnectTimeout bounds the retried initial ping. Zero skips the ping.
	ConnectTimeout time.Duration
}

// New creates a Redis client and, when opts.ConnectTimeout is set, waits for the server to
// answer a ping.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	const operation = "redis.New"

	c := &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         opts.Addr,
			Password:     opts.Password,
			DB:           opts.DB,
			PoolSize:     100,
			MinIdleConns: 10,
		}),
	}
	if opts.ConnectTimeout <= 0 {
		return c, nil
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = opts.ConnectTimeout
	retryPolicy.MaxInterval = 5 * time.Second

	err := backoff.RetryNotify(
		func() error { return c.client.Ping(ctx).Err() },
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Redis ping failed, retrying...",
				zap.String("addr", opts.Addr),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%s: redis unreachable: %w", operation, err)
	}
	return c, nil
}

// Get retrieves a key's value
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Set sets a key's value with TTL. A zero ttl keeps the key until deleted.
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Del deletes keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}
