// Package cache wraps go-redis v9 behind the small surface the cached
// repositories use. When Redis is disabled or unreachable the repositories
// run against the primary store alone.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetgrid/backend/internal/status"
)

// Client is a thin Redis wrapper. Errors are reported as statuses so callers
// can tell a miss (NotFound) from an outage (Unavailable).
type Client struct {
	rdb *redis.Client
}

// Connect dials Redis and verifies connectivity with a ping.
func Connect(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, status.Newf(status.CodeUnavailable, "redis ping failed (%s): %v", addr, err).Err()
	}

	slog.Info("redis connected", "addr", addr, "db", db)
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", status.NotFound("key not found: " + key).Err()
	}
	if err != nil {
		return "", status.Unavailable(err.Error()).Err()
	}
	return val, nil
}

func (c *Client) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return status.Unavailable(err.Error()).Err()
	}
	return nil
}

func (c *Client) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return status.Unavailable(err.Error()).Err()
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, status.Unavailable(err.Error()).Err()
	}
	return n > 0, nil
}
