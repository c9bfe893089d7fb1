package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hopecycle/internal/platform/config"
)

// Client is the shared Redis handle used by the session store and the
// notification fan-out sink.
type Client struct {
	*redis.Client
}

// New dials Redis using the settings from config. An empty URL means the
// deployment runs without Redis; New reports that by returning a nil client
// with no error, and callers fall back to in-memory equivalents.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rc := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{Client: rc}, nil
}

// Health reports whether Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
