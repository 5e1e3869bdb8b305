package redis

import (
	"context"
	"fmt"
	"time"

	config "github.com/avatarctic/health-cache/configs"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// NewRedisOptions builds client options from the connection URL and applies
// the pool, timeout and retry settings on top.
func NewRedisOptions(cfg *config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	if cfg.IdleTimeout > 0 {
		opts.IdleTimeout = cfg.IdleTimeout
	}
	opts.MaxRetries = cfg.MaxRetries
	if cfg.MinRetryBackoff > 0 {
		opts.MinRetryBackoff = cfg.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff > 0 {
		opts.MaxRetryBackoff = cfg.MaxRetryBackoff
	}
	return opts, nil
}

// Dialer opens Redis-backed remote stores.
type Dialer struct {
	opts        *redis.Options
	prefix      string
	pingTimeout time.Duration
}

// NewDialer returns nil when no URL is configured, which keeps the cache in
// local mode.
func NewDialer(cfg *config.RedisConfig) (*Dialer, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	opts, err := NewRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Dialer{opts: opts, prefix: cfg.KeyPrefix, pingTimeout: 5 * time.Second}, nil
}

// Dial implements ports.RemoteDialer.
func (d *Dialer) Dial(ctx context.Context, events ports.RemoteEvents) (ports.RemoteStore, error) {
	opts := *d.opts
	if events != nil {
		opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
			events.OnConnect()
			return nil
		}
	}
	client := redis.NewClient(&opts)

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, d.pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if events != nil {
		client.AddHook(newEventHook(events))
	}
	return NewRedisCache(client, d.prefix), nil
}
