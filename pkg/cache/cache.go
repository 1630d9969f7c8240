// Package cache provides a JSON read-through cache backed by Redis.
// A cache built from a Config without an address is a no-op, so callers
// never branch on whether caching is enabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/promptdex/pkg/lifecycle"
)

// System stores JSON-encoded values under namespaced keys.
type System interface {
	// Enabled reports whether a backing store is configured.
	Enabled() bool
	// Get decodes the value at key into dst. found is false on a miss.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	// Set encodes v and stores it at key with the configured TTL.
	Set(ctx context.Context, key string, v any) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
	// Start registers readiness and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache from cfg. An empty Addr returns a disabled cache.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if cfg.Addr == "" {
		return disabled{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeoutDuration(),
	})

	return &redisCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTLDuration(),
		logger: logger,
	}
}

func (c *redisCache) Enabled() bool {
	return true
}

func (c *redisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("discarding undecodable entry", "key", key, "error", err)
		if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
			c.logger.Warn("undecodable entry not removed", "key", key, "error", err)
		}
		return false, nil
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting cache client", "ttl", c.ttl)

	lc.AddCheck("cache", c.Ping)

	lc.OnStartup(func() {
		if err := c.Ping(lc.Context()); err != nil {
			c.logger.Warn("cache ping failed, continuing without warm connection", "error", err)
			return
		}
		c.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.client.Close(); err != nil {
			c.logger.Error("cache close failed", "error", err)
			return
		}
		c.logger.Info("cache connection closed")
	})

	return nil
}

type disabled struct{}

func (disabled) Enabled() bool                                  { return false }
func (disabled) Get(context.Context, string, any) (bool, error) { return false, nil }
func (disabled) Set(context.Context, string, any) error         { return nil }
func (disabled) Delete(context.Context, ...string) error        { return nil }
func (disabled) Ping(context.Context) error                     { return nil }
func (disabled) Start(*lifecycle.Coordinator) error             { return nil }
