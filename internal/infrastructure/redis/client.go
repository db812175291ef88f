package redis

import (
	"context"
	"fmt"
	"net"

	"github.com/go-redis/redis/v8"

	config "github.com/mrgetwhateverdone/brandbuddy-production-sub000/configs"
)

// Options maps the Redis section of the config onto client options.
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Connect opens a client and pings it. Redis is optional: it returns nil, nil when no
// host is configured, and callers skip snapshot caching and rate limiting.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(Options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", net.JoinHostPort(cfg.Host, cfg.Port), err)
	}
	return client, nil
}
