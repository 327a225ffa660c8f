package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions parses either a redis:// URL or a bare host:port address
func RedisOptions(redisURL string) (*redis.Options, error) {
	if !strings.Contains(redisURL, "://") {
		return &redis.Options{Addr: redisURL}, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return opt, nil
}

// NewRedisClient creates a client without contacting the server. Use
// WaitForConnection during startup.
func NewRedisClient(redisURL string, logger *slog.Logger) (*redis.Client, error) {
	opt, err := RedisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("Redis client configured", "addr", opt.Addr, "db", opt.DB)
	return redis.NewClient(opt), nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func WaitForConnection(ctx context.Context, client *redis.Client, logger *slog.Logger, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
