package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

const keyPrefix = "cutscene:"

// RedisStorage stores JSON-encoded containers under cutscene:{name} keys
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis storage on an existing client. Close
// closes the client.
func NewRedisStorage(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisStorage) SaveContainer(ctx context.Context, name string, c *container.Container) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	data, err := container.Encode(c, container.FormatJSON)
	if err != nil {
		r.logger.Error("Failed to marshal container", "name", name, "error", err)
		return err
	}

	// No expiry: containers are authored content, not session state
	if err := r.client.Set(ctx, keyPrefix+name, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save container", "name", name, "error", err)
		return fmt.Errorf("failed to save container: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadContainer(ctx context.Context, name string) (*container.Container, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, keyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Container not found", "name", name)
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		r.logger.Error("Failed to load container", "name", name, "error", err)
		return nil, fmt.Errorf("failed to load container: %w", err)
	}

	c, err := container.Decode(data, container.FormatJSON)
	if err != nil {
		r.logger.Error("Failed to unmarshal container", "name", name, "error", err)
		return nil, err
	}
	return c, nil
}

func (r *RedisStorage) ListContainers(ctx context.Context) ([]string, error) {
	names := []string{}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Failed to scan containers", "error", err)
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisStorage) DeleteContainer(ctx context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	n, err := r.client.Del(ctx, keyPrefix+name).Result()
	if err != nil {
		r.logger.Error("Failed to delete container", "name", name, "error", err)
		return fmt.Errorf("failed to delete container: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return nil
}
