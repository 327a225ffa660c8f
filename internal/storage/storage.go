package storage

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/cutscene-engine/internal/config"
	"github.com/jwebster45206/cutscene-engine/internal/services"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

// New builds the backend named by cfg.StorageBackend
func New(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendFile, "":
		logger.Info("Using filesystem storage", "data_dir", cfg.DataDir, "format", cfg.ContainerFormat)
		return NewFileStorage(cfg.DataDir, cfg.ContainerFormat, logger), nil
	case config.BackendRedis:
		client, err := services.NewRedisClient(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis storage", "url", cfg.RedisURL)
		return NewRedisStorage(client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
