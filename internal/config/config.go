package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DataDir         string
	StorageBackend  string
	RedisURL        string
	ContainerFormat container.Format

	SceneManifest string
	EventsEnabled bool
}

// Load reads configuration from the environment and validates it
func Load() (*Config, error) {
	format, err := container.ParseFormat(getEnv("CONTAINER_FORMAT", "json"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONTAINER_FORMAT: %w", err)
	}

	events, err := parseBool(getEnv("EVENTS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENTS_ENABLED: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DataDir:         getEnv("DATA_DIR", "./data"),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		ContainerFormat: format,
		SceneManifest:   getEnv("SCENE_MANIFEST", ""),
		EventsEnabled:   events,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: must be numeric", c.Port)
	}

	switch c.StorageBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file storage backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis storage backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: supported values are %s, %s", c.StorageBackend, BackendFile, BackendRedis)
	}

	if c.EventsEnabled && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when EVENTS_ENABLED is set")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", value)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
