package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/storage"
)

// FileStorage stores containers as files under {dataDir}/cutscenes
type FileStorage struct {
	dir    string
	format container.Format
	logger *slog.Logger
}

// Ensure FileStorage implements Storage interface
var _ storage.Storage = (*FileStorage)(nil)

// NewFileStorage creates a filesystem storage. New containers are written
// in format; either format is read back.
func NewFileStorage(dataDir string, format container.Format, logger *slog.Logger) *FileStorage {
	if dataDir == "" {
		dataDir = "./data"
	}
	if format == "" {
		format = container.FormatJSON
	}
	return &FileStorage{
		dir:    filepath.Join(dataDir, "cutscenes"),
		format: format,
		logger: logger,
	}
}

// Ping checks that the storage directory exists or can be created
func (f *FileStorage) Ping(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) path(name string, format container.Format) string {
	return filepath.Join(f.dir, name+format.Ext())
}

// SaveContainer writes through a temp file and rename so readers never see
// a partial container. A copy in the other format is removed so the name
// resolves to one file.
func (f *FileStorage) SaveContainer(ctx context.Context, name string, c *container.Container) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	data, err := container.Encode(c, f.format)
	if err != nil {
		f.logger.Error("Failed to encode container", "name", name, "error", err)
		return err
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write container: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	target := f.path(name, f.format)
	if err := os.Rename(tmpName, target); err != nil {
		f.logger.Error("Failed to save container", "name", name, "path", target, "error", err)
		return fmt.Errorf("failed to save container: %w", err)
	}

	for _, other := range []container.Format{container.FormatJSON, container.FormatYAML} {
		if other != f.format {
			_ = os.Remove(f.path(name, other))
		}
	}

	f.logger.Debug("Container saved", "name", name, "path", target)
	return nil
}

func (f *FileStorage) LoadContainer(ctx context.Context, name string) (*container.Container, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	for _, format := range f.readOrder() {
		path := f.path(name, format)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read container file: %w", err)
		}

		c, err := container.Decode(data, format)
		if err != nil {
			f.logger.Error("Failed to decode container", "path", path, "error", err)
			return nil, err
		}
		return c, nil
	}

	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
}

func (f *FileStorage) readOrder() []container.Format {
	if f.format == container.FormatYAML {
		return []container.Format{container.FormatYAML, container.FormatJSON}
	}
	return []container.Format{container.FormatJSON, container.FormatYAML}
}

func (f *FileStorage) ListContainers(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read cutscenes directory: %w", err)
	}

	seen := make(map[string]bool)
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".json" && ext != ".yaml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileStorage) DeleteContainer(ctx context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	removed := false
	for _, format := range []container.Format{container.FormatJSON, container.FormatYAML} {
		err := os.Remove(f.path(name, format))
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, os.ErrNotExist):
		default:
			f.logger.Error("Failed to delete container", "name", name, "error", err)
			return fmt.Errorf("failed to delete container: %w", err)
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return nil
}
