package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
)

var (
	// ErrNotFound is returned when no container exists under a name
	ErrNotFound = errors.New("cutscene not found")

	// ErrInvalidName is returned for names that cannot address a container
	ErrInvalidName = errors.New("invalid cutscene name")
)

// Storage defines a unified interface for container persistence.
// Implementations derive the storage location from the name, create it when
// absent and overwrite any container already stored under that name.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Container operations
	SaveContainer(ctx context.Context, name string, c *container.Container) error
	LoadContainer(ctx context.Context, name string) (*container.Container, error)
	ListContainers(ctx context.Context) ([]string, error)
	DeleteContainer(ctx context.Context, name string) error
}

// ValidateName rejects blank names and names that would escape the
// storage namespace
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidName, name)
	}
	return nil
}
