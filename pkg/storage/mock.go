package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	containers map[string][]byte
	saves      int
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		containers: make(map[string][]byte),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveContainer stores an encoded copy so later mutation of c is not visible
func (m *MockStorage) SaveContainer(ctx context.Context, name string, c *container.Container) error {
	if c == nil {
		return errors.New("container cannot be nil")
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := container.Encode(c, container.FormatJSON)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[name] = data
	m.saves++
	return nil
}

// LoadContainer returns a fresh copy of the stored container
func (m *MockStorage) LoadContainer(ctx context.Context, name string) (*container.Container, error) {
	m.mu.RLock()
	data, exists := m.containers[name]
	m.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return container.Decode(data, container.FormatJSON)
}

// ListContainers returns the stored names in sorted order
func (m *MockStorage) ListContainers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.containers))
	for name := range m.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteContainer removes a stored container
func (m *MockStorage) DeleteContainer(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.containers[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(m.containers, name)
	return nil
}

// AddRaw stores pre-encoded JSON under a name (for testing legacy data)
func (m *MockStorage) AddRaw(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers[name] = data
}

// SaveCount reports how many successful SaveContainer calls were made
func (m *MockStorage) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
