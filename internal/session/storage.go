package session

import (
	"context"
	"sync"
)

// Storage is the durable key-value store a session persists through.
// Read returns ok=false when the key is absent. The engine only needs
// last-write-wins semantics on a single key.
type Storage interface {
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)
	Write(ctx context.Context, key string, data []byte) error
}

// MemoryStorage is an in-process Storage used by tests and single-node dev
// runs. Sessions stored here do not survive a restart.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Read returns the stored value for key, if any.
func (m *MemoryStorage) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Write stores value under key, replacing any previous value.
func (m *MemoryStorage) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}
