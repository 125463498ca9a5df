package persist

import (
	"context"
	"sync"
)

// MemoryBackend keeps snapshots in process memory. Used when redis is not configured.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Read(_ context.Context, sessionID, slice string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[memoryKey(sessionID, slice)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryBackend) Write(_ context.Context, sessionID, slice string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memoryKey(sessionID, slice)] = stored
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, sessionID, slice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memoryKey(sessionID, slice))
	return nil
}

func memoryKey(sessionID, slice string) string {
	return sessionID + ":" + slice
}
