package internal

import (
	"context"
	"sync"
)

// Store keys. Each key has exactly one writer.
const (
	KeyTropesTable    = "dnd-tropes-data"
	KeyEncounterTable = "encounter-inputs-data"
	KeyPersonalTropes = "dnd-personal-tropes-data"
	KeyCustomInputs   = "custom-encounter-inputs"

	// KeyEncounterTropes caches the personal trope table attached to
	// encounters. It is fetched, unlike KeyPersonalTropes which is uploaded.
	KeyEncounterTropes = "encounter-personal-tropes-cache"
	KeyPromptTemplate  = "encounter-prompt-template"
)

// KVStore is a small persistent key-value store for raw table text and
// user data.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryStore is an in-process KVStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
