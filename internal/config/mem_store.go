package config

import (
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// MemStore is an in-memory Store for tests that never writes to disk.
type MemStore struct {
	mu    sync.Mutex
	state *models.SessionState
}

// NewMemStore returns a new in-memory store with no persisted state.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load returns a copy of the stored state, or nil if none has been saved.
func (m *MemStore) Load() (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

// Save stores a copy of the given state in memory.
func (m *MemStore) Save(state *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.state = &cp
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

// Flush is a no-op for in-memory stores.
func (m *MemStore) Flush() error { return nil }

// Ensure MemStore implements config.Store
var _ Store = (*MemStore)(nil)
