package background

import (
	"context"
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/config"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Mock is an in-memory Coordinator for tests and --mock composition.
type Mock struct {
	mu       sync.Mutex
	result   Result
	entered  bool
	enters   int
	exits    int
	persists int
	store    config.Store
}

// NewMock creates a mock coordinator backed by the given store
// (NewMemStore if nil) that reports ResultOK on Enter.
func NewMock(store config.Store) *Mock {
	if store == nil {
		store = config.NewMemStore()
	}
	return &Mock{result: ResultOK, store: store}
}

// SetEnterResult scripts the result of subsequent Enter calls.
func (m *Mock) SetEnterResult(r Result) {
	m.mu.Lock()
	m.result = r
	m.mu.Unlock()
}

func (m *Mock) Enter(_ context.Context) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enters++
	m.entered = true
	return m.result, nil
}

func (m *Mock) Exit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exits++
	m.entered = false
	return nil
}

func (m *Mock) Persist(state models.SessionState) error {
	m.mu.Lock()
	m.persists++
	m.mu.Unlock()
	return m.store.Save(&state)
}

func (m *Mock) Restore() (*models.SessionState, error) {
	return m.store.Load()
}

// Entered reports whether background mode is currently registered.
func (m *Mock) Entered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entered
}

// Enters returns how many times Enter was called.
func (m *Mock) Enters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enters
}

// Persists returns how many times Persist was called.
func (m *Mock) Persists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persists
}

var _ Coordinator = (*Mock)(nil)
