package focus

import (
	"context"
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Mock is an in-memory Coordinator for tests and --mock composition.
type Mock struct {
	mu       sync.Mutex
	deny     bool
	held     bool
	requests int
	abandons int
	events   chan models.FocusEvent
}

// NewMock creates a mock coordinator that grants focus by default.
func NewMock() *Mock {
	return &Mock{events: make(chan models.FocusEvent, 8)}
}

// SetDeny makes subsequent Request calls return denied.
func (m *Mock) SetDeny(deny bool) {
	m.mu.Lock()
	m.deny = deny
	m.mu.Unlock()
}

func (m *Mock) Request(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if m.deny {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *Mock) Abandon(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandons++
	m.held = false
	return nil
}

func (m *Mock) Events() <-chan models.FocusEvent { return m.events }

// Emit injects a focus event as if it came from the OS.
func (m *Mock) Emit(ev models.FocusEvent) {
	m.events <- ev
}

// Held reports whether focus is currently held.
func (m *Mock) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// Requests returns how many times Request was called.
func (m *Mock) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// Abandons returns how many times Abandon was called.
func (m *Mock) Abandons() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abandons
}

var _ Coordinator = (*Mock)(nil)
