package config

import "github.com/NeverGET/trendankara-mobile-sub004/internal/models"

// Store is the interface for persisting minimal session state across
// process restarts.
type Store interface {
	// Load loads the persisted session state. Returns (nil, nil) if none
	// has been persisted yet.
	Load() (*models.SessionState, error)

	// Save persists the session state. Implementations may debounce rapid
	// saves.
	Save(state *models.SessionState) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending state.
	Flush() error
}
