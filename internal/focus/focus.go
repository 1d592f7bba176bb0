// Package focus implements audio-focus arbitration.
// The engine requests exclusive focus before opening a stream and reacts to
// focus-change events; the actual arbitration mechanism is platform-specific
// behind the Coordinator interface.
package focus

import (
	"context"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Coordinator requests and abandons audio focus and relays OS focus-change
// notifications. Events are delivered asynchronously; implementations never
// call back into the engine.
type Coordinator interface {
	// Request asks for exclusive audio focus. Returns false when another
	// app legitimately owns playback; that denial is a policy decision,
	// not a transient failure.
	Request(ctx context.Context) (bool, error)

	// Abandon releases focus. Safe to call when focus is not held.
	Abandon(ctx context.Context) error

	// Events delivers focus-change notifications.
	Events() <-chan models.FocusEvent
}
