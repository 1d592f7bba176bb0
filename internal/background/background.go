// Package background keeps the process eligible for execution while the
// host application is backgrounded, and persists minimal session state
// across process restarts.
package background

import (
	"context"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Result is the outcome of entering background mode.
type Result string

const (
	// ResultOK means background execution is fully registered.
	ResultOK Result = "ok"
	// ResultDegraded means registration failed; playback continues
	// best-effort without the ongoing indicator.
	ResultDegraded Result = "degraded"
)

// Coordinator registers the process for background execution and owns the
// persisted session state.
type Coordinator interface {
	// Enter registers background execution. It returns only after the
	// registration (including any mandatory settle delay) has completed;
	// callers must treat it as synchronous-before-continue.
	Enter(ctx context.Context) (Result, error)

	// Exit releases the background registration. Safe to call when not
	// registered.
	Exit(ctx context.Context) error

	// Persist saves minimal session state. May be debounced.
	Persist(state models.SessionState) error

	// Restore loads the persisted session state, or nil if none exists.
	// It only ever rehydrates display state: restored playback always
	// comes back stopped, never playing.
	Restore() (*models.SessionState, error)
}
