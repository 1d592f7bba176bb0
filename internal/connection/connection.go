// Package connection implements the stream connection subsystem.
// A Framework opens the actual media resource; the Manager owns at most one
// live Handle and serializes every open/close request so that no two
// connections ever overlap.
package connection

import (
	"context"
	"errors"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// ErrNoHandle is returned by handle operations when no connection is open.
var ErrNoHandle = errors.New("no open connection")

// EventKind identifies a connection lifecycle event.
type EventKind string

const (
	EventReady     EventKind = "ready"
	EventBuffering EventKind = "buffering"
	EventStalled   EventKind = "stalled"
	EventEnded     EventKind = "ended"
)

// Event is a lifecycle event delivered asynchronously to the engine's
// queue. Generation tags the session generation the originating request was
// issued under so stale events can be discarded.
type Event struct {
	Kind       EventKind
	Err        error
	Generation uint64
}

// HandleEvent is a lifecycle event originating from a live Handle.
type HandleEvent struct {
	Kind EventKind
	Err  error
}

// Handle is one live stream connection.
// Implementations deliver buffering/stalled/ended events on Events();
// the channel is closed when the handle ends or is closed.
type Handle interface {
	// Events delivers lifecycle events from the live connection.
	Events() <-chan HandleEvent

	// NowPlaying returns the stream's current inline metadata, if any.
	NowPlaying(ctx context.Context) (models.NowPlayingMetadata, error)

	// SetVolume sets the output gain [0.0, 1.0]. Used for ducking.
	SetVolume(v float64) error

	// Pause suspends consumption without releasing the connection.
	Pause() error

	// Resume continues consumption after Pause.
	Resume() error

	// Close releases the connection. Must be idempotent.
	Close(ctx context.Context) error
}

// Framework opens stream connections. It is the only point where the
// engine touches the platform media stack, so the rest of the engine is
// portable across implementations.
type Framework interface {
	Open(ctx context.Context, src models.StreamSource) (Handle, error)
}
