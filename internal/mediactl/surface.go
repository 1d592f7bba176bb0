// Package mediactl publishes now-playing metadata and transport state to
// the OS media control surface and relays remote transport commands back to
// the engine.
package mediactl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Update is one complete control-surface publication.
type Update struct {
	Metadata  models.NowPlayingMetadata
	Transport models.TransportState
}

// Equal reports whether two updates would render identically.
func (u Update) Equal(o Update) bool {
	return u.Transport == o.Transport && u.Metadata.Equal(o.Metadata)
}

// Backend performs one full multi-step publish sequence against the
// platform surface. Apply must run the whole sequence to completion (or
// explicit failure) before returning; any scheduled delay inside the
// sequence is awaited, never fired-and-forgotten.
type Backend interface {
	Apply(ctx context.Context, u Update) error
	Commands() <-chan models.RemoteCommand
}

// Surface serializes all publications: at most one Apply in flight and one
// pending. A newer update supersedes a still-queued one; an older update
// can never overwrite a newer one because the worker always takes the
// latest pending after the in-flight sequence fully completes.
type Surface struct {
	backend Backend

	mu      sync.Mutex
	pending *Update
	last    *Update

	wake chan struct{}
	wg   sync.WaitGroup
}

// NewSurface creates a surface over the given backend.
func NewSurface(backend Backend) *Surface {
	return &Surface{
		backend: backend,
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the publish worker.
func (s *Surface) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the publish worker has exited.
func (s *Surface) Wait() { s.wg.Wait() }

// Publish queues an update. Never blocks: if a sequence is in flight the
// update parks in the single pending slot, replacing any older queued one.
// Identical consecutive updates are suppressed.
func (s *Surface) Publish(u Update) {
	s.mu.Lock()
	if s.last != nil && s.last.Equal(u) && s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = &u
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Commands relays remote transport commands from the platform surface.
func (s *Surface) Commands() <-chan models.RemoteCommand {
	return s.backend.Commands()
}

func (s *Surface) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			u := s.pending
			s.pending = nil
			s.mu.Unlock()
			if u == nil {
				break
			}

			if err := s.backend.Apply(ctx, *u); err != nil {
				if ctx.Err() != nil {
					return
				}
				// Publish failure never affects playback; the next poll
				// tick or state change retries.
				slog.Warn("mediactl: publish failed", "transport", u.Transport, "err", err)
				continue
			}

			s.mu.Lock()
			s.last = u
			s.mu.Unlock()
		}
	}
}
