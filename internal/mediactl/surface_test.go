package mediactl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

func update(title string, t models.TransportState) Update {
	return Update{
		Metadata:  models.NowPlayingMetadata{Title: title, Artist: "Trend Ankara"},
		Transport: t,
	}
}

func waitApplied(t *testing.T, b *MockBackend, n int) []Update {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := b.Applied(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d applied updates (got %d)", n, len(b.Applied()))
	return nil
}

func TestSurfacePublishesUpdate(t *testing.T) {
	b := NewMockBackend()
	s := NewSurface(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Publish(update("Song A", models.TransportPlaying))

	got := waitApplied(t, b, 1)
	if got[0].Metadata.Title != "Song A" {
		t.Errorf("applied title = %q, want %q", got[0].Metadata.Title, "Song A")
	}
}

func TestSurfaceNeverOverlapsPublishes(t *testing.T) {
	b := NewMockBackend()
	b.SetApplyDuration(20 * time.Millisecond)
	s := NewSurface(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	for i := 0; i < 10; i++ {
		s.Publish(update(string(rune('A'+i)), models.TransportPlaying))
		time.Sleep(3 * time.Millisecond)
	}

	waitApplied(t, b, 2)
	time.Sleep(100 * time.Millisecond)

	if n := b.Overlaps(); n != 0 {
		t.Errorf("overlapping publish sequences = %d, want 0", n)
	}
}

func TestSurfaceNewerSupersedesQueued(t *testing.T) {
	b := NewMockBackend()
	b.SetApplyDuration(50 * time.Millisecond)
	s := NewSurface(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Publish(update("first", models.TransportPlaying))
	time.Sleep(10 * time.Millisecond) // let the worker pick up "first"
	s.Publish(update("second", models.TransportPlaying))
	s.Publish(update("third", models.TransportPlaying))

	waitApplied(t, b, 2)
	time.Sleep(100 * time.Millisecond)
	got := b.Applied()

	// "second" was superseded while queued; "third" must win and "second"
	// must never have reached the backend.
	last := got[len(got)-1]
	if last.Metadata.Title != "third" {
		t.Errorf("last applied = %q, want %q", last.Metadata.Title, "third")
	}
	for _, u := range got {
		if u.Metadata.Title == "second" {
			t.Error("superseded update reached the backend")
		}
	}
}

func TestSurfaceSuppressesIdenticalUpdates(t *testing.T) {
	b := NewMockBackend()
	s := NewSurface(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	u := update("same", models.TransportPlaying)
	s.Publish(u)
	waitApplied(t, b, 1)

	s.Publish(u)
	s.Publish(u)
	time.Sleep(50 * time.Millisecond)

	if n := len(b.Applied()); n != 1 {
		t.Errorf("applied %d updates, want 1 (identical updates suppressed)", n)
	}
}

func TestSurfaceRetriesAfterFailure(t *testing.T) {
	b := NewMockBackend()
	b.SetApplyError(errors.New("surface busy"))
	s := NewSurface(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Publish(update("fails", models.TransportPlaying))
	time.Sleep(50 * time.Millisecond)
	if n := len(b.Applied()); n != 0 {
		t.Fatalf("expected no applied updates, got %d", n)
	}

	// A later publish (next poll tick) goes through once the surface recovers.
	b.SetApplyError(nil)
	s.Publish(update("recovers", models.TransportPlaying))
	got := waitApplied(t, b, 1)
	if got[0].Metadata.Title != "recovers" {
		t.Errorf("applied title = %q, want %q", got[0].Metadata.Title, "recovers")
	}
}

func TestUpdateEqual(t *testing.T) {
	a := update("x", models.TransportPlaying)
	if !a.Equal(update("x", models.TransportPlaying)) {
		t.Error("identical updates should be equal")
	}
	if a.Equal(update("x", models.TransportPaused)) {
		t.Error("different transport should not be equal")
	}
	if a.Equal(update("y", models.TransportPlaying)) {
		t.Error("different metadata should not be equal")
	}
}
