package metadata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

type fetchStub struct {
	mu   sync.Mutex
	meta models.NowPlayingMetadata
	err  error
}

func (f *fetchStub) set(meta models.NowPlayingMetadata, err error) {
	f.mu.Lock()
	f.meta = meta
	f.err = err
	f.mu.Unlock()
}

func (f *fetchStub) fetch(_ context.Context) (models.NowPlayingMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta, f.err
}

type changeRecorder struct {
	mu      sync.Mutex
	changes []models.NowPlayingMetadata
}

func (r *changeRecorder) record(m models.NowPlayingMetadata) {
	r.mu.Lock()
	r.changes = append(r.changes, m)
	r.mu.Unlock()
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func waitChanges(t *testing.T, r *changeRecorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d changes (got %d)", n, r.count())
}

func TestPollerForwardsChange(t *testing.T) {
	stub := &fetchStub{}
	stub.set(models.NowPlayingMetadata{Title: "Track 1", Artist: "Artist"}, nil)
	rec := &changeRecorder{}

	p := NewPoller(stub.fetch, rec.record)
	p.Start(10 * time.Millisecond)
	defer p.Stop()

	waitChanges(t, rec, 1)
}

func TestPollerSuppressesUnchangedValue(t *testing.T) {
	stub := &fetchStub{}
	stub.set(models.NowPlayingMetadata{Title: "Same"}, nil)
	rec := &changeRecorder{}

	p := NewPoller(stub.fetch, rec.record)
	p.Start(5 * time.Millisecond)
	defer p.Stop()

	waitChanges(t, rec, 1)
	time.Sleep(80 * time.Millisecond)

	// Identical poll results must be compared by value and suppressed.
	if n := rec.count(); n != 1 {
		t.Errorf("forwarded %d updates for an unchanged value, want 1", n)
	}
}

func TestPollerRetriesAfterFetchError(t *testing.T) {
	stub := &fetchStub{}
	stub.set(models.NowPlayingMetadata{}, errors.New("status 503"))
	rec := &changeRecorder{}

	p := NewPoller(stub.fetch, rec.record)
	p.Start(10 * time.Millisecond)
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Fatalf("forwarded %d updates while fetch failing, want 0", n)
	}

	stub.set(models.NowPlayingMetadata{Title: "Recovered"}, nil)
	waitChanges(t, rec, 1)
}

func TestPollerStopIsIdempotent(t *testing.T) {
	stub := &fetchStub{}
	p := NewPoller(stub.fetch, func(models.NowPlayingMetadata) {})

	p.Stop() // never started
	p.Start(10 * time.Millisecond)
	if !p.Running() {
		t.Fatal("expected poller to be running")
	}
	p.Stop()
	p.Stop()
	if p.Running() {
		t.Fatal("expected poller to be stopped")
	}
}

func TestPollerIgnoresEmptyMetadata(t *testing.T) {
	stub := &fetchStub{}
	stub.set(models.NowPlayingMetadata{}, nil)
	rec := &changeRecorder{}

	p := NewPoller(stub.fetch, rec.record)
	p.Start(10 * time.Millisecond)
	defer p.Stop()

	time.Sleep(60 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("forwarded %d updates for empty metadata, want 0", n)
	}
}
