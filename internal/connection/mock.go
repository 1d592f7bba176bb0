package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// MockFramework is an in-memory Framework for tests. Open outcomes are
// scripted per call; once the script is exhausted every open succeeds.
type MockFramework struct {
	mu      sync.Mutex
	script  []error
	opened  []models.StreamSource
	handles []*MockHandle

	openCount   int
	liveHandles int
	maxLive     int
}

// NewMockFramework creates a mock framework with no scripted failures.
func NewMockFramework() *MockFramework {
	return &MockFramework{}
}

// ScriptOpenResults sets the outcome of the next opens, in order. A nil
// entry means success.
func (f *MockFramework) ScriptOpenResults(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, errs...)
}

// Open pops the next scripted result. On success it returns a live
// MockHandle and tracks the number of concurrently open handles.
func (f *MockFramework) Open(_ context.Context, src models.StreamSource) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.openCount++
	f.opened = append(f.opened, src)

	var err error
	if len(f.script) > 0 {
		err = f.script[0]
		f.script = f.script[1:]
	}
	if err != nil {
		return nil, err
	}

	h := &MockHandle{
		fw:     f,
		events: make(chan HandleEvent, 4),
	}
	f.handles = append(f.handles, h)
	f.liveHandles++
	if f.liveHandles > f.maxLive {
		f.maxLive = f.liveHandles
	}
	return h, nil
}

// OpenCount returns how many opens were attempted.
func (f *MockFramework) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCount
}

// OpenedSources returns the sources passed to Open, in order.
func (f *MockFramework) OpenedSources() []models.StreamSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.StreamSource, len(f.opened))
	copy(out, f.opened)
	return out
}

// MaxLiveHandles returns the peak number of concurrently open handles.
// The single-connection invariant requires this to never exceed 1.
func (f *MockFramework) MaxLiveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxLive
}

// LastHandle returns the most recently opened handle, or nil.
func (f *MockFramework) LastHandle() *MockHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.handles) == 0 {
		return nil
	}
	return f.handles[len(f.handles)-1]
}

func (f *MockFramework) handleClosed() {
	f.mu.Lock()
	f.liveHandles--
	f.mu.Unlock()
}

// MockHandle is a scriptable live connection for tests.
type MockHandle struct {
	fw     *MockFramework
	events chan HandleEvent

	mu        sync.Mutex
	meta      models.NowPlayingMetadata
	volume    float64
	paused    bool
	closed    bool
	closeOnce sync.Once
}

func (h *MockHandle) Events() <-chan HandleEvent { return h.events }

func (h *MockHandle) NowPlaying(_ context.Context) (models.NowPlayingMetadata, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meta, nil
}

// SetNowPlaying sets the metadata returned by NowPlaying.
func (h *MockHandle) SetNowPlaying(meta models.NowPlayingMetadata) {
	h.mu.Lock()
	h.meta = meta
	h.mu.Unlock()
}

func (h *MockHandle) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range", v)
	}
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	return nil
}

// Volume returns the last volume set via SetVolume.
func (h *MockHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *MockHandle) Pause() error {
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()
	return nil
}

func (h *MockHandle) Resume() error {
	h.mu.Lock()
	h.paused = false
	h.mu.Unlock()
	return nil
}

// Paused reports whether the handle is currently paused.
func (h *MockHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *MockHandle) Close(_ context.Context) error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.events)
		h.fw.handleClosed()
	})
	return nil
}

// Closed reports whether Close has been called.
func (h *MockHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Emit injects a lifecycle event as if it came from the live stream.
// No-op if the handle is already closed. The mutex is held across the send
// so Close cannot close the channel under a concurrent Emit.
func (h *MockHandle) Emit(ev HandleEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.events <- ev
}

// Ensure mock types satisfy the contracts
var (
	_ Framework = (*MockFramework)(nil)
	_ Handle    = (*MockHandle)(nil)
)
