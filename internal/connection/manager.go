package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

const requestQueueSize = 8

type requestKind int

const (
	reqOpen requestKind = iota
	reqClose
)

type request struct {
	kind       requestKind
	src        models.StreamSource
	generation uint64
}

// Manager owns the single live stream connection.
// Open/close requests are executed strictly one at a time by the run loop;
// a request arriving while another is in flight queues behind it. Lifecycle
// events are delivered on Events(), never via synchronous callback.
type Manager struct {
	fw          Framework
	openTimeout time.Duration

	requests chan request
	events   chan Event

	mu        sync.Mutex
	handle    Handle
	handleGen uint64

	wg sync.WaitGroup
}

// NewManager creates a Manager over the given framework.
func NewManager(fw Framework, openTimeout time.Duration) *Manager {
	return &Manager{
		fw:          fw,
		openTimeout: openTimeout,
		requests:    make(chan request, requestQueueSize),
		events:      make(chan Event, requestQueueSize),
	}
}

// Events delivers connection lifecycle events, tagged with the generation
// of the originating request.
func (m *Manager) Events() <-chan Event { return m.events }

// RequestOpen queues an open of the given source. Any live handle is fully
// closed before the new connection is attempted.
func (m *Manager) RequestOpen(src models.StreamSource, generation uint64) {
	m.enqueue(request{kind: reqOpen, src: src, generation: generation})
}

// RequestClose queues a close of the live handle, if any.
func (m *Manager) RequestClose(generation uint64) {
	m.enqueue(request{kind: reqClose, generation: generation})
}

func (m *Manager) enqueue(req request) {
	select {
	case m.requests <- req:
	default:
		// The engine issues at most one outstanding request per session;
		// overflow means something upstream is broken.
		slog.Error("connection: request queue full, dropping request", "kind", req.kind)
	}
}

// Start launches the request loop. Cancelling ctx closes any live handle
// and stops the loop.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

// Wait blocks until the request loop has exited.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	defer m.closeCurrent(context.Background())

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-m.requests:
			switch req.kind {
			case reqOpen:
				m.doOpen(ctx, req)
			case reqClose:
				m.closeCurrent(ctx)
			}
		}
	}
}

// doOpen closes the previous handle (awaited to completion), then opens the
// requested source under the configured timeout.
func (m *Manager) doOpen(ctx context.Context, req request) {
	m.closeCurrent(ctx)

	openCtx, cancel := context.WithTimeout(ctx, m.openTimeout)
	defer cancel()

	slog.Info("connection: opening stream", "name", req.src.Name, "url", req.src.URL)
	h, err := m.fw.Open(openCtx, req.src)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("connection: open failed", "name", req.src.Name, "err", err)
		m.emit(Event{Kind: EventEnded, Err: fmt.Errorf("open %s: %w", req.src.URL, err), Generation: req.generation})
		return
	}

	m.mu.Lock()
	m.handle = h
	m.handleGen = req.generation
	m.mu.Unlock()

	m.emit(Event{Kind: EventReady, Generation: req.generation})

	// Forward handle lifecycle events until the handle ends or is replaced.
	m.wg.Add(1)
	go m.forward(h, req.generation)
}

// forward relays events from a live handle onto the manager event channel.
// An ended stream releases its handle before the event is emitted, so by
// the time a consumer sees ended, HasHandle is already false and a resume
// cannot land on the dead connection.
func (m *Manager) forward(h Handle, generation uint64) {
	defer m.wg.Done()
	for ev := range h.Events() {
		if ev.Kind == EventEnded {
			m.release(h)
			m.emit(Event{Kind: ev.Kind, Err: ev.Err, Generation: generation})
			return
		}
		m.emit(Event{Kind: ev.Kind, Err: ev.Err, Generation: generation})
	}
}

// release drops and closes a handle that ended on its own. The identity
// check keeps a racing open's fresh handle intact.
func (m *Manager) release(h Handle) {
	m.mu.Lock()
	if m.handle == h {
		m.handle = nil
	}
	m.mu.Unlock()
	if err := h.Close(context.Background()); err != nil {
		slog.Warn("connection: close after stream end", "err", err)
	}
}

// closeCurrent closes the live handle, if any, and waits for the close to
// complete before returning. A new open must never start while the old
// handle is still releasing.
func (m *Manager) closeCurrent(ctx context.Context) {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.Close(ctx); err != nil {
		slog.Warn("connection: close error", "err", err)
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		slog.Warn("connection: event dropped (queue full)", "kind", ev.Kind)
	}
}

// HasHandle reports whether a connection is currently open.
func (m *Manager) HasHandle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// SetVolume adjusts the live handle's gain. Used for ducking.
func (m *Manager) SetVolume(v float64) error {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()
	if h == nil {
		return ErrNoHandle
	}
	return h.SetVolume(v)
}

// Pause suspends the live handle without releasing it.
func (m *Manager) Pause() error {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()
	if h == nil {
		return ErrNoHandle
	}
	return h.Pause()
}

// Resume continues a paused handle.
func (m *Manager) Resume() error {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()
	if h == nil {
		return ErrNoHandle
	}
	return h.Resume()
}

// Handle returns the live handle, or nil.
func (m *Manager) Handle() Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}
