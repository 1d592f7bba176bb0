// Package player implements the playback state machine. The engine owns the
// single playback session and is its only writer: user commands, remote
// transport commands, focus changes, connection events, background
// transitions, and metadata updates are all serialized into one queue and
// handled one at a time by the run loop.
package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/background"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/connection"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/events"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/focus"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/mediactl"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

const (
	queueSize  = 32
	duckVolume = 0.2
	fullVolume = 1.0
)

// PollerControl is the engine's handle on the metadata poller. The poller
// feeds updates back through UpdateMetadata; the engine only starts and
// stops it.
type PollerControl interface {
	Start(interval time.Duration)
	Stop()
	Running() bool
}

type eventKind int

const (
	evCommand eventKind = iota
	evRetryFire
	evBackground
	evForeground
	evMetadata
	evSources
)

type event struct {
	kind       eventKind
	cmd        models.RemoteCommandKind
	cmdSource  string
	generation uint64
	meta       models.NowPlayingMetadata
	sources    []models.StreamSource
	ack        chan error
}

// Options wires the engine's collaborators. Conn, Focus, Background,
// Surface, Bus and Sources are required; the rest have defaults.
type Options struct {
	Conn         *connection.Manager
	Focus        focus.Coordinator
	Background   background.Coordinator
	Surface      *mediactl.Surface
	Bus          *events.Bus
	Sources      *SourceList
	Policy       Policy
	Poller       PollerControl
	PollInterval time.Duration
	FallbackMeta models.NowPlayingMetadata
	Restored     *models.SessionState
	Logger       *slog.Logger
}

// Engine runs the playback state machine.
type Engine struct {
	log     *slog.Logger
	conn    *connection.Manager
	focus   focus.Coordinator
	bg      background.Coordinator
	surface *mediactl.Surface
	bus     *events.Bus
	sources *SourceList
	policy  Policy

	poller       PollerControl
	pollInterval time.Duration
	fallbackMeta models.NowPlayingMetadata

	queue      chan event
	session    models.PlaybackSession
	retryTimer *time.Timer

	snapMu   sync.RWMutex
	snapshot models.Snapshot

	wg sync.WaitGroup
}

func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	e := &Engine{
		log:          opts.Logger,
		conn:         opts.Conn,
		focus:        opts.Focus,
		bg:           opts.Background,
		surface:      opts.Surface,
		bus:          opts.Bus,
		sources:      opts.Sources,
		policy:       opts.Policy,
		poller:       opts.Poller,
		pollInterval: opts.PollInterval,
		fallbackMeta: opts.FallbackMeta,
		queue:        make(chan event, queueSize),
	}
	e.session.State = models.StateIdle

	// Restored state only rehydrates display fields. A restart never comes
	// back playing, even when the process died mid-stream.
	if r := opts.Restored; r != nil {
		e.session.State = models.StateStopped
		e.session.Metadata = r.Metadata
		e.session.LastKnownIntent = models.IntentNone
		if r.SourceIndex >= 0 && r.SourceIndex < e.sources.Len() {
			e.session.ActiveSourceIndex = r.SourceIndex
		}
	}
	e.snapshot = e.buildSnapshot()
	return e
}

// AttachPoller hands the engine the metadata poller it starts and stops
// around playback. The poller is constructed after the engine because it
// feeds updates back through UpdateMetadata. Must be called before Start.
func (e *Engine) AttachPoller(p PollerControl) {
	e.poller = p
}

// Start launches the run loop. The loop exits when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx)
	}()
}

// Wait blocks until the run loop has exited.
func (e *Engine) Wait() { e.wg.Wait() }

// Command enqueues a transport command. Source identifies the origin
// ("app", "lockscreen", "api") and is used for logging only.
func (e *Engine) Command(kind models.RemoteCommandKind, source string) {
	e.queue <- event{kind: evCommand, cmd: kind, cmdSource: source}
}

// EnterBackground registers background execution and returns only once the
// registration has fully completed. Callers must not continue with their
// backgrounding sequence until this returns.
func (e *Engine) EnterBackground(ctx context.Context) error {
	return e.acked(ctx, event{kind: evBackground})
}

// ExitBackground releases the background registration.
func (e *Engine) ExitBackground(ctx context.Context) error {
	return e.acked(ctx, event{kind: evForeground})
}

func (e *Engine) acked(ctx context.Context, ev event) error {
	ev.ack = make(chan error, 1)
	select {
	case e.queue <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ev.ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateMetadata feeds a now-playing update into the session.
func (e *Engine) UpdateMetadata(m models.NowPlayingMetadata) {
	e.queue <- event{kind: evMetadata, meta: m}
}

// ReloadSources swaps in a new source set from the config watcher.
func (e *Engine) ReloadSources(sources []models.StreamSource) {
	e.queue <- event{kind: evSources, sources: sources}
}

// Snapshot returns the last published session view.
func (e *Engine) Snapshot() models.Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot
}

// Sources returns the current source candidates.
func (e *Engine) Sources() []models.StreamSource {
	return e.sources.All()
}

func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.cancelRetry()
			e.pollerStop()
			return
		case ev := <-e.queue:
			e.handleEvent(ctx, ev)
		case cev := <-e.conn.Events():
			e.handleConn(ctx, cev)
		case fev := <-e.focus.Events():
			e.handleFocus(ctx, fev)
		case cmd := <-e.surface.Commands():
			e.handleRemote(ctx, cmd)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case evCommand:
		e.handleCommand(ctx, ev.cmd, ev.cmdSource)
	case evRetryFire:
		e.handleRetryFire(ev.generation)
	case evBackground:
		e.handleBackgroundEnter(ctx, ev.ack)
	case evForeground:
		e.handleForeground(ctx, ev.ack)
	case evMetadata:
		e.handleMetadata(ev.meta)
	case evSources:
		e.handleSourcesReload(ev.sources)
	}
}

func (e *Engine) handleRemote(ctx context.Context, cmd models.RemoteCommand) {
	e.handleCommand(ctx, cmd.Kind, cmd.Source)
}

func (e *Engine) handleCommand(ctx context.Context, kind models.RemoteCommandKind, source string) {
	e.log.Debug("playback command", "command", kind, "source", source, "state", e.session.State)
	switch kind {
	case models.RemotePlay:
		e.handlePlay(ctx)
	case models.RemotePause:
		e.handlePause(ctx)
	case models.RemoteStop:
		e.handleStop(ctx)
	case models.RemoteToggle:
		switch e.session.State {
		case models.StatePlaying, models.StateBuffering, models.StateLoading:
			e.handlePause(ctx)
		default:
			e.handlePlay(ctx)
		}
	default:
		e.log.Warn("unknown playback command", "command", kind, "source", source)
	}
}

func (e *Engine) handlePlay(ctx context.Context) {
	switch e.session.State {
	case models.StatePlaying, models.StateLoading, models.StateBuffering:
		e.session.LastKnownIntent = models.IntentPlaying
		return
	case models.StatePaused:
		e.session.LastKnownIntent = models.IntentPlaying
		if e.conn.HasHandle() {
			if err := e.conn.Resume(); err == nil {
				e.session.State = models.StatePlaying
				e.pollerStart()
				e.publish()
				e.persist()
				return
			}
		}
		e.startPlayback(ctx)
	case models.StateInterrupted:
		e.session.LastKnownIntent = models.IntentPlaying
		granted, err := e.focus.Request(ctx)
		if err != nil {
			e.log.Warn("focus request failed, continuing without arbitration", "error", err)
			granted = true
		}
		if !granted {
			e.enterError(ctx, models.ClassFocusDenied)
			return
		}
		e.session.HasAudioFocus = true
		e.resumeFromInterruption(ctx)
	case models.StateError:
		// Manual retry after exhausting all sources restarts the scan.
		e.session.ActiveSourceIndex = 0
		e.session.AttemptCount = 0
		e.startPlayback(ctx)
	default: // idle, stopped
		e.session.AttemptCount = 0
		e.startPlayback(ctx)
	}
}

// startPlayback begins a fresh connection cycle at the current source
// index. Focus is requested before any connection is opened; a denial is
// terminal with no network activity.
func (e *Engine) startPlayback(ctx context.Context) {
	e.cancelRetry()
	e.session.Generation++
	e.session.LastKnownIntent = models.IntentPlaying
	e.session.ErrorClass = models.ClassNone

	granted, err := e.focus.Request(ctx)
	if err != nil {
		e.log.Warn("focus request failed, continuing without arbitration", "error", err)
		granted = true
	}
	if !granted {
		e.enterError(ctx, models.ClassFocusDenied)
		return
	}
	e.session.HasAudioFocus = true

	src, ok := e.sources.At(e.session.ActiveSourceIndex)
	if !ok {
		e.session.ActiveSourceIndex = 0
		if src, ok = e.sources.At(0); !ok {
			e.log.Error("no stream sources configured")
			e.enterError(ctx, models.ClassUnknown)
			return
		}
	}

	e.session.State = models.StateLoading
	e.log.Info("opening stream", "source", src.Name, "url", src.URL, "index", e.session.ActiveSourceIndex)
	e.conn.RequestOpen(src, e.session.Generation)
	e.publish()
	e.persist()
}

func (e *Engine) handlePause(ctx context.Context) {
	switch e.session.State {
	case models.StatePlaying, models.StateBuffering:
		if err := e.conn.Pause(); err != nil {
			e.log.Warn("pause failed", "error", err)
		}
	case models.StateLoading:
		// Abort the in-flight open; the generation bump makes any late
		// connection event stale.
		e.cancelRetry()
		e.session.Generation++
		e.conn.RequestClose(e.session.Generation)
	case models.StateInterrupted:
		// The connection is already paused by the interruption.
	default:
		return
	}
	e.session.State = models.StatePaused
	e.session.LastKnownIntent = models.IntentPaused
	e.pollerStop()
	e.publish()
	e.persist()
}

func (e *Engine) handleStop(ctx context.Context) {
	// Stop always runs the full teardown so it is idempotent from any
	// state: connection closed, focus abandoned, intent cleared.
	e.cancelRetry()
	e.session.Generation++
	e.conn.RequestClose(e.session.Generation)
	e.pollerStop()
	if err := e.focus.Abandon(ctx); err != nil {
		e.log.Warn("focus abandon failed", "error", err)
	}
	e.session.HasAudioFocus = false
	e.session.Ducked = false
	e.session.State = models.StateStopped
	e.session.LastKnownIntent = models.IntentNone
	e.session.AttemptCount = 0
	e.session.ErrorClass = models.ClassNone
	e.publish()
	e.persist()
}

func (e *Engine) handleConn(ctx context.Context, ev connection.Event) {
	if ev.Generation != e.session.Generation {
		e.log.Debug("dropping stale connection event", "kind", ev.Kind,
			"event_generation", ev.Generation, "session_generation", e.session.Generation)
		return
	}
	switch ev.Kind {
	case connection.EventReady:
		// Ready only completes an open or a stall recovery. The generation
		// check alone does not cover a user pause, which keeps the handle
		// and its generation; a stall-recovery ready already in flight must
		// not flip a paused session back to playing.
		if e.session.State != models.StateLoading && e.session.State != models.StateBuffering {
			e.log.Debug("dropping ready event", "state", e.session.State)
			return
		}
		e.session.State = models.StatePlaying
		e.session.AttemptCount = 0
		e.session.ErrorClass = models.ClassNone
		e.session.LastKnownIntent = models.IntentPlaying
		if e.session.Ducked {
			if err := e.conn.SetVolume(duckVolume); err != nil {
				e.log.Warn("volume restore failed", "error", err)
			}
		}
		e.pollerStart()
		e.log.Info("stream ready", "index", e.session.ActiveSourceIndex)
		e.publish()
		e.persist()
	case connection.EventBuffering, connection.EventStalled:
		if e.session.State == models.StatePlaying {
			e.session.State = models.StateBuffering
			e.publish()
		}
	case connection.EventEnded:
		if !e.session.State.Active() {
			return
		}
		e.handleFailure(ctx, ev.Err)
	}
}

func (e *Engine) handleFailure(ctx context.Context, cause error) {
	class := Classify(cause)
	decision, delay := e.policy.Decide(class, e.session.AttemptCount)
	e.log.Warn("stream failed", "class", class, "decision", decision,
		"attempt", e.session.AttemptCount, "index", e.session.ActiveSourceIndex, "error", cause)

	switch decision {
	case DecisionRetry:
		e.session.State = models.StateLoading
		e.session.AttemptCount++
		e.scheduleRetry(delay, e.session.Generation)
		e.publish()
	case DecisionFallback:
		e.session.AttemptCount = 0
		next := e.session.ActiveSourceIndex + 1
		src, ok := e.sources.At(next)
		if !ok {
			// No wrap-around: exhausting the list is terminal until the
			// user retries.
			e.enterError(ctx, class)
			return
		}
		e.session.ActiveSourceIndex = next
		e.session.State = models.StateLoading
		e.log.Info("falling back to next source", "source", src.Name, "index", next)
		e.conn.RequestOpen(src, e.session.Generation)
		e.publish()
	case DecisionFail:
		e.enterError(ctx, class)
	}
}

func (e *Engine) scheduleRetry(delay time.Duration, generation uint64) {
	e.cancelRetry()
	e.log.Info("retry scheduled", "delay", delay, "generation", generation)
	e.retryTimer = time.AfterFunc(delay, func() {
		e.queue <- event{kind: evRetryFire, generation: generation}
	})
}

func (e *Engine) handleRetryFire(generation uint64) {
	// The timer callback re-enters through the queue and must prove it is
	// still relevant: the session may have been stopped, restarted, or
	// moved to another source while the delay elapsed.
	if generation != e.session.Generation || e.session.State != models.StateLoading {
		e.log.Debug("dropping stale retry", "timer_generation", generation,
			"session_generation", e.session.Generation, "state", e.session.State)
		return
	}
	src, ok := e.sources.At(e.session.ActiveSourceIndex)
	if !ok {
		return
	}
	e.log.Info("retrying stream", "source", src.Name, "attempt", e.session.AttemptCount)
	e.conn.RequestOpen(src, generation)
}

func (e *Engine) cancelRetry() {
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

func (e *Engine) enterError(ctx context.Context, class models.ErrorClass) {
	e.cancelRetry()
	e.session.Generation++
	e.conn.RequestClose(e.session.Generation)
	e.pollerStop()
	if e.session.HasAudioFocus {
		if err := e.focus.Abandon(ctx); err != nil {
			e.log.Warn("focus abandon failed", "error", err)
		}
		e.session.HasAudioFocus = false
	}
	e.session.State = models.StateError
	e.session.ErrorClass = class
	e.session.Ducked = false
	e.log.Error("playback failed", "class", class, "message", class.UserMessage())
	e.publish()
	e.persist()
}

func (e *Engine) handleFocus(ctx context.Context, ev models.FocusEvent) {
	e.log.Debug("focus event", "kind", ev.Kind, "state", e.session.State)
	switch ev.Kind {
	case models.FocusDuck, models.FocusLostTransient:
		if e.session.State != models.StatePlaying && e.session.State != models.StateBuffering {
			return
		}
		e.session.Ducked = true
		if err := e.conn.SetVolume(duckVolume); err != nil {
			e.log.Warn("duck failed", "error", err)
		}
		e.publish()
	case models.FocusGained:
		e.session.HasAudioFocus = true
		if e.session.Ducked {
			e.session.Ducked = false
			if err := e.conn.SetVolume(fullVolume); err != nil {
				e.log.Warn("volume restore failed", "error", err)
			}
		}
		if e.session.State == models.StateInterrupted {
			e.resumeFromInterruption(ctx)
			return
		}
		e.publish()
	case models.FocusLostPermanent:
		e.session.HasAudioFocus = false
		e.session.Ducked = false
		if !e.session.State.Active() {
			return
		}
		e.cancelRetry()
		if err := e.conn.Pause(); err != nil {
			e.log.Warn("pause on focus loss failed", "error", err)
		}
		e.session.State = models.StateInterrupted
		// Intent is deliberately untouched so a later regain can decide
		// whether to auto-resume.
		e.pollerStop()
		e.publish()
		e.persist()
	}
}

// resumeFromInterruption ends an interruption: auto-resume when the last
// user intent was playing, otherwise settle into paused.
func (e *Engine) resumeFromInterruption(ctx context.Context) {
	if e.session.LastKnownIntent != models.IntentPlaying {
		e.session.State = models.StatePaused
		e.publish()
		e.persist()
		return
	}
	if e.conn.HasHandle() {
		if err := e.conn.Resume(); err == nil {
			e.session.State = models.StatePlaying
			e.pollerStart()
			e.publish()
			e.persist()
			return
		}
		e.log.Warn("resume after interruption failed, reopening")
	}
	e.startPlayback(ctx)
}

func (e *Engine) handleBackgroundEnter(ctx context.Context, ack chan error) {
	result, err := e.bg.Enter(ctx)
	if err != nil {
		e.log.Warn("background registration failed", "error", err)
	} else if result == background.ResultDegraded {
		e.log.Warn("background registration degraded, playback continues without indicator")
	}
	e.session.IsBackgroundMode = true
	e.publish()
	e.persist()
	if ack != nil {
		ack <- err
	}
}

func (e *Engine) handleForeground(ctx context.Context, ack chan error) {
	err := e.bg.Exit(ctx)
	if err != nil {
		e.log.Warn("background release failed", "error", err)
	}
	e.session.IsBackgroundMode = false
	e.publish()
	if ack != nil {
		ack <- err
	}
}

func (e *Engine) handleMetadata(m models.NowPlayingMetadata) {
	if m.IsZero() || m.Equal(e.session.Metadata) {
		return
	}
	e.session.Metadata = m
	e.log.Debug("now playing", "title", m.Title, "artist", m.Artist)
	e.publish()
	e.persist()
}

func (e *Engine) handleSourcesReload(sources []models.StreamSource) {
	e.sources.Replace(sources)
	e.log.Info("stream sources reloaded", "count", len(sources))
	if e.session.ActiveSourceIndex >= len(sources) {
		// An active handle keeps playing; only the stored index is fixed.
		e.session.ActiveSourceIndex = 0
	}
	e.publish()
}

func (e *Engine) pollerStart() {
	if e.poller == nil || e.poller.Running() {
		return
	}
	e.poller.Start(e.pollInterval)
}

func (e *Engine) pollerStop() {
	if e.poller == nil {
		return
	}
	e.poller.Stop()
}

func (e *Engine) buildSnapshot() models.Snapshot {
	snap := models.Snapshot{
		State:            e.session.State,
		SourceIndex:      e.session.ActiveSourceIndex,
		Metadata:         e.session.Metadata,
		IsBackgroundMode: e.session.IsBackgroundMode,
		Ducked:           e.session.Ducked,
		ErrorClass:       e.session.ErrorClass,
	}
	if src, ok := e.sources.At(e.session.ActiveSourceIndex); ok {
		snap.SourceName = src.Name
	}
	if e.session.ErrorClass != models.ClassNone {
		snap.ErrorMessage = e.session.ErrorClass.UserMessage()
	}
	if snap.Metadata.IsZero() {
		snap.Metadata = e.fallbackMeta
	}
	return snap
}

// publish pushes the session view to subscribers and the OS media surface.
// Both sinks are non-blocking from the loop's perspective: the bus drops on
// slow subscribers and the surface serializes internally.
func (e *Engine) publish() {
	snap := e.buildSnapshot()
	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()
	if e.bus != nil {
		e.bus.Publish(snap)
	}
	if e.surface != nil {
		e.surface.Publish(mediactl.Update{
			Metadata:  snap.Metadata,
			Transport: transportFor(e.session.State),
		})
	}
}

func (e *Engine) persist() {
	state := models.SessionState{
		LastKnownIntent: e.session.LastKnownIntent,
		SourceIndex:     e.session.ActiveSourceIndex,
		Metadata:        e.session.Metadata,
		WasPlaying:      e.session.State.Active(),
	}
	if err := e.bg.Persist(state); err != nil {
		e.log.Warn("session persist failed", "error", err)
	}
}

func transportFor(state models.PlaybackState) models.TransportState {
	switch state {
	case models.StatePlaying, models.StateBuffering, models.StateLoading:
		return models.TransportPlaying
	case models.StatePaused, models.StateInterrupted:
		return models.TransportPaused
	}
	return models.TransportStopped
}
