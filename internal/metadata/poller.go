// Package metadata polls the stream's inline now-playing metadata and
// feeds debounced updates to the engine.
package metadata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// publish rate limit: control surfaces throttle rapid refreshes, so bursts
// of metadata churn are capped rather than forwarded one-to-one.
const (
	publishInterval = 2 * time.Second
	publishBurst    = 3
)

// FetchFunc returns the stream's current now-playing metadata.
type FetchFunc func(ctx context.Context) (models.NowPlayingMetadata, error)

// Poller polls stream metadata at a fixed interval. A new value is
// forwarded only when it differs (by value) from the last forwarded one;
// fetch failures are logged and retried on the next tick.
type Poller struct {
	fetch    FetchFunc
	onChange func(models.NowPlayingMetadata)
	limiter  *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	last   models.NowPlayingMetadata
	seeded bool
}

// NewPoller creates a poller. onChange is invoked from the poll goroutine;
// callers hand the value to their own queue rather than mutating state
// directly.
func NewPoller(fetch FetchFunc, onChange func(models.NowPlayingMetadata)) *Poller {
	return &Poller{
		fetch:    fetch,
		onChange: onChange,
		limiter:  rate.NewLimiter(rate.Every(publishInterval), publishBurst),
	}
}

// Start begins polling at the given interval. No-op if already running.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.poll(ctx, interval)
	slog.Debug("metadata: poller started", "interval", interval)
}

// Stop halts polling and waits for the poll goroutine to exit. Safe to
// call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
	slog.Debug("metadata: poller stopped")
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) poll(ctx context.Context, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	meta, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("metadata: fetch failed, retrying next tick", "err", err)
		}
		return
	}
	if meta.IsZero() {
		return
	}

	p.mu.Lock()
	if p.seeded && p.last.Equal(meta) {
		p.mu.Unlock()
		return
	}
	// Last is only committed once the update is actually forwarded, so a
	// rate-limited change is retried on the next tick.
	if !p.limiter.Allow() {
		p.mu.Unlock()
		slog.Debug("metadata: update rate-limited", "title", meta.Title)
		return
	}
	p.last = meta
	p.seeded = true
	p.mu.Unlock()

	p.onChange(meta)
}
