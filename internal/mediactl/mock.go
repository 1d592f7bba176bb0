package mediactl

import (
	"context"
	"sync"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// MockBackend records publish sequences for tests and --mock composition.
// Apply duration is configurable so tests can exercise supersede behavior.
type MockBackend struct {
	mu        sync.Mutex
	applied   []Update
	applyTime time.Duration
	applyErr  error
	inFlight  int
	overlaps  int

	cmds chan models.RemoteCommand
}

// NewMockBackend creates a mock backend with instantaneous Apply.
func NewMockBackend() *MockBackend {
	return &MockBackend{cmds: make(chan models.RemoteCommand, 8)}
}

// SetApplyDuration makes each Apply take d.
func (b *MockBackend) SetApplyDuration(d time.Duration) {
	b.mu.Lock()
	b.applyTime = d
	b.mu.Unlock()
}

// SetApplyError makes subsequent Apply calls fail with err.
func (b *MockBackend) SetApplyError(err error) {
	b.mu.Lock()
	b.applyErr = err
	b.mu.Unlock()
}

func (b *MockBackend) Apply(ctx context.Context, u Update) error {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > 1 {
		b.overlaps++
	}
	d := b.applyTime
	err := b.applyErr
	b.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			b.mu.Lock()
			b.inFlight--
			b.mu.Unlock()
			return ctx.Err()
		}
	}

	b.mu.Lock()
	b.inFlight--
	if err == nil {
		b.applied = append(b.applied, u)
	}
	b.mu.Unlock()
	return err
}

func (b *MockBackend) Commands() <-chan models.RemoteCommand { return b.cmds }

// EmitCommand injects a remote transport command.
func (b *MockBackend) EmitCommand(kind models.RemoteCommandKind, source string) {
	b.cmds <- models.RemoteCommand{Kind: kind, Source: source, Timestamp: time.Now()}
}

// Applied returns the successfully applied updates, in order.
func (b *MockBackend) Applied() []Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Update, len(b.applied))
	copy(out, b.applied)
	return out
}

// Overlaps returns how many times a second Apply started while one was
// still in flight. The no-overlapping-publish invariant requires zero.
func (b *MockBackend) Overlaps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlaps
}

var _ Backend = (*MockBackend)(nil)
