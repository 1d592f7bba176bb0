package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/config"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// settleDelay is the mandatory wait after taking the inhibitor before the
// registration is considered complete. It is awaited inside Enter, never
// scheduled independently of the calling sequence.
const settleDelay = 200 * time.Millisecond

// DBusCoordinator registers background execution by taking a systemd-logind
// sleep/shutdown inhibitor. The inhibitor lock is the ongoing-indicator
// analog: while held, the session is visibly pinned in loginctl.
type DBusCoordinator struct {
	mu    sync.Mutex
	conn  *dbus.Conn
	fd    int // inhibitor fd, -1 when not held
	store config.Store
}

// NewDBusCoordinator connects to the system bus. The store receives
// persisted session state.
func NewDBusCoordinator(store config.Store) (*DBusCoordinator, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("background: connect system bus: %w", err)
	}
	return &DBusCoordinator{conn: conn, fd: -1, store: store}, nil
}

// Enter takes the inhibitor lock and awaits the settle delay. A failed
// registration degrades rather than failing: playback continues without
// the indicator.
func (c *DBusCoordinator) Enter(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fd >= 0 {
		return ResultOK, nil
	}

	obj := c.conn.Object("org.freedesktop.login1", "/org/freedesktop/login1")
	var fd dbus.UnixFD
	err := obj.CallWithContext(ctx, "org.freedesktop.login1.Manager.Inhibit", 0,
		"sleep:shutdown", "trendankara-player", "audio playback in background", "block",
	).Store(&fd)
	if err != nil {
		slog.Warn("background: inhibitor unavailable, continuing degraded", "err", err)
		return ResultDegraded, nil
	}
	c.fd = int(fd)

	// Mandatory settle before the registration counts as complete.
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		c.releaseLocked()
		return ResultDegraded, ctx.Err()
	}

	slog.Info("background: execution registered", "fd", c.fd)
	return ResultOK, nil
}

// Exit releases the inhibitor lock.
func (c *DBusCoordinator) Exit(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	return nil
}

func (c *DBusCoordinator) releaseLocked() {
	if c.fd < 0 {
		return
	}
	if err := syscall.Close(c.fd); err != nil {
		slog.Warn("background: inhibitor close error", "err", err)
	}
	c.fd = -1
	slog.Debug("background: execution registration released")
}

// Persist saves minimal session state through the store.
func (c *DBusCoordinator) Persist(state models.SessionState) error {
	return c.store.Save(&state)
}

// Restore loads the persisted session state.
func (c *DBusCoordinator) Restore() (*models.SessionState, error) {
	return c.store.Load()
}

// Close releases any held inhibitor and the bus connection.
func (c *DBusCoordinator) Close() {
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
	c.conn.Close()
}

var _ Coordinator = (*DBusCoordinator)(nil)
