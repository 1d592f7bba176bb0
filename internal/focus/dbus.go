package focus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// focusBusName is the well-known bus name used for focus arbitration.
// Whoever owns the name owns audio output; another player taking it over
// is observed as a permanent focus loss.
const focusBusName = "com.trendankara.player.AudioFocus"

// DBusCoordinator arbitrates audio focus through exclusive ownership of a
// well-known session-bus name. Requesting with the replace flags means a
// later player wins the name and the current owner sees NameLost.
type DBusCoordinator struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	held   bool
	events chan models.FocusEvent
	done   chan struct{}
}

// NewDBusCoordinator connects to the session bus and starts watching
// ownership signals.
func NewDBusCoordinator() (*DBusCoordinator, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("focus: connect session bus: %w", err)
	}

	c := &DBusCoordinator{
		conn:   conn,
		events: make(chan models.FocusEvent, 8),
		done:   make(chan struct{}),
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchSender("org.freedesktop.DBus"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("focus: add match: %w", err)
	}

	sigCh := make(chan *dbus.Signal, 16)
	conn.Signal(sigCh)
	go c.watchSignals(sigCh)

	return c, nil
}

// Request claims the focus bus name. Denied when another owner holds it
// and refuses replacement.
func (c *DBusCoordinator) Request(_ context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.conn.RequestName(focusBusName,
		dbus.NameFlagAllowReplacement|dbus.NameFlagReplaceExisting|dbus.NameFlagDoNotQueue)
	if err != nil {
		return false, fmt.Errorf("focus: request name: %w", err)
	}

	switch reply {
	case dbus.RequestNameReplyPrimaryOwner, dbus.RequestNameReplyAlreadyOwner:
		c.held = true
		slog.Debug("focus: granted", "name", focusBusName)
		return true, nil
	default:
		slog.Info("focus: denied, another player owns audio", "reply", reply)
		return false, nil
	}
}

// Abandon releases the focus bus name.
func (c *DBusCoordinator) Abandon(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return nil
	}
	c.held = false
	if _, err := c.conn.ReleaseName(focusBusName); err != nil {
		return fmt.Errorf("focus: release name: %w", err)
	}
	slog.Debug("focus: abandoned", "name", focusBusName)
	return nil
}

// Events delivers focus-change notifications derived from bus ownership
// signals.
func (c *DBusCoordinator) Events() <-chan models.FocusEvent { return c.events }

// Close shuts down the bus connection.
func (c *DBusCoordinator) Close() {
	close(c.done)
	c.conn.Close()
}

func (c *DBusCoordinator) watchSignals(sigCh chan *dbus.Signal) {
	for {
		select {
		case <-c.done:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			switch sig.Name {
			case "org.freedesktop.DBus.NameLost":
				if nameArg(sig) != focusBusName {
					continue
				}
				c.mu.Lock()
				wasHeld := c.held
				c.held = false
				c.mu.Unlock()
				if wasHeld {
					slog.Info("focus: lost to another player")
					c.emit(models.FocusEvent{Kind: models.FocusLostPermanent})
				}
			case "org.freedesktop.DBus.NameAcquired":
				if nameArg(sig) != focusBusName {
					continue
				}
				c.mu.Lock()
				c.held = true
				c.mu.Unlock()
				c.emit(models.FocusEvent{Kind: models.FocusGained})
			}
		}
	}
}

func (c *DBusCoordinator) emit(ev models.FocusEvent) {
	select {
	case c.events <- ev:
	default:
		slog.Warn("focus: event dropped (queue full)", "kind", ev.Kind)
	}
}

func nameArg(sig *dbus.Signal) string {
	if len(sig.Body) == 0 {
		return ""
	}
	name, _ := sig.Body[0].(string)
	return name
}

var _ Coordinator = (*DBusCoordinator)(nil)
