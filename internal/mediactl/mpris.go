package mediactl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

const (
	mprisBusName    = "org.mpris.MediaPlayer2.trendankara"
	mprisObjectPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	playerInterface = "org.mpris.MediaPlayer2.Player"

	// publishSettle is the platform refresh delay awaited between swapping
	// the metadata and re-announcing transport state. Skipping the await
	// is what lets a delayed refresh overwrite a newer update.
	publishSettle = 150 * time.Millisecond
)

// MPRISBackend publishes now-playing state on the session bus as an MPRIS
// player and receives lock-screen transport commands as method calls.
type MPRISBackend struct {
	conn    *dbus.Conn
	artwork *ArtworkCache
	cmds    chan models.RemoteCommand

	mu      sync.Mutex
	current Update
}

// NewMPRISBackend connects to the session bus, claims the player name and
// exports the transport command interface.
func NewMPRISBackend(artworkDir string) (*MPRISBackend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("mediactl: connect session bus: %w", err)
	}

	b := &MPRISBackend{
		conn:    conn,
		artwork: NewArtworkCache(artworkDir),
		cmds:    make(chan models.RemoteCommand, 8),
	}

	reply, err := conn.RequestName(mprisBusName, dbus.NameFlagReplaceExisting)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mediactl: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		slog.Warn("mediactl: mpris name not primary owner", "reply", reply)
	}

	if err := conn.Export(remoteHandler{b}, mprisObjectPath, playerInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mediactl: export player interface: %w", err)
	}

	return b, nil
}

// Commands delivers remote transport commands.
func (b *MPRISBackend) Commands() <-chan models.RemoteCommand { return b.cmds }

// Apply runs the full publish sequence: prepare artwork, swap the metadata
// property, await the settle delay, then announce the transport state. The
// whole sequence completes before Apply returns.
func (b *MPRISBackend) Apply(ctx context.Context, u Update) error {
	artRef := b.artwork.Prepare(ctx, u.Metadata.ArtworkRef)

	meta := map[string]dbus.Variant{
		"xesam:title":  dbus.MakeVariant(u.Metadata.Title),
		"xesam:artist": dbus.MakeVariant([]string{u.Metadata.Artist}),
	}
	if artRef != "" {
		meta["mpris:artUrl"] = dbus.MakeVariant(artRef)
	}

	if err := b.emitChanged(map[string]dbus.Variant{
		"Metadata": dbus.MakeVariant(meta),
	}); err != nil {
		return fmt.Errorf("publish metadata: %w", err)
	}

	// Awaited, not fired-and-forgotten.
	select {
	case <-time.After(publishSettle):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := b.emitChanged(map[string]dbus.Variant{
		"PlaybackStatus": dbus.MakeVariant(mprisStatus(u.Transport)),
	}); err != nil {
		return fmt.Errorf("publish transport: %w", err)
	}

	b.mu.Lock()
	b.current = u
	b.mu.Unlock()
	slog.Debug("mediactl: published",
		"title", u.Metadata.Title, "artist", u.Metadata.Artist, "transport", u.Transport)
	return nil
}

func (b *MPRISBackend) emitChanged(props map[string]dbus.Variant) error {
	return b.conn.Emit(mprisObjectPath,
		"org.freedesktop.DBus.Properties.PropertiesChanged",
		playerInterface, props, []string{})
}

// Close releases the bus name and connection.
func (b *MPRISBackend) Close() {
	b.conn.ReleaseName(mprisBusName)
	b.conn.Close()
}

func (b *MPRISBackend) remote(kind models.RemoteCommandKind) {
	cmd := models.RemoteCommand{
		Kind:      kind,
		Source:    "lockscreen",
		Timestamp: time.Now(),
	}
	select {
	case b.cmds <- cmd:
	default:
		slog.Warn("mediactl: remote command dropped (queue full)", "kind", kind)
	}
}

func mprisStatus(t models.TransportState) string {
	switch t {
	case models.TransportPlaying:
		return "Playing"
	case models.TransportPaused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// remoteHandler receives MPRIS Player method calls and forwards them as
// remote commands.
type remoteHandler struct {
	b *MPRISBackend
}

func (h remoteHandler) Play() *dbus.Error {
	h.b.remote(models.RemotePlay)
	return nil
}

func (h remoteHandler) Pause() *dbus.Error {
	h.b.remote(models.RemotePause)
	return nil
}

func (h remoteHandler) Stop() *dbus.Error {
	h.b.remote(models.RemoteStop)
	return nil
}

func (h remoteHandler) PlayPause() *dbus.Error {
	h.b.remote(models.RemoteToggle)
	return nil
}

var _ Backend = (*MPRISBackend)(nil)
