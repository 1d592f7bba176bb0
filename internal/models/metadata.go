package models

import "time"

// NowPlayingMetadata is the title/artist/artwork published to the OS media
// control surface. Compared by value before publishing so an unchanged poll
// result never causes a redundant surface write.
type NowPlayingMetadata struct {
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	ArtworkRef string `json:"artwork_ref,omitempty"`
}

// Equal reports whether two metadata values are identical field by field.
func (m NowPlayingMetadata) Equal(o NowPlayingMetadata) bool {
	return m.Title == o.Title && m.Artist == o.Artist && m.ArtworkRef == o.ArtworkRef
}

// IsZero reports whether no field is set.
func (m NowPlayingMetadata) IsZero() bool {
	return m == NowPlayingMetadata{}
}

// TransportState is the coarse transport state shown on the control surface.
type TransportState string

const (
	TransportPlaying TransportState = "playing"
	TransportPaused  TransportState = "paused"
	TransportStopped TransportState = "stopped"
)

// RemoteCommandKind is a transport command issued from outside the app's
// own UI (lock screen, notification, headset button).
type RemoteCommandKind string

const (
	RemotePlay   RemoteCommandKind = "play"
	RemotePause  RemoteCommandKind = "pause"
	RemoteStop   RemoteCommandKind = "stop"
	RemoteToggle RemoteCommandKind = "toggle"
)

// RemoteCommand is an ephemeral transport command. Never persisted.
type RemoteCommand struct {
	Kind      RemoteCommandKind
	Source    string // "lockscreen" | "notification" | "headset"
	Timestamp time.Time
}

// FocusEventKind classifies an audio-focus change notification.
type FocusEventKind string

const (
	FocusGained        FocusEventKind = "gained"
	FocusLostTransient FocusEventKind = "lost-transient"
	FocusLostPermanent FocusEventKind = "lost-permanent"
	FocusDuck          FocusEventKind = "duck"
)

// FocusEvent is an ephemeral audio-focus change.
type FocusEvent struct {
	Kind FocusEventKind
}
