// Package models defines the data structures for the playback engine.
package models

// PlaybackState is the state tag of the playback session.
type PlaybackState string

// Playback states. Idle is initial; Stopped is terminal until a new play
// command restarts the cycle.
const (
	StateIdle        PlaybackState = "idle"
	StateLoading     PlaybackState = "loading"
	StatePlaying     PlaybackState = "playing"
	StatePaused      PlaybackState = "paused"
	StateBuffering   PlaybackState = "buffering"
	StateInterrupted PlaybackState = "interrupted"
	StateError       PlaybackState = "error"
	StateStopped     PlaybackState = "stopped"
)

// Active reports whether the session has a live or in-progress connection.
func (s PlaybackState) Active() bool {
	switch s {
	case StateLoading, StatePlaying, StateBuffering, StateInterrupted:
		return true
	}
	return false
}

// Intent is the last user-directed playback intent. It decides whether the
// engine auto-resumes once an interruption ends.
type Intent string

const (
	IntentNone    Intent = ""
	IntentPlaying Intent = "playing"
	IntentPaused  Intent = "paused"
)

// StreamSource is one candidate stream URL. Immutable, loaded at startup.
type StreamSource struct {
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Priority int    `json:"priority" yaml:"priority"`
}

// PlaybackSession is the single live playback session. It is owned and
// mutated exclusively by the engine's event loop.
type PlaybackSession struct {
	State             PlaybackState
	ActiveSourceIndex int
	AttemptCount      int
	IsBackgroundMode  bool
	HasAudioFocus     bool
	Ducked            bool
	LastKnownIntent   Intent
	Generation        uint64
	Metadata          NowPlayingMetadata
	ErrorClass        ErrorClass
}

// Snapshot is the published, read-only view of the session consumed by the
// UI layer and the SSE feed.
type Snapshot struct {
	State            PlaybackState      `json:"state"`
	SourceIndex      int                `json:"source_index"`
	SourceName       string             `json:"source_name,omitempty"`
	Metadata         NowPlayingMetadata `json:"metadata"`
	IsBackgroundMode bool               `json:"is_background_mode"`
	Ducked           bool               `json:"ducked,omitempty"`
	ErrorClass       ErrorClass         `json:"error_class,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
}

// SessionState is the minimal session state persisted across process
// restarts. It only rehydrates display state: a restored session always
// comes back as stopped, never playing.
type SessionState struct {
	LastKnownIntent Intent             `json:"last_intent"`
	SourceIndex     int                `json:"source_index"`
	Metadata        NowPlayingMetadata `json:"metadata"`
	WasPlaying      bool               `json:"was_playing"`
}
