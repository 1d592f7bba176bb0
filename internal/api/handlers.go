// Package api implements the HTTP control API for the playback engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/identity"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// backgroundAckTimeout bounds how long a background-transition request may
// wait for the registration to complete.
const backgroundAckTimeout = 10 * time.Second

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	player Player
	events EventBus
	info   func() identity.Info
}

// Player is the interface the handlers use to drive the playback engine.
type Player interface {
	Snapshot() models.Snapshot
	Command(kind models.RemoteCommandKind, source string)
	EnterBackground(ctx context.Context) error
	ExitBackground(ctx context.Context) error
	Sources() []models.StreamSource
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan models.Snapshot
	Unsubscribe(id string)
}

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.Snapshot())
}

func (h *Handlers) getSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.Sources())
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info())
}

var commandKinds = map[string]models.RemoteCommandKind{
	"play":   models.RemotePlay,
	"pause":  models.RemotePause,
	"stop":   models.RemoteStop,
	"toggle": models.RemoteToggle,
}

// execPlayerCmd enqueues a transport command. Commands are asynchronous:
// the response carries the snapshot from before the command was processed
// and clients follow the outcome on the event feed.
func (h *Handlers) execPlayerCmd(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "cmd")
	kind, ok := commandKinds[name]
	if !ok {
		writeError(w, models.ErrBadRequest("unknown command: "+name))
		return
	}
	h.player.Command(kind, "api")
	writeJSON(w, http.StatusAccepted, h.player.Snapshot())
}

func (h *Handlers) enterBackground(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backgroundAckTimeout)
	defer cancel()
	if err := h.player.EnterBackground(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, models.ErrInternal("background registration timed out"))
			return
		}
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.player.Snapshot())
}

func (h *Handlers) exitBackground(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backgroundAckTimeout)
	defer cancel()
	if err := h.player.ExitBackground(ctx); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.player.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}
