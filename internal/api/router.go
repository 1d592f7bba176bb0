package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/identity"
)

// NewRouter creates and returns the control API router.
func NewRouter(player Player, bus EventBus, info func() identity.Info) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{player: player, events: bus, info: info}

	// Playback state
	r.Get("/api", h.getState)
	r.Get("/api/", h.getState)

	// Transport commands
	r.Post("/api/player/{cmd}", h.execPlayerCmd)

	// App lifecycle transitions
	r.Post("/api/app/background", h.enterBackground)
	r.Post("/api/app/foreground", h.exitBackground)

	// Sources
	r.Get("/api/sources", h.getSources)

	// Daemon identity
	r.Get("/api/info", h.getInfo)

	// SSE
	r.Get("/api/events", h.sseEvents)

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
