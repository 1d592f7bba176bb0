package metadata

import (
	"context"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/connection"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// FromConnection returns a FetchFunc that reads the now-playing text the
// live stream handle has parsed from its inline metadata. Returns
// connection.ErrNoHandle while no stream is open; the poller treats that
// like any other transient fetch failure.
func FromConnection(conn *connection.Manager) FetchFunc {
	return func(ctx context.Context) (models.NowPlayingMetadata, error) {
		h := conn.Handle()
		if h == nil {
			return models.NowPlayingMetadata{}, connection.ErrNoHandle
		}
		return h.NowPlaying(ctx)
	}
}
