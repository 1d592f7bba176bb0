// Command playerd is the Trend Ankara streaming playback daemon.
// Run with --mock to use in-memory platform coordinators (no D-Bus
// session required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/api"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/background"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/config"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/connection"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/events"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/focus"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/identity"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/maintenance"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/mediactl"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/metadata"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/player"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/zeroconf"
)

func main() {
	var (
		mock    = flag.Bool("mock", false, "use in-memory platform coordinators (no D-Bus required)")
		addr    = flag.String("addr", "", "HTTP listen address (default from config)")
		cfgDir  = flag.String("config-dir", "", "config directory (default: ~/.config/trendankara)")
		cfgFile = flag.String("config", "", "config file path (default: <config-dir>/playerd.yaml)")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Optional .env for local development; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "trendankara")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}
	if *cfgFile == "" {
		*cfgFile = filepath.Join(*cfgDir, "playerd.yaml")
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		slog.Error("config load failed", "path", *cfgFile, "err", err)
		os.Exit(1)
	}
	if *addr == "" {
		*addr = cfg.Listen
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Persisted session state
	store := config.NewJSONStore(*cfgDir)

	// Platform coordinators
	var (
		focusCoord focus.Coordinator
		bgCoord    background.Coordinator
		backend    mediactl.Backend
	)
	if *mock {
		slog.Info("using mock platform coordinators")
		focusCoord = focus.NewMock()
		bgCoord = background.NewMock(store)
		backend = mediactl.NewMockBackend()
	} else {
		focusCoord, err = focus.NewDBusCoordinator()
		if err != nil {
			slog.Error("focus coordinator initialization failed", "err", err)
			os.Exit(1)
		}
		bgCoord, err = background.NewDBusCoordinator(store)
		if err != nil {
			slog.Error("background coordinator initialization failed", "err", err)
			os.Exit(1)
		}
		backend, err = mediactl.NewMPRISBackend(filepath.Join(*cfgDir, "artwork"))
		if err != nil {
			slog.Error("media surface initialization failed", "err", err)
			os.Exit(1)
		}
	}

	// Event bus and media surface
	bus := events.NewBus()
	surface := mediactl.NewSurface(backend)
	surface.Start(ctx)

	// Stream connection manager
	conn := connection.NewManager(connection.NewHTTPFramework(), cfg.Retry.OpenTimeout)
	conn.Start(ctx)

	// Restored display state from the previous run. Playback never resumes
	// automatically after a restart.
	restored, err := bgCoord.Restore()
	if err != nil {
		slog.Warn("session restore failed", "err", err)
	}

	engine := player.NewEngine(player.Options{
		Conn:       conn,
		Focus:      focusCoord,
		Background: bgCoord,
		Surface:    surface,
		Bus:        bus,
		Sources:    player.NewSourceList(cfg.Sources),
		Policy: player.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		PollInterval: cfg.Metadata.PollInterval,
		FallbackMeta: cfg.FallbackMetadata(),
		Restored:     restored,
		Logger:       slog.Default(),
	})

	// Metadata poller, fed from the live stream's inline metadata. The
	// engine starts and stops it around playback.
	poller := metadata.NewPoller(metadata.FromConnection(conn), engine.UpdateMetadata)
	engine.AttachPoller(poller)
	engine.Start(ctx)

	// Live source reload when the config file changes on disk.
	watcher, err := config.NewWatcher(*cfgFile, cfg.Sources, engine.ReloadSources)
	if err != nil {
		slog.Warn("config watcher unavailable", "err", err)
	} else {
		defer watcher.Close()
	}

	// Maintenance goroutines (connectivity probe, config backups). The
	// probe targets the primary stream host so "offline" means the stream
	// is unreachable, not just the public internet.
	probeAddr := ""
	if len(cfg.Sources) > 0 {
		if u, err := url.Parse(cfg.Sources[0].URL); err == nil && u.Host != "" {
			probeAddr = u.Host
			if u.Port() == "" {
				probeAddr += ":80"
			}
		}
	}
	maint := maintenance.New(*cfgDir, probeAddr, func(online bool) {
		slog.Info("online status changed", "online", online)
	})
	go maint.Start(ctx)

	// Zeroconf mDNS registration
	hostname, _ := os.Hostname()
	port := 8097
	if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	zc := zeroconf.New(hostname, cfg.Fallback.Title, port)
	go func() {
		if err := zc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	// HTTP server
	version := identity.GetVersionFromDir(*cfgDir)
	infoFn := func() identity.Info {
		return identity.Info{
			Hostname: identity.GetHostname(),
			Station:  cfg.Fallback.Title,
			Version:  version,
			Online:   identity.GetOnlineStatus(),
		}
	}
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(engine, bus, infoFn),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("playerd listening", "addr", *addr, "mock", *mock, "config", *cfgFile, "sources", len(cfg.Sources))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Release the background registration so no stale inhibitor outlives
	// the process.
	if err := bgCoord.Exit(shutCtx); err != nil {
		slog.Warn("background release error", "err", err)
	}

	// Flush pending session writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush session state", "err", err)
	}

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	engine.Wait()
	conn.Wait()
	slog.Info("shutdown complete")
}
