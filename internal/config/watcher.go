package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Watcher watches the config file for changes and keeps the latest valid
// source list available. A fresh playback session picks up the new list;
// a running session is never retargeted mid-stream.
type Watcher struct {
	mu      sync.RWMutex
	path    string
	sources []models.StreamSource
	watcher *fsnotify.Watcher
	onLoad  func([]models.StreamSource)
}

// NewWatcher creates a watcher seeded with the given sources. onLoad (may
// be nil) is called with each successfully reloaded source list.
func NewWatcher(path string, sources []models.StreamSource, onLoad func([]models.StreamSource)) (*Watcher, error) {
	w := &Watcher{
		path:    path,
		sources: sources,
		onLoad:  onLoad,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: could not create fsnotify watcher", "err", err)
		return w, nil
	}
	w.watcher = watcher

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		slog.Warn("config: could not watch config dir", "err", err)
	}

	go w.watchLoop()
	return w, nil
}

// Sources returns the most recently loaded source list.
func (w *Watcher) Sources() []models.StreamSource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.StreamSource, len(w.sources))
	copy(out, w.sources)
	return out
}

// Close stops the file watcher.
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watchLoop() {
	if w.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}

// reload re-reads the config file. An invalid file keeps the last good
// source list.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config: reload failed, keeping previous sources", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	w.sources = cfg.Sources
	sources := cfg.Sources
	w.mu.Unlock()

	slog.Info("config: reloaded stream sources", "count", len(sources))
	if w.onLoad != nil {
		w.onLoad(sources)
	}
}
