package player

import (
	"sync"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// SourceList holds the ordered stream source candidates. The engine's event
// loop reads it by index; the config watcher replaces its contents when the
// file on disk changes, so reads and writes are guarded.
type SourceList struct {
	mu      sync.RWMutex
	sources []models.StreamSource
}

func NewSourceList(sources []models.StreamSource) *SourceList {
	l := &SourceList{}
	l.Replace(sources)
	return l
}

// Replace swaps in a new source set, keeping a private copy.
func (l *SourceList) Replace(sources []models.StreamSource) {
	cp := make([]models.StreamSource, len(sources))
	copy(cp, sources)
	l.mu.Lock()
	l.sources = cp
	l.mu.Unlock()
}

// At returns the source at index i, or false if i is out of range.
func (l *SourceList) At(i int) (models.StreamSource, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.sources) {
		return models.StreamSource{}, false
	}
	return l.sources[i], true
}

func (l *SourceList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sources)
}

// All returns a copy of the current source set.
func (l *SourceList) All() []models.StreamSource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]models.StreamSource, len(l.sources))
	copy(cp, l.sources)
	return cp
}
