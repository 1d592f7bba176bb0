package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	store := NewJSONStore(t.TempDir())

	state := &models.SessionState{
		LastKnownIntent: models.IntentPlaying,
		SourceIndex:     1,
		Metadata:        models.NowPlayingMetadata{Title: "Song", Artist: "Artist"},
		WasPlaying:      true,
	}
	if err := store.Save(state); err != nil {
		t.Fatal(err)
	}
	// Save is debounced; Flush forces the write.
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected restored state")
	}
	if got.SourceIndex != 1 || !got.WasPlaying || got.Metadata.Title != "Song" {
		t.Errorf("restored = %+v, want %+v", got, state)
	}
}

func TestJSONStoreMissingFileIsColdStart(t *testing.T) {
	store := NewJSONStore(t.TempDir())

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil state for missing file, got %+v", got)
	}
}

func TestJSONStoreCorruptFileIsColdStart(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewJSONStore(dir)

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil state for corrupt file, got %+v", got)
	}
}

func TestJSONStoreDebounceCoalescesWrites(t *testing.T) {
	store := NewJSONStore(t.TempDir())

	for i := 0; i < 10; i++ {
		if err := store.Save(&models.SessionState{SourceIndex: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.SourceIndex != 9 {
		t.Errorf("restored = %+v, want latest SourceIndex 9", got)
	}
}

func TestFlushWithoutSaveIsNoop(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("expected no session file after empty flush")
	}
}
