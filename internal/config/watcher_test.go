package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playerd.yaml")
	initial := []models.StreamSource{{Name: "old", URL: "http://old.example/stream", Priority: 1}}

	loaded := make(chan []models.StreamSource, 4)
	w, err := NewWatcher(path, initial, func(s []models.StreamSource) {
		loaded <- s
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	content := `
sources:
  - name: new
    url: http://new.example/stream
    priority: 1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-loaded:
		if len(got) != 1 || got[0].Name != "new" {
			t.Errorf("reloaded sources = %v, want [new]", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}

	if got := w.Sources(); len(got) != 1 || got[0].Name != "new" {
		t.Errorf("Sources() = %v, want [new]", got)
	}
}

func TestWatcherKeepsLastGoodOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playerd.yaml")
	initial := []models.StreamSource{{Name: "good", URL: "http://good.example/stream", Priority: 1}}

	w, err := NewWatcher(path, initial, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// No sources at all fails validation; the previous list must survive.
	if err := os.WriteFile(path, []byte("listen: \":9000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := w.Sources(); len(got) != 1 || got[0].Name != "good" {
		t.Errorf("Sources() after invalid reload = %v, want [good]", got)
	}
}
