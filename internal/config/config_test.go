package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playerd.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSortsSourcesByPriority(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
sources:
  - name: backup
    url: http://backup.example/stream
    priority: 2
  - name: main
    url: http://main.example/stream
    priority: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q, want :9000", cfg.Listen)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].Name != "main" || cfg.Sources[1].Name != "backup" {
		t.Errorf("sources = %v, want [main backup]", cfg.Sources)
	}
}

func TestLoadBackfillsDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: main
    url: http://main.example/stream
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay != 2*time.Second {
		t.Errorf("base delay = %v, want 2s", cfg.Retry.BaseDelay)
	}
	if cfg.Retry.MaxDelay != 30*time.Second {
		t.Errorf("max delay = %v, want 30s", cfg.Retry.MaxDelay)
	}
	if cfg.Metadata.PollInterval != 5*time.Second {
		t.Errorf("poll interval = %v, want 5s", cfg.Metadata.PollInterval)
	}
	if cfg.Listen != ":8097" {
		t.Errorf("listen = %q, want default :8097", cfg.Listen)
	}
}

func TestLoadRejectsEmptySources(t *testing.T) {
	path := writeConfig(t, "listen: \":9000\"\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for config without sources")
	}
}

func TestLoadMissingFileUsesEnvSource(t *testing.T) {
	t.Setenv("PLAYERD_STREAM_URL", "http://env.example/stream")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].URL != "http://env.example/stream" {
		t.Errorf("sources = %v, want single env source", cfg.Sources)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("PLAYERD_RETRY_MAX_ATTEMPTS", "5")
	path := writeConfig(t, `
sources:
  - name: main
    url: http://main.example/stream
retry:
  max_attempts: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want env override 5", cfg.Retry.MaxAttempts)
	}
}

func TestFallbackMetadata(t *testing.T) {
	cfg := Default()
	cfg.Fallback.Title = "Trend Ankara"
	cfg.Fallback.Artist = "Canlı Yayın"

	got := cfg.FallbackMetadata()
	want := models.NowPlayingMetadata{Title: "Trend Ankara", Artist: "Canlı Yayın"}
	if !got.Equal(want) {
		t.Errorf("fallback metadata = %+v, want %+v", got, want)
	}
}
