// Package identity provides daemon identity information for playerd.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVersion is the fallback version string when metadata.json is not
// found in the config directory.
const DefaultVersion = "1.0.0"

// Info holds daemon identity information, served on the info endpoint.
type Info struct {
	Hostname string `json:"hostname"`
	Station  string `json:"station"`
	Version  string `json:"version"`
	Online   bool   `json:"online"`
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "trendankara"
	}
	return h
}

// GetVersionFromDir reads the version from metadata.json in the given
// config directory. Falls back to DefaultVersion if the file is missing or
// unreadable.
func GetVersionFromDir(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return DefaultVersion
	}

	if v, ok := meta["version"].(string); ok && v != "" {
		return v
	}
	return DefaultVersion
}

// GetOnlineStatus reports the last connectivity probe result, written by
// the maintenance goroutine. Returns false if no probe has run yet.
func GetOnlineStatus() bool {
	if data, err := os.ReadFile("/tmp/trendankara-online"); err == nil {
		return strings.TrimSpace(string(data)) == "online"
	}
	return false
}
