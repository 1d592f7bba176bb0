// Package maintenance provides background upkeep goroutines for playerd:
// connectivity probing against the configured stream hosts and periodic
// backups of the config directory (config file, session state, artwork).
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	onlineCheckInterval = 1 * time.Minute
	onlineStatusFile    = "/tmp/trendankara-online"
	backupRetention     = 30 * 24 * time.Hour
	probeTimeout        = 3 * time.Second
)

// dialFunc is a variable so tests can inject a mock dialer.
var dialFunc = func(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Service manages background maintenance goroutines.
type Service struct {
	configDir string
	probeAddr string     // host:port probed for connectivity
	onOnline  func(bool) // callback when online status changes
}

// New creates a maintenance Service. probeAddr is the address dialed to
// judge connectivity; an empty value falls back to a public DNS resolver.
func New(configDir, probeAddr string, onOnline func(bool)) *Service {
	if probeAddr == "" {
		probeAddr = "1.1.1.1:53"
	}
	return &Service{
		configDir: configDir,
		probeAddr: probeAddr,
		onOnline:  onOnline,
	}
}

// Start launches all background maintenance goroutines.
// Blocks until ctx is cancelled; all goroutines respect the context.
func (s *Service) Start(ctx context.Context) {
	go s.runCheckOnline(ctx)
	go s.runBackup(ctx)

	<-ctx.Done()
}

// RunBackupNow performs a backup immediately and returns the backup file
// path or error.
func (s *Service) RunBackupNow() (string, error) {
	return runBackup(s.configDir)
}

// runCheckOnline probes connectivity every minute. A stream daemon cares
// about this more than most: the status file lets operators distinguish a
// dead stream host from a dead uplink.
func (s *Service) runCheckOnline(ctx context.Context) {
	lastStatus := false
	first := true

	check := func() {
		conn, err := dialFunc("tcp", s.probeAddr, probeTimeout)
		online := err == nil
		if conn != nil {
			conn.Close()
		}

		status := "offline"
		if online {
			status = "online"
		}
		if err2 := os.WriteFile(onlineStatusFile, []byte(status), 0644); err2 != nil {
			slog.Warn("maintenance: failed to write online status", "err", err2)
		}

		if first || online != lastStatus {
			first = false
			lastStatus = online
			if s.onOnline != nil {
				s.onOnline(online)
			}
			slog.Info("maintenance: online status", "online", online, "probe", s.probeAddr)
		}
	}

	check() // immediate first check

	ticker := time.NewTicker(onlineCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// runBackup performs daily backups at 2am.
func (s *Service) runBackup(ctx context.Context) {
	for {
		now := time.Now()
		next2am := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, now.Location())
		if !next2am.After(now) {
			next2am = next2am.Add(24 * time.Hour)
		}
		delay := next2am.Sub(now)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			path, err := runBackup(s.configDir)
			if err != nil {
				slog.Error("maintenance: backup failed", "err", err)
			} else {
				slog.Info("maintenance: backup created", "file", path)
			}
		}
	}
}

// runBackup creates a timestamped backup of the config directory.
func runBackup(configDir string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}

	backupDir := filepath.Join(home, "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	src := configDir
	if src == "" {
		src = filepath.Join(home, ".config", "trendankara")
	}

	date := time.Now().Format("2006-01-02")
	destFile := filepath.Join(backupDir, fmt.Sprintf("trendankara-config-%s.tar.gz", date))

	cmd := exec.Command("tar", "-czf", destFile, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tar: %w: %s", err, out)
	}

	pruneOldBackups(backupDir, backupRetention)

	return destFile, nil
}

// pruneOldBackups deletes backup files older than maxAge from backupDir.
func pruneOldBackups(backupDir string, maxAge time.Duration) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasPrefix(e.Name(), "trendankara-config-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(backupDir, e.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("maintenance: failed to prune old backup", "file", path, "err", err)
			} else {
				slog.Info("maintenance: pruned old backup", "file", path)
			}
		}
	}
}
