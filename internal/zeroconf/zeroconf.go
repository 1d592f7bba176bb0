// Package zeroconf registers the player control API as an mDNS/DNS-SD
// service so companion apps can discover it on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS service registration.
type Service struct {
	name    string // instance name / hostname, e.g. "trendankara"
	station string
	port    int
	server  *zeroconf.Server
}

// New creates a zeroconf Service that will advertise the control API on
// the given port. name should be the hostname (e.g. "trendankara").
func New(name, station string, port int) *Service {
	return &Service{
		name:    name,
		station: station,
		port:    port,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	txt := []string{"station=" + s.station, "api=/api", "events=/api/events"}

	server, err := zeroconf.Register(
		s.name,       // instance name
		"_http._tcp", // service type
		"local.",     // domain
		s.port,       // port
		txt,          // TXT records
		nil,          // ifaces; nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
