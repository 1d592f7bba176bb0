package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/connection"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorClass
	}{
		{"nil", nil, models.ClassNone},
		{"server status", &connection.StatusError{Code: 503}, models.ClassServerError},
		{"client status", &connection.StatusError{Code: 404}, models.ClassClientError},
		{"wrapped status", fmt.Errorf("open: %w", &connection.StatusError{Code: 500}), models.ClassServerError},
		{"unsupported format", fmt.Errorf("%w: %q", connection.ErrUnsupportedFormat, "text/html"), models.ClassDecodeError},
		{"deadline exceeded", context.DeadlineExceeded, models.ClassTimeout},
		{"net timeout", timeoutErr{}, models.ClassTimeout},
		{"wrapped net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, models.ClassTimeout},
		{"connection refused", syscall.ECONNREFUSED, models.ClassConnectionRefused},
		{"wrapped refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, models.ClassConnectionRefused},
		{"network unreachable", syscall.ENETUNREACH, models.ClassNetworkUnreachable},
		{"host unreachable", syscall.EHOSTUNREACH, models.ClassNetworkUnreachable},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "radio.example"}, models.ClassNetworkUnreachable},
		{"connection reset", syscall.ECONNRESET, models.ClassNetworkUnreachable},
		{"short body", io.ErrUnexpectedEOF, models.ClassNetworkUnreachable},
		{"unknown", errors.New("something odd"), models.ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
