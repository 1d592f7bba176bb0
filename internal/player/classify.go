package player

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/connection"
	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Classify maps a connection failure to the closed error taxonomy consumed
// by Policy. Unknown is the conservative default: it stays retryable so an
// unrecognized transient fault is not treated as permanent.
func Classify(err error) models.ErrorClass {
	if err == nil {
		return models.ClassNone
	}

	var status *connection.StatusError
	if errors.As(err, &status) {
		if status.Code >= 500 {
			return models.ClassServerError
		}
		return models.ClassClientError
	}

	if errors.Is(err, connection.ErrUnsupportedFormat) {
		return models.ClassDecodeError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ClassTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return models.ClassConnectionRefused
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return models.ClassNetworkUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.ClassNetworkUnreachable
	}

	// A stream that drops mid-read looks like a connection reset or a short
	// body rather than a clean close.
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return models.ClassNetworkUnreachable
	}

	return models.ClassUnknown
}
