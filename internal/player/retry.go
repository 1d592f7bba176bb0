package player

import (
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

// Decision is the policy outcome for one connection failure.
type Decision int

const (
	// DecisionRetry reopens the same source after the returned delay.
	DecisionRetry Decision = iota
	// DecisionFallback advances to the next source immediately.
	DecisionFallback
	// DecisionFail ends the session in the error state.
	DecisionFail
)

func (d Decision) String() string {
	switch d {
	case DecisionRetry:
		return "retry"
	case DecisionFallback:
		return "fallback"
	case DecisionFail:
		return "fail"
	}
	return "unknown"
}

// Policy maps an error class and the attempt count on the current source to
// a retry decision. Transient classes retry with exponential backoff up to
// MaxAttempts before falling back; classes that rarely self-heal on the
// same source fall back immediately; configuration errors fail outright.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy matches the shipped configuration defaults.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// Decide returns the decision for a failure of class on the given
// zero-based attempt. The delay is meaningful only for DecisionRetry.
func (p Policy) Decide(class models.ErrorClass, attempt int) (Decision, time.Duration) {
	switch class {
	case models.ClassNetworkUnreachable, models.ClassTimeout, models.ClassServerError, models.ClassUnknown:
		if attempt < p.MaxAttempts {
			return DecisionRetry, p.Delay(attempt)
		}
		return DecisionFallback, 0
	case models.ClassConnectionRefused, models.ClassDecodeError:
		return DecisionFallback, 0
	case models.ClassClientError, models.ClassFocusDenied:
		return DecisionFail, 0
	}
	return DecisionFail, 0
}

// Delay returns the backoff for the given zero-based attempt: BaseDelay
// doubled per attempt, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
