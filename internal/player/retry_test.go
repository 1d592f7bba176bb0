package player

import (
	"testing"
	"time"

	"github.com/NeverGET/trendankara-mobile-sub004/internal/models"
)

func TestPolicyDecide(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		class   models.ErrorClass
		attempt int
		want    Decision
	}{
		{"unreachable first attempt retries", models.ClassNetworkUnreachable, 0, DecisionRetry},
		{"unreachable last attempt retries", models.ClassNetworkUnreachable, 2, DecisionRetry},
		{"unreachable past cap falls back", models.ClassNetworkUnreachable, 3, DecisionFallback},
		{"timeout retries", models.ClassTimeout, 0, DecisionRetry},
		{"server error retries", models.ClassServerError, 1, DecisionRetry},
		{"unknown retries", models.ClassUnknown, 0, DecisionRetry},
		{"refused falls back immediately", models.ClassConnectionRefused, 0, DecisionFallback},
		{"decode falls back immediately", models.ClassDecodeError, 0, DecisionFallback},
		{"client error fails", models.ClassClientError, 0, DecisionFail},
		{"focus denied fails", models.ClassFocusDenied, 0, DecisionFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := p.Decide(tt.class, tt.attempt)
			if got != tt.want {
				t.Errorf("Decide(%q, %d) = %v, want %v", tt.class, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestPolicyDelayDoublesAndCaps(t *testing.T) {
	p := DefaultPolicy()

	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
		30 * time.Second, 30 * time.Second,
	}
	var prev time.Duration
	for attempt, w := range want {
		d := p.Delay(attempt)
		if d != w {
			t.Errorf("Delay(%d) = %v, want %v", attempt, d, w)
		}
		if d < prev {
			t.Errorf("Delay(%d) = %v decreased below %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestPolicyRetryDelayMatchesAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	for attempt, want := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
		dec, delay := p.Decide(models.ClassNetworkUnreachable, attempt)
		if dec != DecisionRetry {
			t.Fatalf("Decide(unreachable, %d) = %v, want retry", attempt, dec)
		}
		if delay != want {
			t.Errorf("retry delay for attempt %d = %v, want %v", attempt, delay, want)
		}
	}
}
