package adsb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestNextFetchDelay tests that server back-off only ever lengthens the interval.
func TestNextFetchDelay(t *testing.T) {
	interval := 60 * time.Second

	tests := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"Success", nil, interval},
		{"Network error", errors.New("connection refused"), interval},
		{"Timeout", context.DeadlineExceeded, interval},
		{"Rate limited without hint", &RateLimitError{StatusCode: 429}, interval},
		{"Rate limited shorter than interval", &RateLimitError{StatusCode: 429, RetryAfter: 10 * time.Second}, interval},
		{"Rate limited longer than interval", &RateLimitError{StatusCode: 429, RetryAfter: 5 * time.Minute}, 5 * time.Minute},
		{"Wrapped rate limit", fmt.Errorf("fetch: %w", &RateLimitError{RetryAfter: 2 * time.Minute}), 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextFetchDelay(tt.err, interval); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
