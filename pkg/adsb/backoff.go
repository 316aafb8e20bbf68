package adsb

import "time"

// NextFetchDelay returns how long to wait before the next fetch attempt.
// A rate limited response pushes the next attempt out to the server's
// Retry-After when that is longer than the normal interval; every other
// outcome keeps the interval. Fetches are never retried inside a cycle.
func NextFetchDelay(err error, interval time.Duration) time.Duration {
	if rle, ok := IsRateLimitError(err); ok && rle.RetryAfter > interval {
		return rle.RetryAfter
	}
	return interval
}
