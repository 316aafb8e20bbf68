package scheduler

import (
	"context"
	"time"
)

// Long sleeps are split so cancellation is noticed promptly.
const sleepSlice = 100 * time.Millisecond

// Clock supplies time to the scheduler. Sleep returns the context error
// when ctx is cancelled before d has elapsed.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	return sleepChunked(ctx, d, sleepSlice)
}

func sleepChunked(ctx context.Context, d, slice time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		if remaining > slice {
			remaining = slice
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
