package render

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/unklstewy/flightmatrix/pkg/coordinates"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
)

// Sleeper pauses between animation frames. Sleep returns early with an
// error when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Sweep is the radial wipe played between pages: spokes from the display
// centre accumulate around a circle until the frame is covered.
type Sweep struct {
	Steps      int
	Radius     float64
	FrameDelay time.Duration
	Color      matrix.Color
}

// DefaultSweep returns a 30 step sweep of radius 45 at roughly 60 fps.
func DefaultSweep() Sweep {
	return Sweep{
		Steps:      30,
		Radius:     45,
		FrameDelay: 16 * time.Millisecond,
		Color:      matrix.ColorBlue,
	}
}

// Duration returns the nominal length of the animation.
func (s Sweep) Duration() time.Duration {
	return time.Duration(s.Steps) * s.FrameDelay
}

// Endpoint returns the spoke for step: from the centre of a cols x rows
// display to the point at step*360/Steps degrees on the sweep radius.
func (s Sweep) Endpoint(cols, rows, step int) (x0, y0, x1, y1 int) {
	x0, y0 = cols/2, rows/2
	if s.Steps <= 0 {
		return x0, y0, x0, y0
	}
	angle := float64(step) * 360.0 / float64(s.Steps) * coordinates.DegreesToRadians
	x1 = x0 + int(math.Round(s.Radius*math.Cos(angle)))
	y1 = y0 + int(math.Round(s.Radius*math.Sin(angle)))
	return x0, y0, x1, y1
}

// Play runs the animation on surface. It returns early, with the
// cancellation error, when ctx is done.
func (s Sweep) Play(ctx context.Context, surface matrix.Surface, sleeper Sleeper) error {
	cols, rows := surface.Size()
	frame := surface.NewFrame()

	for step := 0; step < s.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		x0, y0, x1, y1 := s.Endpoint(cols, rows, step)
		frame.DrawLine(x0, y0, x1, y1, s.Color)
		if err := surface.Present(frame); err != nil {
			return fmt.Errorf("failed to present sweep frame: %w", err)
		}
		if err := sleeper.Sleep(ctx, s.FrameDelay); err != nil {
			return err
		}
	}
	return nil
}
