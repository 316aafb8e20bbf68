// Package matrix provides the pixel surfaces the flight display draws on.
//
// A Surface hands out blank frames (Canvas) and presents finished ones.
// Backends:
//   - console: ANSI half-block rendering to a writer, the development stand-in
//     for the LED panel
//   - terminal: full-screen rendering through tcell
package matrix

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrSurfaceUnavailable is returned when no usable display backend can be opened.
var ErrSurfaceUnavailable = errors.New("display surface unavailable")

// Backend names accepted by Open.
const (
	BackendConsole  = "console"
	BackendTerminal = "terminal"
)

// Surface is a fixed-resolution pixel display.
type Surface interface {
	// Size returns the display resolution in pixels.
	Size() (cols, rows int)

	// NewFrame returns a blank frame sized to the display.
	NewFrame() *Canvas

	// Present shows a frame. The frame is not retained.
	Present(frame *Canvas) error

	// Clear turns every pixel off.
	Clear() error

	// Close releases the display.
	Close() error
}

// Interruptible is implemented by surfaces that take over the operator's
// keyboard. NotifyInterrupt calls stop once when the operator asks to quit.
type Interruptible interface {
	NotifyInterrupt(stop func())
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Cols       int
	Rows       int
	Brightness int

	// Font draws text; nil selects DefaultFont
	Font *Font

	// Output receives console frames (default os.Stdout)
	Output io.Writer
}

// Open creates the configured surface.
// Any failure is reported as ErrSurfaceUnavailable.
func Open(opts Options) (Surface, error) {
	if opts.Cols <= 0 || opts.Rows <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrSurfaceUnavailable, opts.Cols, opts.Rows)
	}
	if opts.Font == nil {
		opts.Font = DefaultFont()
	}

	switch strings.ToLower(opts.Backend) {
	case BackendConsole, "":
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		return NewConsoleSurface(out, opts.Cols, opts.Rows, opts.Brightness, opts.Font), nil
	case BackendTerminal:
		return NewTerminalSurface(opts.Cols, opts.Rows, opts.Brightness, opts.Font)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrSurfaceUnavailable, opts.Backend)
	}
}

// pixelPair returns the colors of the two pixel rows shown by one
// half-block character cell, scaled to brightness.
func pixelPair(frame *Canvas, x, y, brightness int) (top, bottom Color) {
	return frame.At(x, y).Scale(brightness), frame.At(x, y+1).Scale(brightness)
}
