package matrix

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// TerminalSurface renders frames full-screen through tcell, two pixel rows
// per terminal cell.
type TerminalSurface struct {
	screen     tcell.Screen
	cols, rows int
	brightness int
	font       *Font
}

// NewTerminalSurface takes over the controlling terminal.
func NewTerminalSurface(cols, rows, brightness int, font *Font) (*TerminalSurface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return newTerminalSurface(screen, cols, rows, brightness, font)
}

func newTerminalSurface(screen tcell.Screen, cols, rows, brightness int, font *Font) (*TerminalSurface, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	screen.HideCursor()
	screen.Clear()
	screen.Show()

	return &TerminalSurface{
		screen:     screen,
		cols:       cols,
		rows:       rows,
		brightness: brightness,
		font:       font,
	}, nil
}

// Size returns the display resolution in pixels.
func (s *TerminalSurface) Size() (int, int) {
	return s.cols, s.rows
}

// NewFrame returns a blank frame sized to the display.
func (s *TerminalSurface) NewFrame() *Canvas {
	return NewCanvas(s.cols, s.rows, s.font)
}

// Present draws the frame and flushes it to the terminal.
func (s *TerminalSurface) Present(frame *Canvas) error {
	for y := 0; y < s.rows; y += 2 {
		for x := 0; x < s.cols; x++ {
			top, bottom := pixelPair(frame, x, y, s.brightness)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			s.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	s.screen.Show()
	return nil
}

// Clear blanks the terminal.
func (s *TerminalSurface) Clear() error {
	s.screen.Clear()
	s.screen.Show()
	return nil
}

// NotifyInterrupt watches the terminal for Ctrl-C or Esc. The screen runs
// in raw mode, so these arrive as key events rather than signals.
// The watcher exits when the surface is closed.
func (s *TerminalSurface) NotifyInterrupt(stop func()) {
	go func() {
		for {
			switch ev := s.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventResize:
				s.screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
					stop()
					return
				}
			}
		}
	}()
}

// Close restores the terminal.
func (s *TerminalSurface) Close() error {
	s.screen.Fini()
	return nil
}
