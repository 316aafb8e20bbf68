package matrix

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	// halfBlock draws the upper pixel in the foreground and the lower in the background
	halfBlock = "▀"

	ansiHome      = "\x1b[H"
	ansiClearHome = "\x1b[2J\x1b[H"
)

// ConsoleSurface renders frames as 24-bit ANSI half-blocks, two pixel rows
// per text line. Each frame redraws in place from the cursor home position.
type ConsoleSurface struct {
	out        io.Writer
	renderer   *lipgloss.Renderer
	cols, rows int
	brightness int
	font       *Font

	// styles caches one style per (top, bottom) color pair
	styles map[[2]Color]lipgloss.Style
}

// NewConsoleSurface creates a console surface writing to out.
// Colors are always emitted, even when out is not a terminal.
func NewConsoleSurface(out io.Writer, cols, rows, brightness int, font *Font) *ConsoleSurface {
	renderer := lipgloss.NewRenderer(out)
	renderer.SetColorProfile(termenv.TrueColor)

	return &ConsoleSurface{
		out:        out,
		renderer:   renderer,
		cols:       cols,
		rows:       rows,
		brightness: brightness,
		font:       font,
		styles:     make(map[[2]Color]lipgloss.Style),
	}
}

// Size returns the display resolution in pixels.
func (s *ConsoleSurface) Size() (int, int) {
	return s.cols, s.rows
}

// NewFrame returns a blank frame sized to the display.
func (s *ConsoleSurface) NewFrame() *Canvas {
	return NewCanvas(s.cols, s.rows, s.font)
}

// Present writes the frame to the console.
func (s *ConsoleSurface) Present(frame *Canvas) error {
	var b strings.Builder
	b.WriteString(ansiHome)
	for y := 0; y < s.rows; y += 2 {
		for x := 0; x < s.cols; x++ {
			top, bottom := pixelPair(frame, x, y, s.brightness)
			b.WriteString(s.style(top, bottom).Render(halfBlock))
		}
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Clear blanks the console.
func (s *ConsoleSurface) Clear() error {
	if _, err := io.WriteString(s.out, ansiClearHome); err != nil {
		return fmt.Errorf("failed to clear console: %w", err)
	}
	return nil
}

// Close resets terminal attributes.
func (s *ConsoleSurface) Close() error {
	_, err := io.WriteString(s.out, "\x1b[0m\n")
	return err
}

func (s *ConsoleSurface) style(top, bottom Color) lipgloss.Style {
	key := [2]Color{top, bottom}
	if st, ok := s.styles[key]; ok {
		return st
	}
	st := s.renderer.NewStyle().
		Foreground(lipgloss.Color(top.Hex())).
		Background(lipgloss.Color(bottom.Hex()))
	s.styles[key] = st
	return st
}
