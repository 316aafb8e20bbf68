package matrix

import (
	"fmt"
	"image/color"
)

// Color represents an RGB LED color
type Color struct {
	R, G, B uint8
}

// Common colors
var (
	ColorBlack   = Color{0, 0, 0}
	ColorWhite   = Color{255, 255, 255}
	ColorRed     = Color{255, 0, 0}
	ColorGreen   = Color{0, 255, 0}
	ColorBlue    = Color{0, 0, 255}
	ColorYellow  = Color{255, 255, 0}
	ColorCyan    = Color{0, 255, 255}
	ColorMagenta = Color{255, 0, 255}
	ColorOrange  = Color{255, 165, 0}
	ColorGray    = Color{128, 128, 128}
)

// RGBA converts to the image/color representation used by Canvas.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsBlack reports whether the pixel is off.
func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Scale dims the color to brightness percent (0-100), like a panel PWM setting.
func (c Color) Scale(brightness int) Color {
	if brightness >= 100 {
		return c
	}
	if brightness <= 0 {
		return ColorBlack
	}
	scale := func(v uint8) uint8 {
		return uint8((int(v)*brightness + 50) / 100)
	}
	return Color{scale(c.R), scale(c.G), scale(c.B)}
}

// ParseColor parses "#rrggbb" (the leading # is optional).
func ParseColor(s string) (Color, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	var c Color
	if len(s) != 6 {
		return c, fmt.Errorf("invalid color %q: want rrggbb", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
