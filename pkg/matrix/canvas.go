package matrix

import (
	"image"
	"image/draw"
)

// Canvas is an off-screen frame. Drawing outside the frame is clipped.
type Canvas struct {
	img  *image.RGBA
	font *Font
}

// NewCanvas creates a black frame of cols x rows pixels drawing text with font.
// A nil font selects DefaultFont.
func NewCanvas(cols, rows int, font *Font) *Canvas {
	if font == nil {
		font = DefaultFont()
	}
	c := &Canvas{
		img:  image.NewRGBA(image.Rect(0, 0, cols, rows)),
		font: font,
	}
	c.Fill(ColorBlack)
	return c
}

// Size returns the frame dimensions.
func (c *Canvas) Size() (cols, rows int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Fill sets every pixel to col.
func (c *Canvas) Fill(col Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col.RGBA()), image.Point{}, draw.Src)
}

// SetPixel lights one pixel.
func (c *Canvas) SetPixel(x, y int, col Color) {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	c.img.SetRGBA(x, y, col.RGBA())
}

// At returns the pixel color, black outside the frame.
func (c *Canvas) At(x, y int) Color {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return ColorBlack
	}
	p := c.img.RGBAAt(x, y)
	return Color{p.R, p.G, p.B}
}

// LitPixels counts pixels that are not black.
func (c *Canvas) LitPixels() int {
	cols, rows := c.Size()
	n := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !c.At(x, y).IsBlack() {
				n++
			}
		}
	}
	return n
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.SetPixel(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawText draws text with its baseline at y, starting at x.
// Returns the horizontal advance in pixels.
func (c *Canvas) DrawText(x, y int, col Color, text string) int {
	start := x
	for _, r := range text {
		g := c.font.Glyph(r)
		top := y - g.YOffset - g.Height + 1
		for gy := 0; gy < len(g.Rows); gy++ {
			for gx := 0; gx < g.Width; gx++ {
				if g.Pixel(gx, gy) {
					c.SetPixel(x+g.XOffset+gx, top+gy, col)
				}
			}
		}
		x += g.Advance
	}
	return x - start
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
