package matrix

import (
	"sync"
	"unicode"
)

// Glyph is a single character bitmap.
// Rows run top to bottom; bit (Width-1-x) of a row is pixel x.
type Glyph struct {
	Advance int
	Width   int
	Height  int

	// XOffset and YOffset locate the bitmap's bottom-left corner relative to
	// the pen position on the baseline; YOffset is positive upwards.
	XOffset int
	YOffset int

	Rows []uint32
}

// Pixel reports whether the glyph pixel at (x, y) is set.
func (g Glyph) Pixel(x, y int) bool {
	if x < 0 || x >= g.Width || y < 0 || y >= len(g.Rows) {
		return false
	}
	return g.Rows[y]&(1<<uint(g.Width-1-x)) != 0
}

// Font is a bitmap font indexed by rune.
type Font struct {
	Name    string
	Ascent  int
	Descent int

	glyphs map[rune]Glyph
}

// Height returns the line height in pixels.
func (f *Font) Height() int {
	return f.Ascent + f.Descent
}

// Glyph returns the glyph for r. Missing lowercase letters fall back to
// uppercase, anything else to '?' and finally to an empty cell.
func (f *Font) Glyph(r rune) Glyph {
	if g, ok := f.glyphs[r]; ok {
		return g
	}
	if g, ok := f.glyphs[unicode.ToUpper(r)]; ok {
		return g
	}
	if g, ok := f.glyphs['?']; ok {
		return g
	}
	return Glyph{Advance: f.glyphs[' '].Advance}
}

// TextWidth returns the advance of text in pixels.
func (f *Font) TextWidth(text string) int {
	width := 0
	for _, r := range text {
		width += f.Glyph(r).Advance
	}
	return width
}

// Len returns the number of glyphs in the font.
func (f *Font) Len() int {
	return len(f.glyphs)
}

var (
	defaultFont     *Font
	defaultFontOnce sync.Once
)

// DefaultFont returns the built-in 4x6 font: 3x5 capitals on a 4 pixel advance.
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		defaultFont = &Font{
			Name:    "builtin-4x6",
			Ascent:  5,
			Descent: 1,
			glyphs:  make(map[rune]Glyph, len(builtinGlyphs)),
		}
		for r, art := range builtinGlyphs {
			defaultFont.glyphs[r] = glyphFromArt(art[:])
		}
	})
	return defaultFont
}

func glyphFromArt(art []string) Glyph {
	g := Glyph{Advance: 4, Width: 3, Height: len(art), Rows: make([]uint32, len(art))}
	for y, line := range art {
		for x, ch := range line {
			if ch == '#' {
				g.Rows[y] |= 1 << uint(g.Width-1-x)
			}
		}
	}
	return g
}

var builtinGlyphs = map[rune][5]string{
	' ':  {"...", "...", "...", "...", "..."},
	'A':  {".#.", "#.#", "###", "#.#", "#.#"},
	'B':  {"##.", "#.#", "##.", "#.#", "##."},
	'C':  {".##", "#..", "#..", "#..", ".##"},
	'D':  {"##.", "#.#", "#.#", "#.#", "##."},
	'E':  {"###", "#..", "###", "#..", "###"},
	'F':  {"###", "#..", "###", "#..", "#.."},
	'G':  {".##", "#..", "#.#", "#.#", ".##"},
	'H':  {"#.#", "#.#", "###", "#.#", "#.#"},
	'I':  {"###", ".#.", ".#.", ".#.", "###"},
	'J':  {"..#", "..#", "..#", "#.#", ".#."},
	'K':  {"#.#", "#.#", "##.", "#.#", "#.#"},
	'L':  {"#..", "#..", "#..", "#..", "###"},
	'M':  {"#.#", "###", "###", "#.#", "#.#"},
	'N':  {"#.#", "###", "###", "###", "#.#"},
	'O':  {".#.", "#.#", "#.#", "#.#", ".#."},
	'P':  {"##.", "#.#", "##.", "#..", "#.."},
	'Q':  {".#.", "#.#", "#.#", "###", ".##"},
	'R':  {"##.", "#.#", "###", "##.", "#.#"},
	'S':  {".##", "#..", ".#.", "..#", "##."},
	'T':  {"###", ".#.", ".#.", ".#.", ".#."},
	'U':  {"#.#", "#.#", "#.#", "#.#", ".##"},
	'V':  {"#.#", "#.#", "#.#", ".#.", ".#."},
	'W':  {"#.#", "#.#", "###", "###", "#.#"},
	'X':  {"#.#", "#.#", ".#.", "#.#", "#.#"},
	'Y':  {"#.#", "#.#", ".#.", ".#.", ".#."},
	'Z':  {"###", "..#", ".#.", "#..", "###"},
	'0':  {"###", "#.#", "#.#", "#.#", "###"},
	'1':  {".#.", "##.", ".#.", ".#.", "###"},
	'2':  {"##.", "..#", ".#.", "#..", "###"},
	'3':  {"##.", "..#", ".#.", "..#", "##."},
	'4':  {"#.#", "#.#", "###", "..#", "..#"},
	'5':  {"###", "#..", "##.", "..#", "##."},
	'6':  {".##", "#..", "###", "#.#", "###"},
	'7':  {"###", "..#", ".#.", "#..", "#.."},
	'8':  {"###", "#.#", "###", "#.#", "###"},
	'9':  {"###", "#.#", "###", "..#", "##."},
	'-':  {"...", "...", "###", "...", "..."},
	'+':  {"...", ".#.", "###", ".#.", "..."},
	'=':  {"...", "###", "...", "###", "..."},
	'_':  {"...", "...", "...", "...", "###"},
	'/':  {"..#", "..#", ".#.", "#..", "#.."},
	'.':  {"...", "...", "...", "...", ".#."},
	',':  {"...", "...", "...", ".#.", "#.."},
	':':  {"...", ".#.", "...", ".#.", "..."},
	'\'': {".#.", ".#.", "...", "...", "..."},
	'!':  {".#.", ".#.", ".#.", "...", ".#."},
	'?':  {"###", "..#", ".##", "...", ".#."},
	'#':  {"#.#", "###", "#.#", "###", "#.#"},
	'%':  {"#.#", "..#", ".#.", "#..", "#.#"},
	'&':  {".#.", "#.#", ".#.", "#.#", ".##"},
	'*':  {"#.#", ".#.", "#.#", "...", "..."},
	'(':  {"..#", ".#.", ".#.", ".#.", "..#"},
	')':  {"#..", ".#.", ".#.", ".#.", "#.."},
	'<':  {"..#", ".#.", "#..", ".#.", "..#"},
	'>':  {"#..", ".#.", "..#", ".#.", "#.."},
}
