package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadBDF reads a Glyph Bitmap Distribution Format font from path.
func LoadBDF(path string) (*Font, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open font: %w", err)
	}
	defer f.Close()

	font, err := ParseBDF(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return font, nil
}

// ParseBDF parses a BDF font. Only the properties needed to draw text are
// read: FONT, FONT_ASCENT, FONT_DESCENT and per glyph ENCODING, DWIDTH, BBX
// and BITMAP. Glyphs with a negative encoding are skipped.
func ParseBDF(r io.Reader) (*Font, error) {
	font := &Font{glyphs: make(map[rune]Glyph)}
	scanner := bufio.NewScanner(r)

	var (
		line     int
		sawStart bool
		inChar   bool
		inBitmap bool
		encoding int
		glyph    Glyph
		fontBBX  [4]int
	)

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if inBitmap {
			if fields[0] == "ENDCHAR" {
				if encoding >= 0 {
					if glyph.Advance == 0 {
						glyph.Advance = glyph.Width + glyph.XOffset
					}
					font.glyphs[rune(encoding)] = glyph
				}
				inBitmap, inChar = false, false
				continue
			}
			row, err := strconv.ParseUint(fields[0], 16, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad bitmap row %q", line, fields[0])
			}
			bits := 4 * len(fields[0])
			if bits > glyph.Width {
				row >>= uint(bits - glyph.Width)
			}
			glyph.Rows = append(glyph.Rows, uint32(row))
			continue
		}

		ints, err := atois(fields[1:])
		switch fields[0] {
		case "STARTFONT":
			sawStart = true
		case "FONT":
			if len(fields) > 1 {
				font.Name = fields[1]
			}
		case "FONTBOUNDINGBOX":
			if err != nil || len(ints) < 4 {
				return nil, fmt.Errorf("line %d: bad FONTBOUNDINGBOX", line)
			}
			copy(fontBBX[:], ints)
		case "FONT_ASCENT":
			if err != nil || len(ints) < 1 {
				return nil, fmt.Errorf("line %d: bad FONT_ASCENT", line)
			}
			font.Ascent = ints[0]
		case "FONT_DESCENT":
			if err != nil || len(ints) < 1 {
				return nil, fmt.Errorf("line %d: bad FONT_DESCENT", line)
			}
			font.Descent = ints[0]
		case "STARTCHAR":
			inChar = true
			encoding = -1
			glyph = Glyph{}
		case "ENCODING":
			if !inChar || err != nil || len(ints) < 1 {
				return nil, fmt.Errorf("line %d: bad ENCODING", line)
			}
			encoding = ints[0]
		case "DWIDTH":
			if !inChar || err != nil || len(ints) < 1 {
				return nil, fmt.Errorf("line %d: bad DWIDTH", line)
			}
			glyph.Advance = ints[0]
		case "BBX":
			if !inChar || err != nil || len(ints) < 4 {
				return nil, fmt.Errorf("line %d: bad BBX", line)
			}
			if ints[0] > 32 {
				return nil, fmt.Errorf("line %d: glyph wider than 32 pixels", line)
			}
			glyph.Width, glyph.Height = ints[0], ints[1]
			glyph.XOffset, glyph.YOffset = ints[2], ints[3]
		case "BITMAP":
			if !inChar {
				return nil, fmt.Errorf("line %d: BITMAP outside STARTCHAR", line)
			}
			inBitmap = true
			glyph.Rows = make([]uint32, 0, glyph.Height)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawStart {
		return nil, fmt.Errorf("not a BDF font")
	}
	if len(font.glyphs) == 0 {
		return nil, fmt.Errorf("font has no glyphs")
	}

	// Older fonts omit the ascent properties
	if font.Ascent == 0 && font.Descent == 0 {
		font.Ascent = fontBBX[1] + fontBBX[3]
		font.Descent = -fontBBX[3]
	}
	return font, nil
}

func atois(fields []string) ([]int, error) {
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return out, err
		}
		out = append(out, n)
	}
	return out, nil
}
