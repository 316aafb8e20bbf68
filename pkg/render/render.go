// Package render maps flight records to draw instructions for the matrix.
//
// Rendering is pure: every function returns a list of positioned text
// instructions and never touches a surface. Draw applies a list to a frame.
package render

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/coordinates"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
)

// Vertical rate threshold for CLB/DES labels
const levelBandFPM = 100

// Layout describes the text grid on the display.
type Layout struct {
	Cols       int // display width in pixels
	Rows       int // display height in pixels
	CharWidth  int // glyph advance in pixels
	LineHeight int // baseline spacing in pixels
	Top        int // baseline of the first line
	Left       int // x of the first character
}

// DefaultLayout returns the 64x64 layout with a 4x6 font.
func DefaultLayout() Layout {
	return Layout{Cols: 64, Rows: 64, CharWidth: 4, LineHeight: 8, Top: 7, Left: 1}
}

// MaxChars returns how many characters fit on one line.
func (l Layout) MaxChars() int {
	if l.CharWidth <= 0 {
		return 0
	}
	return (l.Cols - l.Left) / l.CharWidth
}

// Lines returns how many baselines fit on the display.
func (l Layout) Lines() int {
	if l.LineHeight <= 0 || l.Top >= l.Rows {
		return 0
	}
	return (l.Rows-1-l.Top)/l.LineHeight + 1
}

// Baseline returns the y coordinate of line i (0-based).
func (l Layout) Baseline(i int) int {
	return l.Top + i*l.LineHeight
}

// Palette holds the colors used by the pages.
type Palette struct {
	Text     matrix.Color
	Accent   matrix.Color
	Dim      matrix.Color
	Ground   matrix.Color
	Airborne matrix.Color
	Alert    matrix.Color
}

// DefaultPalette returns white text with red/cyan status colors.
func DefaultPalette() Palette {
	return Palette{
		Text:     matrix.ColorWhite,
		Accent:   matrix.ColorYellow,
		Dim:      matrix.ColorGray,
		Ground:   matrix.ColorRed,
		Airborne: matrix.ColorCyan,
		Alert:    matrix.ColorRed,
	}
}

// Instruction is one line of text to draw with its baseline at Y.
type Instruction struct {
	X     int
	Y     int
	Color matrix.Color
	Text  string
}

// Renderer builds the display pages.
type Renderer struct {
	layout    Layout
	reference coordinates.Geographic
	labels    Labels
	palette   Palette
}

// New creates a renderer measuring distances from reference.
func New(layout Layout, reference coordinates.Geographic, labels Labels, palette Palette) *Renderer {
	if labels.Airlines == nil && labels.Categories == nil {
		labels = DefaultLabels()
	}
	return &Renderer{
		layout:    layout,
		reference: reference,
		labels:    labels,
		palette:   palette,
	}
}

// Layout returns the text grid.
func (r *Renderer) Layout() Layout {
	return r.layout
}

// Page renders page 0 (identity) or page 1 (telemetry) of a flight.
// Any other index renders the compact single-page view.
func (r *Renderer) Page(rec adsb.FlightRecord, page int) []Instruction {
	switch page {
	case 0:
		return r.lines([]line{
			{rec.DisplayName(), r.palette.Text},
			{r.labels.Airline(rec.Callsign), r.palette.Accent},
			{"ICAO " + rec.ICAO, r.palette.Dim},
			{r.labels.CategoryOrOrigin(rec), r.palette.Text},
			r.status(rec),
		})
	case 1:
		return r.lines([]line{
			{AltitudeText(rec), r.palette.Text},
			{SpeedText(rec), r.palette.Text},
			{r.DistanceText(rec, true), r.palette.Text},
			{VerticalRateText(rec), r.palette.Text},
			r.squawk(rec),
		})
	default:
		return r.Compact(rec)
	}
}

// Compact renders all seven fields on one frame.
func (r *Renderer) Compact(rec adsb.FlightRecord) []Instruction {
	name := line{rec.DisplayName(), r.palette.Airborne}
	if rec.OnGround {
		name.color = r.palette.Ground
	}
	return r.lines([]line{
		name,
		{r.labels.CategoryOrOrigin(rec), r.palette.Text},
		{AltitudeText(rec), r.palette.Text},
		{SpeedText(rec), r.palette.Text},
		{r.DistanceText(rec, false), r.palette.Text},
		{VerticalRateText(rec), r.palette.Text},
		r.squawk(rec),
	})
}

// Summary renders the nearest flights with a header and a fetch-age footer.
// records must already be ordered nearest first.
func (r *Renderer) Summary(records []adsb.FlightRecord, fetchedAt, now time.Time) []Instruction {
	lines := []line{{fmt.Sprintf("NEARBY %d", len(records)), r.palette.Accent}}

	rows := r.layout.Lines() - 2
	nameWidth := r.layout.MaxChars() - 6
	for i := 0; i < rows && i < len(records); i++ {
		rec := records[i]
		text := fmt.Sprintf("%-*s%6s", nameWidth, truncate(rec.DisplayName(), nameWidth), r.shortDistance(rec))
		color := r.palette.Airborne
		if rec.OnGround {
			color = r.palette.Ground
		}
		lines = append(lines, line{text, color})
	}

	out := r.lines(lines)
	if r.layout.Lines() >= 2 {
		out = append(out, Instruction{
			X:     r.layout.Left,
			Y:     r.layout.Baseline(r.layout.Lines() - 1),
			Color: r.palette.Dim,
			Text:  r.fit("UPD " + Age(fetchedAt, now)),
		})
	}
	return out
}

// NoFlights renders the empty-area placeholder.
func (r *Renderer) NoFlights() []Instruction {
	return r.centered([]string{"NO FLIGHTS", "IN AREA"}, r.palette.Text)
}

// FetchError renders the placeholder shown before any data has been fetched.
func (r *Renderer) FetchError() []Instruction {
	return r.centered([]string{"API ERROR"}, r.palette.Alert)
}

// Draw applies instructions to a frame.
func Draw(frame *matrix.Canvas, instructions []Instruction) {
	for _, in := range instructions {
		frame.DrawText(in.X, in.Y, in.Color, in.Text)
	}
}

// AltitudeText formats the barometric altitude, e.g. "ALT 9,843ft".
func AltitudeText(rec adsb.FlightRecord) string {
	return fmt.Sprintf("ALT %sft", humanize.Comma(int64(rec.AltitudeFeet())))
}

// SpeedText formats the ground speed, e.g. "SPD 389kt".
func SpeedText(rec adsb.FlightRecord) string {
	return fmt.Sprintf("SPD %dkt", rec.SpeedKnots())
}

// VerticalRateText labels the climb state with the unsigned rate, e.g. "CLB 984fpm".
func VerticalRateText(rec adsb.FlightRecord) string {
	fpm := rec.VerticalRateFPM()
	label := "LVL"
	switch {
	case fpm > levelBandFPM:
		label = "CLB"
	case fpm < -levelBandFPM:
		label = "DES"
	}
	if fpm < 0 {
		fpm = -fpm
	}
	return fmt.Sprintf("%s %dfpm", label, fpm)
}

// DistanceText formats the distance from the reference point, e.g.
// "DST 12.3km NE". Unknown positions show "DST --".
func (r *Renderer) DistanceText(rec adsb.FlightRecord, withCardinal bool) string {
	if rec.Position == nil {
		return "DST --"
	}
	km := coordinates.DistanceKm(r.reference, *rec.Position)
	text := fmt.Sprintf("DST %.1fkm", km)
	if withCardinal && km > 0 {
		text += " " + coordinates.CardinalDirection(coordinates.Bearing(r.reference, *rec.Position))
	}
	return text
}

// Age formats elapsed time compactly: "30s", "5m", "2h".
func Age(since, now time.Time) string {
	d := now.Sub(since)
	if since.IsZero() || d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
}

type line struct {
	text  string
	color matrix.Color
}

// lines lays out text top to bottom, dropping lines that do not fit.
func (r *Renderer) lines(in []line) []Instruction {
	n := len(in)
	if limit := r.layout.Lines(); n > limit {
		n = limit
	}
	out := make([]Instruction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Instruction{
			X:     r.layout.Left,
			Y:     r.layout.Baseline(i),
			Color: in[i].color,
			Text:  r.fit(in[i].text),
		})
	}
	return out
}

// centered lays out a short block in the middle of the display.
func (r *Renderer) centered(texts []string, color matrix.Color) []Instruction {
	block := (len(texts) - 1) * r.layout.LineHeight
	y := r.layout.Rows/2 + r.layout.LineHeight/2 - 1 - block/2
	out := make([]Instruction, 0, len(texts))
	for i, text := range texts {
		text = r.fit(text)
		x := (r.layout.Cols - len([]rune(text))*r.layout.CharWidth) / 2
		if x < r.layout.Left {
			x = r.layout.Left
		}
		out = append(out, Instruction{X: x, Y: y + i*r.layout.LineHeight, Color: color, Text: text})
	}
	return out
}

func (r *Renderer) status(rec adsb.FlightRecord) line {
	if rec.OnGround {
		return line{"GROUND", r.palette.Ground}
	}
	return line{"AIRBORNE", r.palette.Airborne}
}

func (r *Renderer) squawk(rec adsb.FlightRecord) line {
	color := r.palette.Text
	if IsEmergencySquawk(rec.Squawk) {
		color = r.palette.Alert
	}
	return line{"SQK " + rec.Squawk, color}
}

func (r *Renderer) shortDistance(rec adsb.FlightRecord) string {
	if rec.Position == nil {
		return "--"
	}
	km := coordinates.DistanceKm(r.reference, *rec.Position)
	return fmt.Sprintf("%dkm", int(math.Round(km)))
}

func (r *Renderer) fit(text string) string {
	return truncate(text, r.layout.MaxChars())
}

// IsEmergencySquawk reports hijack (7500), radio failure (7600) and emergency (7700).
func IsEmergencySquawk(squawk string) bool {
	return squawk == "7500" || squawk == "7600" || squawk == "7700"
}

func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
