package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/coordinates"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
)

var london = coordinates.Geographic{Latitude: 51.5074, Longitude: -0.1278}

func newTestRenderer() *Renderer {
	return New(DefaultLayout(), london, DefaultLabels(), DefaultPalette())
}

func intPtr(v int) *int { return &v }

func speedbird() adsb.FlightRecord {
	return adsb.FlightRecord{
		ICAO:            "4CA2BF",
		Callsign:        "BAW123",
		OriginCountry:   "United Kingdom",
		Position:        &coordinates.Geographic{Latitude: 51.60, Longitude: -0.02},
		AltitudeMeters:  3000,
		GroundSpeedMps:  200,
		VerticalRateMps: 5,
		Squawk:          "7700",
		Category:        intPtr(6),
	}
}

func texts(instructions []Instruction) []string {
	out := make([]string, len(instructions))
	for i, in := range instructions {
		out[i] = in.Text
	}
	return out
}

// TestPageIdentity tests the first page of a flight.
func TestPageIdentity(t *testing.T) {
	r := newTestRenderer()

	t.Run("Airborne airline flight", func(t *testing.T) {
		got := r.Page(speedbird(), 0)
		want := []string{"BAW123", "BRITISH", "ICAO 4CA2BF", "HEAVY", "AIRBORNE"}
		if strings.Join(texts(got), "|") != strings.Join(want, "|") {
			t.Fatalf("Expected %v, got %v", want, texts(got))
		}
		if got[4].Color != matrix.ColorCyan {
			t.Errorf("Expected cyan status, got %v", got[4].Color)
		}
		for i, in := range got {
			if in.X != 1 || in.Y != 7+8*i {
				t.Errorf("Line %d: expected (1,%d), got (%d,%d)", i, 7+8*i, in.X, in.Y)
			}
		}
	})

	t.Run("Grounded private flight", func(t *testing.T) {
		rec := adsb.FlightRecord{ICAO: "400ABC", OriginCountry: "Ireland", OnGround: true, Squawk: "----", Category: intPtr(0)}
		got := r.Page(rec, 0)
		want := []string{"400ABC", "PRIVATE/OTHER", "ICAO 400ABC", "Ireland", "GROUND"}
		if strings.Join(texts(got), "|") != strings.Join(want, "|") {
			t.Fatalf("Expected %v, got %v", want, texts(got))
		}
		if got[4].Color != matrix.ColorRed {
			t.Errorf("Expected red status, got %v", got[4].Color)
		}
	})
}

// TestPageTelemetry tests the second page of a flight.
func TestPageTelemetry(t *testing.T) {
	r := newTestRenderer()

	got := texts(r.Page(speedbird(), 1))
	if len(got) != 5 {
		t.Fatalf("Expected 5 lines, got %d", len(got))
	}
	if got[0] != "ALT 9,843ft" {
		t.Errorf("Expected ALT 9,843ft, got %s", got[0])
	}
	if got[1] != "SPD 389kt" {
		t.Errorf("Expected SPD 389kt, got %s", got[1])
	}
	if got[2] != "DST 12.7km NE" {
		t.Errorf("Expected DST 12.7km NE, got %s", got[2])
	}
	if got[3] != "CLB 984fpm" {
		t.Errorf("Expected CLB 984fpm, got %s", got[3])
	}
	if got[4] != "SQK 7700" {
		t.Errorf("Expected SQK 7700, got %s", got[4])
	}

	if c := r.Page(speedbird(), 1)[4].Color; c != matrix.ColorRed {
		t.Errorf("Expected emergency squawk in red, got %v", c)
	}
}

// TestVerticalRateText tests the climb label thresholds.
func TestVerticalRateText(t *testing.T) {
	tests := []struct {
		mps  float64
		want string
	}{
		{5, "CLB 984fpm"},
		{-5, "DES 984fpm"},
		{0.5, "LVL 98fpm"},
		{-0.5, "LVL 98fpm"},
		{0.52, "CLB 102fpm"},
		{0, "LVL 0fpm"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := VerticalRateText(adsb.FlightRecord{VerticalRateMps: tt.mps})
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// TestCompact tests the single-page layout.
func TestCompact(t *testing.T) {
	r := newTestRenderer()

	got := r.Compact(speedbird())
	if len(got) != 7 {
		t.Fatalf("Expected 7 fields, got %d", len(got))
	}
	for i, in := range got {
		if in.Y != 7+8*i {
			t.Errorf("Field %d: expected y=%d, got %d", i, 7+8*i, in.Y)
		}
	}
	if got[0].Color != matrix.ColorCyan {
		t.Errorf("Expected airborne callsign in cyan, got %v", got[0].Color)
	}
	if got[len(got)-1].Y != 55 {
		t.Errorf("Expected last field at y=55, got %d", got[len(got)-1].Y)
	}

	// Any index other than 0 or 1 is the compact view
	if len(r.Page(speedbird(), 5)) != 7 {
		t.Error("Expected compact view for out-of-range page")
	}
}

// TestUnknownPosition tests rendering without coordinates.
func TestUnknownPosition(t *testing.T) {
	r := newTestRenderer()
	rec := speedbird()
	rec.Position = nil

	if got := r.DistanceText(rec, true); got != "DST --" {
		t.Errorf("Expected DST --, got %s", got)
	}
}

// TestTruncation tests that no line exceeds the display width.
func TestTruncation(t *testing.T) {
	r := newTestRenderer()
	rec := speedbird()
	rec.Category = nil
	rec.OriginCountry = "Democratic Republic of the Congo"
	rec.AltitudeMeters = 1e7

	limit := DefaultLayout().MaxChars()
	for page := 0; page < 3; page++ {
		for _, in := range r.Page(rec, page) {
			if n := len([]rune(in.Text)); n > limit {
				t.Errorf("Page %d: %q has %d chars, max %d", page, in.Text, n, limit)
			}
			if in.Y > 63 || in.X < 0 {
				t.Errorf("Page %d: %q placed off-screen at (%d,%d)", page, in.Text, in.X, in.Y)
			}
		}
	}
}

// TestSummary tests the nearest-flights page.
func TestSummary(t *testing.T) {
	r := newTestRenderer()
	now := time.Date(2026, 6, 1, 12, 0, 30, 0, time.UTC)
	fetched := now.Add(-30 * time.Second)

	var records []adsb.FlightRecord
	for i := 0; i < 9; i++ {
		rec := speedbird()
		rec.Callsign = "EZY10" + string(rune('0'+i))
		records = append(records, rec)
	}
	records[1].OnGround = true
	records[2].Position = nil

	got := r.Summary(records, fetched, now)
	if len(got) != 8 {
		t.Fatalf("Expected header + 6 rows + footer, got %d", len(got))
	}
	if got[0].Text != "NEARBY 9" {
		t.Errorf("Expected NEARBY 9, got %s", got[0].Text)
	}
	if !strings.HasPrefix(got[1].Text, "EZY100") || !strings.HasSuffix(got[1].Text, "13km") {
		t.Errorf("Expected EZY100 ... 13km, got %q", got[1].Text)
	}
	if got[2].Color != matrix.ColorRed {
		t.Errorf("Expected grounded row in red, got %v", got[2].Color)
	}
	if !strings.HasSuffix(got[3].Text, "--") {
		t.Errorf("Expected unknown distance marker, got %q", got[3].Text)
	}
	footer := got[len(got)-1]
	if footer.Text != "UPD 30s" || footer.Y != 63 {
		t.Errorf("Expected UPD 30s at y=63, got %q at y=%d", footer.Text, footer.Y)
	}
}

// TestAge tests compact age formatting.
func TestAge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		since time.Time
		want  string
	}{
		{now.Add(-45 * time.Second), "45s"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
		{now.Add(time.Minute), "0s"},
		{time.Time{}, "0s"},
	}

	for _, tt := range tests {
		if got := Age(tt.since, now); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

// TestPlaceholders tests the empty and error pages.
func TestPlaceholders(t *testing.T) {
	r := newTestRenderer()

	empty := r.NoFlights()
	if len(empty) != 2 || empty[0].Text != "NO FLIGHTS" || empty[1].Text != "IN AREA" {
		t.Errorf("Unexpected placeholder: %v", texts(empty))
	}
	if empty[0].X != 12 {
		t.Errorf("Expected centred x=12, got %d", empty[0].X)
	}

	fail := r.FetchError()
	if len(fail) != 1 || fail[0].Text != "API ERROR" || fail[0].Color != matrix.ColorRed {
		t.Errorf("Unexpected error placeholder: %+v", fail)
	}
}

// TestLabels tests table lookups and overrides.
func TestLabels(t *testing.T) {
	l := DefaultLabels().Merge(map[string]string{"xyz": "TEST AIR"}, map[int]string{6: "JUMBO"}, "GA")

	if got := l.Airline("XYZ42"); got != "TEST AIR" {
		t.Errorf("Expected TEST AIR, got %s", got)
	}
	if got := l.Airline("BAW1"); got != "BRITISH" {
		t.Errorf("Expected BRITISH, got %s", got)
	}
	if got := l.Airline("N1"); got != "GA" {
		t.Errorf("Expected GA default, got %s", got)
	}
	if got := l.CategoryOrOrigin(adsb.FlightRecord{Category: intPtr(6)}); got != "JUMBO" {
		t.Errorf("Expected JUMBO, got %s", got)
	}
	if got := l.CategoryOrOrigin(adsb.FlightRecord{Category: intPtr(99), OriginCountry: "France"}); got != "France" {
		t.Errorf("Expected France fallback, got %s", got)
	}

	// The defaults are untouched by Merge
	if DefaultLabels().Categories[6] != "HEAVY" {
		t.Error("Expected built-in table unchanged")
	}
}

// TestDraw tests applying instructions to a frame.
func TestDraw(t *testing.T) {
	frame := matrix.NewCanvas(64, 64, nil)
	Draw(frame, []Instruction{{X: 1, Y: 7, Color: matrix.ColorWhite, Text: "T"}})

	if frame.At(2, 7) != matrix.ColorWhite {
		t.Error("Expected text drawn at baseline")
	}
}

// TestSweepEndpoint tests the spoke geometry.
func TestSweepEndpoint(t *testing.T) {
	s := DefaultSweep()

	tests := []struct {
		step   int
		x1, y1 int
	}{
		{0, 77, 32},
		{15, -13, 32},
		{30, 77, 32},
	}

	for _, tt := range tests {
		x0, y0, x1, y1 := s.Endpoint(64, 64, tt.step)
		if x0 != 32 || y0 != 32 {
			t.Errorf("Expected centre (32,32), got (%d,%d)", x0, y0)
		}
		if x1 != tt.x1 || y1 != tt.y1 {
			t.Errorf("Step %d: expected (%d,%d), got (%d,%d)", tt.step, tt.x1, tt.y1, x1, y1)
		}
	}

	// Angles advance clockwise on screen, y grows downwards
	if _, _, _, y1 := s.Endpoint(64, 64, 7); y1 <= 32 {
		t.Errorf("Expected step 7 below centre, got y=%d", y1)
	}

	if s.Duration() != 480*time.Millisecond {
		t.Errorf("Expected 480ms, got %v", s.Duration())
	}
}

type recordingSurface struct {
	cols, rows int
	presented  []int
	last       *matrix.Canvas
	failAfter  int
}

func (s *recordingSurface) Size() (int, int)         { return s.cols, s.rows }
func (s *recordingSurface) NewFrame() *matrix.Canvas { return matrix.NewCanvas(s.cols, s.rows, nil) }
func (s *recordingSurface) Clear() error             { return nil }
func (s *recordingSurface) Close() error             { return nil }

func (s *recordingSurface) Present(frame *matrix.Canvas) error {
	if s.failAfter > 0 && len(s.presented) >= s.failAfter {
		return errors.New("panel gone")
	}
	s.presented = append(s.presented, frame.LitPixels())
	s.last = frame
	return nil
}

type countingSleeper struct {
	slept  []time.Duration
	cancel context.CancelFunc
	after  int
}

func (c *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	if c.cancel != nil && len(c.slept) == c.after {
		c.cancel()
	}
	return ctx.Err()
}

// TestSweepPlay tests the animation loop.
func TestSweepPlay(t *testing.T) {
	t.Run("Full sweep", func(t *testing.T) {
		surface := &recordingSurface{cols: 64, rows: 64}
		sleeper := &countingSleeper{}

		if err := DefaultSweep().Play(context.Background(), surface, sleeper); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(surface.presented) != 30 {
			t.Fatalf("Expected 30 frames, got %d", len(surface.presented))
		}
		if len(sleeper.slept) != 30 || sleeper.slept[0] != 16*time.Millisecond {
			t.Errorf("Expected 30 sleeps of 16ms, got %v", sleeper.slept)
		}
		// Spokes accumulate
		for i := 1; i < len(surface.presented); i++ {
			if surface.presented[i] < surface.presented[i-1] {
				t.Fatalf("Frame %d lit fewer pixels than frame %d", i, i-1)
			}
		}
		if surface.last.At(32, 32) != matrix.ColorBlue {
			t.Error("Expected centre lit")
		}
	})

	t.Run("Cancelled mid-sweep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		surface := &recordingSurface{cols: 64, rows: 64}
		sleeper := &countingSleeper{cancel: cancel, after: 3}

		err := DefaultSweep().Play(ctx, surface, sleeper)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if len(surface.presented) != 3 {
			t.Errorf("Expected 3 frames before cancellation, got %d", len(surface.presented))
		}
	})

	t.Run("Present failure", func(t *testing.T) {
		surface := &recordingSurface{cols: 64, rows: 64, failAfter: 2}
		err := DefaultSweep().Play(context.Background(), surface, &countingSleeper{})
		if err == nil {
			t.Error("Expected present error")
		}
	})
}
