package adsb

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestNormalizeState tests conversion of raw OpenSky vectors.
func TestNormalizeState(t *testing.T) {
	t.Run("Full record", func(t *testing.T) {
		raw := RawState{"abc123", "BAW123 ", "United Kingdom", nil, nil, -0.05, 51.50, 3000, false, 200, nil, 5, nil, nil, nil}

		rec, err := NormalizeState(raw)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if rec.ICAO != "ABC123" {
			t.Errorf("Expected ICAO ABC123, got %s", rec.ICAO)
		}
		if rec.Callsign != "BAW123" {
			t.Errorf("Expected callsign BAW123, got %q", rec.Callsign)
		}
		if rec.Position == nil {
			t.Fatal("Expected position, got nil")
		}
		if rec.Position.Latitude != 51.50 || rec.Position.Longitude != -0.05 {
			t.Errorf("Expected position (51.50, -0.05), got (%f, %f)", rec.Position.Latitude, rec.Position.Longitude)
		}
		if got := rec.AltitudeFeet(); got != 9843 {
			t.Errorf("Expected 9843 ft, got %d", got)
		}
		if got := rec.SpeedKnots(); got != 389 {
			t.Errorf("Expected 389 kt, got %d", got)
		}
		if got := rec.VerticalRateFPM(); got != 984 {
			t.Errorf("Expected 984 fpm, got %d", got)
		}
		if rec.Squawk != "----" {
			t.Errorf("Expected squawk ----, got %s", rec.Squawk)
		}
		if rec.OnGround {
			t.Error("Expected airborne")
		}
		if rec.Category != nil {
			t.Errorf("Expected no category, got %d", *rec.Category)
		}
	})

	t.Run("Missing optional fields use defaults", func(t *testing.T) {
		raw := RawState{nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil}

		rec, err := NormalizeState(raw)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if rec.ICAO != UnknownICAO {
			t.Errorf("Expected ICAO %s, got %s", UnknownICAO, rec.ICAO)
		}
		if rec.Callsign != "" {
			t.Errorf("Expected empty callsign, got %q", rec.Callsign)
		}
		if rec.Position != nil {
			t.Error("Expected unknown position")
		}
		if rec.AltitudeMeters != 0 || rec.GroundSpeedMps != 0 || rec.VerticalRateMps != 0 {
			t.Error("Expected zero numeric defaults")
		}
		if rec.DisplayName() != UnknownICAO {
			t.Errorf("Expected display name %s, got %s", UnknownICAO, rec.DisplayName())
		}
	})

	t.Run("Wrong types fall back to defaults", func(t *testing.T) {
		raw := RawState{42, 7, true, nil, nil, "west", 51.5, "high", "yes", "fast", nil, false, nil, nil, 7700}

		rec, err := NormalizeState(raw)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if rec.ICAO != UnknownICAO {
			t.Errorf("Expected ICAO %s, got %s", UnknownICAO, rec.ICAO)
		}
		if rec.Position != nil {
			t.Error("Expected unknown position when longitude is not numeric")
		}
		if rec.AltitudeMeters != 0 {
			t.Errorf("Expected altitude 0, got %f", rec.AltitudeMeters)
		}
		if rec.Squawk != UnknownSquawk {
			t.Errorf("Expected squawk %s, got %s", UnknownSquawk, rec.Squawk)
		}
	})

	t.Run("Only one coordinate means unknown position", func(t *testing.T) {
		raw := RawState{"abc", "X", "", nil, nil, -0.1, nil, 100, false, 0, nil, 0, nil, nil, "1234"}

		rec, err := NormalizeState(raw)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if rec.Position != nil {
			t.Error("Expected unknown position")
		}
	})

	t.Run("Long callsign is capped", func(t *testing.T) {
		raw := RawState{"abc", " EZY12345  ", "", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil}

		rec, _ := NormalizeState(raw)
		if rec.Callsign != "EZY1234" {
			t.Errorf("Expected EZY1234, got %q", rec.Callsign)
		}
	})

	t.Run("Extended category and json.Number", func(t *testing.T) {
		raw := RawState{"abc", "X", "", nil, nil, json.Number("0.5"), json.Number("51.25"), nil, nil, nil, nil, nil, nil, nil, "7000", false, 0, 3.0}

		rec, err := NormalizeState(raw)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if rec.Position == nil || rec.Position.Latitude != 51.25 {
			t.Errorf("Expected latitude 51.25, got %+v", rec.Position)
		}
		if rec.Category == nil || *rec.Category != 3 {
			t.Errorf("Expected category 3, got %v", rec.Category)
		}
	})

	t.Run("Short vector is malformed", func(t *testing.T) {
		raw := RawState{"abc", "X", "", nil, nil, nil}

		_, err := NormalizeState(raw)
		if !errors.Is(err, ErrMalformedState) {
			t.Errorf("Expected ErrMalformedState, got %v", err)
		}
	})
}

// TestNormalizeStates tests batch conversion.
func TestNormalizeStates(t *testing.T) {
	raws := []RawState{
		{"aaa111", "ONE", "", nil, nil, 0.0, 51.0, 1000.0, false, 100.0, nil, 0.0, nil, nil, "1000"},
		{"short"},
		{"bbb222", "TWO", "", nil, nil, 0.0, 51.0, 1000.0, false, 100.0, nil, 0.0, nil, nil, "2000"},
		nil,
	}

	records, dropped := NormalizeStates(raws)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", dropped)
	}
	if records[0].ICAO != "AAA111" || records[1].ICAO != "BBB222" {
		t.Errorf("Expected input order preserved, got %s, %s", records[0].ICAO, records[1].ICAO)
	}
}

// TestUnitConversions tests rounding of display values.
func TestUnitConversions(t *testing.T) {
	tests := []struct {
		name    string
		rec     FlightRecord
		wantFt  int
		wantKt  int
		wantFPM int
	}{
		{"Zero", FlightRecord{}, 0, 0, 0},
		{"Cruise", FlightRecord{AltitudeMeters: 11000, GroundSpeedMps: 250, VerticalRateMps: 0}, 36089, 486, 0},
		{"Descending", FlightRecord{AltitudeMeters: 500, GroundSpeedMps: 70, VerticalRateMps: -4}, 1640, 136, -787},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.AltitudeFeet(); got != tt.wantFt {
				t.Errorf("Expected %d ft, got %d", tt.wantFt, got)
			}
			if got := tt.rec.SpeedKnots(); got != tt.wantKt {
				t.Errorf("Expected %d kt, got %d", tt.wantKt, got)
			}
			if got := tt.rec.VerticalRateFPM(); got != tt.wantFPM {
				t.Errorf("Expected %d fpm, got %d", tt.wantFPM, got)
			}
		})
	}
}
