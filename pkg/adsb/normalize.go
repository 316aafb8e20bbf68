package adsb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/unklstewy/flightmatrix/pkg/coordinates"
)

// RawState is one positional state vector as returned by the OpenSky
// /states/all endpoint. Index meanings are fixed by the OpenSky API.
type RawState []any

// State vector indices. Only the fields the display uses are named.
const (
	idxICAO24        = 0
	idxCallsign      = 1
	idxOriginCountry = 2
	idxLongitude     = 5
	idxLatitude      = 6
	idxBaroAltitude  = 7
	idxOnGround      = 8
	idxVelocity      = 9
	idxVerticalRate  = 11
	idxSquawk        = 14
	idxCategory      = 17

	// minStateFields is the shortest vector that still carries the squawk
	minStateFields = idxSquawk + 1
)

const (
	// MaxCallsignLength caps callsigns so they fit the page layout
	MaxCallsignLength = 7

	// UnknownICAO replaces a missing transponder address
	UnknownICAO = "N/A"

	// UnknownSquawk replaces a missing transponder code
	UnknownSquawk = "----"
)

// ErrMalformedState is returned for vectors too short to be parsed.
var ErrMalformedState = errors.New("malformed state vector")

// NormalizeState converts a raw state vector into a FlightRecord.
// Missing or wrongly typed optional fields fall back to defaults; only a
// structurally short vector is rejected.
func NormalizeState(raw RawState) (FlightRecord, error) {
	if len(raw) < minStateFields {
		return FlightRecord{}, fmt.Errorf("%w: %d fields, need at least %d",
			ErrMalformedState, len(raw), minStateFields)
	}

	rec := FlightRecord{
		ICAO:            strings.ToUpper(strings.TrimSpace(stringField(raw[idxICAO24]))),
		Callsign:        truncate(strings.TrimSpace(stringField(raw[idxCallsign])), MaxCallsignLength),
		OriginCountry:   strings.TrimSpace(stringField(raw[idxOriginCountry])),
		AltitudeMeters:  floatField(raw[idxBaroAltitude]),
		GroundSpeedMps:  floatField(raw[idxVelocity]),
		VerticalRateMps: floatField(raw[idxVerticalRate]),
		Squawk:          strings.TrimSpace(stringField(raw[idxSquawk])),
	}
	if rec.ICAO == "" {
		rec.ICAO = UnknownICAO
	}
	if rec.Squawk == "" {
		rec.Squawk = UnknownSquawk
	}
	if onGround, ok := raw[idxOnGround].(bool); ok {
		rec.OnGround = onGround
	}

	lat, latOK := numberValue(raw[idxLatitude])
	lon, lonOK := numberValue(raw[idxLongitude])
	if latOK && lonOK {
		rec.Position = &coordinates.Geographic{
			Latitude:  lat,
			Longitude: lon,
			Altitude:  rec.AltitudeMeters,
		}
	}

	// The category is only present when the request asked for extended data
	if len(raw) > idxCategory {
		if c, ok := numberValue(raw[idxCategory]); ok {
			category := int(c)
			rec.Category = &category
		}
	}

	return rec, nil
}

// NormalizeStates converts a batch, skipping malformed vectors.
// dropped counts the skipped entries.
func NormalizeStates(raws []RawState) (records []FlightRecord, dropped int) {
	records = make([]FlightRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := NormalizeState(raw)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func stringField(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func floatField(v any) float64 {
	f, _ := numberValue(v)
	return f
}

// numberValue accepts the numeric forms a decoded JSON array can hold.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
