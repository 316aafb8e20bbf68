package adsb

import (
	"context"
	"math"

	"github.com/unklstewy/flightmatrix/pkg/coordinates"
)

// FlightRecord is a normalized aircraft state vector.
// Records are immutable once produced by NormalizeState.
type FlightRecord struct {
	// ICAO is the 24-bit transponder address in uppercase hex (e.g., "4CA2BF").
	// Never empty; "N/A" when the upstream entry carried none.
	ICAO string

	// Callsign is the trimmed flight number, at most MaxCallsignLength characters
	Callsign string

	// OriginCountry is the country inferred from the transponder address
	OriginCountry string

	// Position is nil when latitude or longitude was not reported.
	// Altitude is the barometric altitude in meters.
	Position *coordinates.Geographic

	// AltitudeMeters is the barometric altitude (0 when unknown)
	AltitudeMeters float64

	// GroundSpeedMps is the velocity over ground in m/s (0 when unknown)
	GroundSpeedMps float64

	// VerticalRateMps is positive when climbing (0 when unknown)
	VerticalRateMps float64

	// Squawk is the transponder code, "----" when not reported
	Squawk string

	OnGround bool

	// Category is the emitter category id, nil when not reported
	Category *int
}

// AltitudeFeet returns the altitude in feet rounded to the nearest foot.
func (r FlightRecord) AltitudeFeet() int {
	return int(math.Round(r.AltitudeMeters * coordinates.MetersToFeet))
}

// SpeedKnots returns the ground speed in knots rounded to the nearest knot.
func (r FlightRecord) SpeedKnots() int {
	return int(math.Round(r.GroundSpeedMps * coordinates.MpsToKnots))
}

// VerticalRateFPM returns the signed vertical rate in feet per minute.
func (r FlightRecord) VerticalRateFPM() int {
	return int(math.Round(r.VerticalRateMps * coordinates.MpsToFeetPerMinute))
}

// DisplayName returns the callsign, or the ICAO address when no callsign is known.
func (r FlightRecord) DisplayName() string {
	if r.Callsign != "" {
		return r.Callsign
	}
	return r.ICAO
}

// BoundingBox is the rectangular query region in decimal degrees.
type BoundingBox struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Contains reports whether a position lies inside the box (edges inclusive).
func (b BoundingBox) Contains(pos coordinates.Geographic) bool {
	return pos.Latitude >= b.MinLatitude && pos.Latitude <= b.MaxLatitude &&
		pos.Longitude >= b.MinLongitude && pos.Longitude <= b.MaxLongitude
}

// DataSource is the interface that flight state providers must implement.
// Implementations must bound every call with a timeout and report all
// failures as errors; the display treats any error as "no data this cycle".
type DataSource interface {
	// FetchStates returns the raw state vectors inside box.
	FetchStates(ctx context.Context, box BoundingBox) ([]RawState, error)

	// Close cleanly shuts down the data source connection.
	Close() error
}
