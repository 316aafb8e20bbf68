package coordinates

import (
	"math"

	geo "github.com/kellydunn/golang-geo"
)

// Constants for coordinate and unit calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084

	// MpsToKnots converts meters per second to knots
	MpsToKnots = 1.94384

	// MpsToFeetPerMinute converts meters per second to feet per minute
	MpsToFeetPerMinute = 196.85
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64

	// Altitude in meters above mean sea level (MSL)
	Altitude float64
}

// ToRadians converts the Geographic coordinates to radians.
// Returns (latRad, lonRad, altMeters).
func (g Geographic) ToRadians() (float64, float64, float64) {
	return g.Latitude * DegreesToRadians,
		g.Longitude * DegreesToRadians,
		g.Altitude
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	return az
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1, lon1, _ := from.ToRadians()
	lat2, lon2, _ := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeAzimuth(math.Atan2(y, x) * RadiansToDegrees)
}

// DistanceKm calculates the great-circle distance between two points
// using the haversine formula on a sphere of radius EarthRadiusKm.
func DistanceKm(from, to Geographic) float64 {
	a := geo.NewPoint(from.Latitude, from.Longitude)
	b := geo.NewPoint(to.Latitude, to.Longitude)
	return a.GreatCircleDistance(b)
}

// DistanceFromReference returns the distance in km from ref to pos.
// A nil pos (unknown position) yields 0, so such flights rank as closest.
func DistanceFromReference(pos *Geographic, ref Geographic) float64 {
	if pos == nil {
		return 0
	}
	return DistanceKm(ref, *pos)
}

var cardinals = [...]string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}

// CardinalDirection converts an azimuth in degrees to a 16-point compass name.
func CardinalDirection(azimuth float64) string {
	index := int((NormalizeAzimuth(azimuth) + 11.25) / 22.5)
	return cardinals[index%len(cardinals)]
}
