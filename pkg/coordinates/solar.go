package coordinates

import (
	"math"
	"time"
)

// horizonAltitude is the solar altitude at sunrise/sunset, allowing for the
// sun's radius and typical refraction.
const horizonAltitude = -0.833

// SunAltitude returns the sun's altitude in degrees above the horizon at loc.
// Based on the NOAA solar calculator low-precision series (about 1 arcminute).
func SunAltitude(loc Geographic, t time.Time) float64 {
	jd := julianDate(t.UTC())
	jc := (jd - 2451545.0) / 36525.0

	// Geometric mean longitude and mean anomaly (degrees)
	meanLong := math.Mod(280.46646+jc*(36000.76983+jc*0.0003032), 360.0)
	meanAnom := (357.52911 + jc*(35999.05029-0.0001537*jc)) * DegreesToRadians

	center := math.Sin(meanAnom)*(1.914602-jc*(0.004817+0.000014*jc)) +
		math.Sin(2*meanAnom)*(0.019993-0.000101*jc) +
		math.Sin(3*meanAnom)*0.000289

	omega := (125.04 - 1934.136*jc) * DegreesToRadians
	apparentLong := (meanLong + center - 0.00569 - 0.00478*math.Sin(omega)) * DegreesToRadians

	obliquity := 23.0 + (26.0+(21.448-jc*(46.815+jc*(0.00059-jc*0.001813)))/60.0)/60.0
	obliquity = (obliquity + 0.00256*math.Cos(omega)) * DegreesToRadians

	ra := math.Atan2(math.Cos(obliquity)*math.Sin(apparentLong), math.Cos(apparentLong))
	dec := math.Asin(math.Sin(obliquity) * math.Sin(apparentLong))

	gmst := 280.46061837 + 360.98564736629*(jd-2451545.0) + 0.000387933*jc*jc - jc*jc*jc/38710000.0
	hourAngle := (gmst+loc.Longitude)*DegreesToRadians - ra

	lat := loc.Latitude * DegreesToRadians
	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(hourAngle)
	return math.Asin(sinAlt) * RadiansToDegrees
}

// IsSunAboveHorizon reports whether it is daytime at loc.
func IsSunAboveHorizon(loc Geographic, t time.Time) bool {
	return SunAltitude(loc, t) > horizonAltitude
}

// julianDate calculates the Julian Date from a UTC time.
func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/float64(24*time.Hour) + 2440587.5
}
