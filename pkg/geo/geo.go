// Package geo provides great-circle distance and bearing between coordinates.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by the haversine formula.
const EarthRadiusMeters = 6371e3

// Distance returns the haversine distance in meters between two points given
// as degrees of latitude and longitude.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := toRadians(lat1)
	p2 := toRadians(lat2)
	dp := p2 - p1
	dl := toRadians(lng2 - lng1)

	a := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Bearing returns the initial great-circle bearing from the first point to the
// second, in degrees clockwise from north, normalized to [0, 360).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := toRadians(lat1)
	p2 := toRadians(lat2)
	dl := toRadians(lng2 - lng1)

	y := math.Sin(dl) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)

	return wrap360(toDegrees(math.Atan2(y, x)))
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

func wrap360(deg float64) float64 {
	return math.Mod(deg+360, 360)
}
