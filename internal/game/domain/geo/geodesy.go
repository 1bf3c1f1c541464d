package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// kmPerDegreeLat is the approximate surface distance of one degree of
// latitude. Longitude shrinks with cos(lat); latitude does not.
const kmPerDegreeLat = 111.0

// minCosLat keeps longitude degree/km conversions finite near the poles,
// where cos(lat) approaches zero.
const minCosLat = 1e-6

// DistanceMeters returns the haversine great-circle distance between two
// points in meters. Points follow the orb convention: (lon, lat).
// The result is never negative and is zero for identical points up to
// floating precision.
func DistanceMeters(a, b orb.Point) float64 {
	lat1 := toRadians(a.Lat())
	lat2 := toRadians(b.Lat())
	dLat := toRadians(b.Lat() - a.Lat())
	dLng := toRadians(b.Lon() - a.Lon())

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// Guard against floating error pushing h a hair outside [0,1].
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DegreesPerKmLat returns the latitude delta corresponding to one kilometer.
// It is constant everywhere on the sphere.
func DegreesPerKmLat() float64 {
	return 1.0 / kmPerDegreeLat
}

// DegreesPerKmLng returns the longitude delta corresponding to one kilometer
// at the given latitude. cos(lat) is clamped away from zero so the result
// stays finite near the poles.
func DegreesPerKmLng(lat float64) float64 {
	cos := math.Cos(toRadians(lat))
	if cos < minCosLat {
		cos = minCosLat
	}
	return 1.0 / (kmPerDegreeLat * cos)
}

// PathDistanceMeters sums the haversine distance over consecutive points.
// Paths with fewer than two points have zero length.
func PathDistanceMeters(points []orb.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
