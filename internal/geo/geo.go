// Package geo provides great-circle distance math and coordinate rounding
// used for radius filtering and venue identity hashing.
package geo

import "math"

const (
	// EarthRadiusMiles is the mean radius of the Earth in miles.
	EarthRadiusMiles = 3958.8

	// EarthRadiusKm is the mean radius of the Earth in kilometers.
	EarthRadiusKm = 6371.0

	// CoordPrecision is the number of decimal degrees kept when rounding
	// coordinates for identity hashing. Five decimals is roughly 1.1m of
	// precision, coarse enough to absorb geocoding jitter on repeated
	// lookups of the same place.
	CoordPrecision = 5
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the great-circle (haversine) distance in miles between two points.
func Distance(a, b Point) float64 {
	return haversine(a, b) * EarthRadiusMiles
}

// DistanceKm returns the great-circle distance in kilometers between two points.
func DistanceKm(a, b Point) float64 {
	return haversine(a, b) * EarthRadiusKm
}

// haversine returns the central angle between two points in radians.
func haversine(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Round rounds a coordinate to CoordPrecision decimal degrees.
func Round(coord float64) float64 {
	shift := math.Pow(10, CoordPrecision)
	return math.Round(coord*shift) / shift
}
