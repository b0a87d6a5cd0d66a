package geo

import "github.com/golang/geo/s2"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371

// DistanceKm calculates the great-circle distance between two points in
// kilometers. The distance is symmetric and zero for identical points.
func DistanceKm(a, b Point) float64 {
	lla := s2.LatLngFromDegrees(a.Lat, a.Lng)
	llb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return float64(lla.Distance(llb)) * EarthRadiusKm
}
