// Package geo provides the geodetic primitives shared by the discovery
// pipeline: WGS84 points, great-circle distance, and conversion between the
// trail catalogue's projected grid (NZTM2000) and geographic coordinates.
package geo

// Point is a WGS84 geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
