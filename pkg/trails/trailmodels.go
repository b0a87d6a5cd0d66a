// Package trails defines the trail catalogue's data model and the provider
// interface the discovery pipeline consumes it through.
package trails

// Record is an immutable snapshot of one catalogue entry. Positions are
// easting/northing metres in the catalogue's projected grid.
type Record struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Easting    float64  `json:"easting"`
	Northing   float64  `json:"northing"`
	Categories []string `json:"categories,omitempty"` // e.g. "Walking track", "Tramping track"
	Regions    []string `json:"regions,omitempty"`
}

// Detail is the per-trail supplement fetched lazily during enrichment.
// Zero-valued fields mean the catalogue has nothing for that trail.
type Detail struct {
	OfficialLink string `json:"official_link,omitempty"`
	DistanceText string `json:"distance_text,omitempty"`
	DurationText string `json:"duration_text,omitempty"`
}
