// Package places defines the place-provider data model and search interface.
package places

import "github.com/ramble-labs/trailscout/pkg/geo"

// Candidate is one place returned by a provider search. Rating and
// RatingCount are nil when the provider has no rating for the place; they are
// never synthesized.
type Candidate struct {
	Name        string    `json:"name"`
	Location    geo.Point `json:"location"`
	Categories  []string  `json:"categories,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	RatingCount *int      `json:"rating_count,omitempty"`
}

// Page is one page of search results. NextPageToken is empty on the last
// page.
type Page struct {
	Results       []Candidate `json:"results"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}
