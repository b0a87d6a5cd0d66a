package places

import (
	"context"

	"github.com/ramble-labs/trailscout/pkg/geo"
)

// Finder is the interface for the place-search provider.
type Finder interface {
	// SearchText runs a free-text search biased around a point.
	SearchText(ctx context.Context, query string, near geo.Point, radiusKm float64) ([]Candidate, error)
	// SearchNearby lists places of a category around a point. Pass the
	// previous page's token to continue a listing; empty starts a new one.
	SearchNearby(ctx context.Context, near geo.Point, radiusKm float64, category, keyword, pageToken string) (Page, error)
}
