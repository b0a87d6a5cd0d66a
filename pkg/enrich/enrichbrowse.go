package enrich

import (
	"context"
	"fmt"

	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/places"
)

// BrowseNearby lists places of a category around the user: the trail flow
// minus the matching step, behind the same cache and invalidation rules.
// First pages are cached under (category, keyword); continuation fetches
// always go to the provider so the cached first page keeps its token.
func (e *Enricher) BrowseNearby(ctx context.Context, category, keyword string, origin geo.Point, pageToken string) (places.Page, error) {
	if pageToken == "" {
		if page, ok := e.cache.Get(ctx, category, keyword, origin); ok {
			return page, nil
		}
	}

	page, err := e.finder.SearchNearby(ctx, origin, e.cfg.SearchRadiusKm, category, keyword, pageToken)
	if err != nil {
		return places.Page{}, fmt.Errorf("%w: place search: %v", ErrProviderUnavailable, err)
	}

	if pageToken == "" {
		e.cache.Put(ctx, category, keyword, page, origin)
	}
	return page, nil
}
