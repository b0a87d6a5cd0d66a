// Package app provides the central orchestrator for the trailscout service.
package app

import (
	"context"
	"fmt"

	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/placecache"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/rs/zerolog"
)

// App is the central application struct. It holds the enrichment pipeline,
// the shared query cache, and everything else the transport layer needs.
type App struct {
	Enricher *enrich.Enricher
	Cache    *placecache.Cache
	Logger   zerolog.Logger
}

// New creates a new, fully initialized App.
func New(enricher *enrich.Enricher, cache *placecache.Cache, logger zerolog.Logger) *App {
	return &App{
		Enricher: enricher,
		Cache:    cache,
		Logger:   logger,
	}
}

// DiscoverTrails starts a discovery batch and returns it live. Callers that
// want progressive results consume batch.Updates(); the batch settles on its
// own once every item has been enriched.
func (a *App) DiscoverTrails(ctx context.Context, req enrich.Request) (*enrich.Batch, error) {
	batch, err := a.Enricher.Discover(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start discovery: %w", err)
	}
	return batch, nil
}

// DiscoverTrailsSettled runs a discovery batch to completion and returns the
// settled list. It is the synchronous convenience used by the JSON API;
// cancellation of ctx returns whatever state the batch had reached.
func (a *App) DiscoverTrailsSettled(ctx context.Context, req enrich.Request) ([]enrich.Place, error) {
	logger := a.Logger.With().
		Float64("lat", req.Origin.Lat).
		Float64("lng", req.Origin.Lng).
		Logger()
	logger.Info().Msg("Beginning trail discovery workflow")

	batch, err := a.Enricher.Discover(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to start discovery: %w", err)
	}

	// Drain the update stream until the batch settles or the caller leaves.
	updates := batch.Updates()
	for {
		select {
		case <-ctx.Done():
			logger.Warn().Msg("Discovery caller left before the batch settled")
			return batch.Snapshot(), nil
		case _, open := <-updates:
			if !open {
				logger.Info().Int("count", len(batch.Snapshot())).Msg("Discovery batch settled")
				return batch.Snapshot(), nil
			}
		}
	}
}

// BrowseCategory lists nearby places of one category, serving repeat queries
// from the cache.
func (a *App) BrowseCategory(ctx context.Context, category, keyword string, origin geo.Point, pageToken string) (places.Page, error) {
	page, err := a.Enricher.BrowseNearby(ctx, category, keyword, origin, pageToken)
	if err != nil {
		return places.Page{}, fmt.Errorf("failed to browse category %q: %w", category, err)
	}
	return page, nil
}

// RetryAfterFailure resets the query cache so the next discovery reaches the
// providers again instead of replaying a cached failure window.
func (a *App) RetryAfterFailure(ctx context.Context) {
	a.Cache.Clear(ctx)
	a.Logger.Info().Msg("Cleared query cache for retry")
}
