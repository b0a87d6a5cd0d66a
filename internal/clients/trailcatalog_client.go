// Package clients provides HTTP clients for the upstream trail catalogue and
// place search providers.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ramble-labs/trailscout/internal/metrics"
	"github.com/ramble-labs/trailscout/pkg/trails"
	"github.com/rs/zerolog"
)

const providerTrailCatalog = "trail-catalog"

// TrailCatalogClient is responsible for all communication with the trail
// catalogue API. It implements trails.Catalog.
type TrailCatalogClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTrailCatalogClient creates a new client for the trail catalogue.
func NewTrailCatalogClient(baseURL, apiKey string, logger zerolog.Logger) *TrailCatalogClient {
	return &TrailCatalogClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("client", "trail-catalog").Logger(),
	}
}

// trackDTO mirrors one catalogue listing. X and Y are easting/northing
// metres in the catalogue's projected grid.
type trackDTO struct {
	AssetID    string   `json:"assetId"`
	Name       string   `json:"name"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Categories []string `json:"categories"`
	Regions    []string `json:"region"`
}

// trackDetailDTO mirrors the per-track detail document.
type trackDetailDTO struct {
	WebPage      string `json:"webPage"`
	Distance     string `json:"distance"`
	WalkDuration string `json:"walkDuration"`
}

// FetchAll retrieves the full catalogue listing.
func (c *TrailCatalogClient) FetchAll(ctx context.Context) ([]trails.Record, error) {
	url := fmt.Sprintf("%s/tracks", c.baseURL)

	var listing []trackDTO
	if err := c.getJSON(ctx, url, &listing); err != nil {
		metrics.ProviderFailures.WithLabelValues(providerTrailCatalog).Inc()
		return nil, fmt.Errorf("failed to fetch track listing: %w", err)
	}

	records := make([]trails.Record, 0, len(listing))
	for _, track := range listing {
		records = append(records, trails.Record{
			ID:         track.AssetID,
			Name:       track.Name,
			Easting:    track.X,
			Northing:   track.Y,
			Categories: track.Categories,
			Regions:    track.Regions,
		})
	}
	c.logger.Info().Int("count", len(records)).Msg("Fetched track listing")
	return records, nil
}

// FetchDetail retrieves the supplement for one track.
func (c *TrailCatalogClient) FetchDetail(ctx context.Context, id string) (trails.Detail, error) {
	url := fmt.Sprintf("%s/tracks/%s/detail", c.baseURL, id)

	var dto trackDetailDTO
	if err := c.getJSON(ctx, url, &dto); err != nil {
		metrics.ProviderFailures.WithLabelValues(providerTrailCatalog).Inc()
		return trails.Detail{}, fmt.Errorf("failed to fetch detail for track %s: %w", id, err)
	}

	return trails.Detail{
		OfficialLink: dto.WebPage,
		DistanceText: dto.Distance,
		DurationText: dto.WalkDuration,
	}, nil
}

func (c *TrailCatalogClient) getJSON(ctx context.Context, url string, out any) error {
	metrics.ProviderRequests.WithLabelValues(providerTrailCatalog).Inc()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalogue request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	metrics.ProviderDurationMs.WithLabelValues(providerTrailCatalog).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to execute catalogue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalogue returned unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalogue response: %w", err)
	}
	return nil
}
