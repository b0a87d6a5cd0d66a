package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ramble-labs/trailscout/internal/metrics"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/rs/zerolog"
)

const providerPlaceSearch = "place-search"

// retryDelay spaces the single retry taken after a throttled or failed
// search attempt. A little jitter is added so concurrent lookups do not
// retry in lockstep.
const (
	retryDelay  = 200 * time.Millisecond
	retryJitter = 100 * time.Millisecond
)

// errRetryable marks provider responses worth one more attempt.
var errRetryable = errors.New("retryable provider response")

// PlaceSearchClient is responsible for all communication with the place
// search API. It implements places.Finder.
type PlaceSearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewPlaceSearchClient creates a new client for the place search provider.
func NewPlaceSearchClient(baseURL, apiKey string, logger zerolog.Logger) *PlaceSearchClient {
	return &PlaceSearchClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("client", "place-search").Logger(),
	}
}

// candidateDTO mirrors one place in a search response. Rating fields are
// pointers so an absent rating stays absent.
type candidateDTO struct {
	Name             string   `json:"name"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
}

type searchResponseDTO struct {
	Results       []candidateDTO `json:"results"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

// SearchText runs a free-text search biased around a point.
func (c *PlaceSearchClient) SearchText(ctx context.Context, query string, near geo.Point, radiusKm float64) ([]places.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("lat", formatCoord(near.Lat))
	params.Set("lng", formatCoord(near.Lng))
	params.Set("radius_km", formatCoord(radiusKm))
	requestURL := fmt.Sprintf("%s/search/text?%s", c.baseURL, params.Encode())

	var dto searchResponseDTO
	if err := c.getJSON(ctx, requestURL, &dto); err != nil {
		metrics.ProviderFailures.WithLabelValues(providerPlaceSearch).Inc()
		return nil, fmt.Errorf("failed to run text search: %w", err)
	}
	return toCandidates(dto.Results), nil
}

// SearchNearby lists places of a category around a point.
func (c *PlaceSearchClient) SearchNearby(ctx context.Context, near geo.Point, radiusKm float64, category, keyword, pageToken string) (places.Page, error) {
	params := url.Values{}
	params.Set("lat", formatCoord(near.Lat))
	params.Set("lng", formatCoord(near.Lng))
	params.Set("radius_km", formatCoord(radiusKm))
	params.Set("category", category)
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}
	requestURL := fmt.Sprintf("%s/search/nearby?%s", c.baseURL, params.Encode())

	var dto searchResponseDTO
	if err := c.getJSON(ctx, requestURL, &dto); err != nil {
		metrics.ProviderFailures.WithLabelValues(providerPlaceSearch).Inc()
		return places.Page{}, fmt.Errorf("failed to run nearby search: %w", err)
	}
	return places.Page{
		Results:       toCandidates(dto.Results),
		NextPageToken: dto.NextPageToken,
	}, nil
}

// getJSON performs the request, retrying once when the provider throttles or
// fails server-side.
func (c *PlaceSearchClient) getJSON(ctx context.Context, requestURL string, out any) error {
	err := c.doOnce(ctx, requestURL, out)
	if err == nil || !errors.Is(err, errRetryable) {
		return err
	}

	c.logger.Debug().Str("url", requestURL).Msg("Retrying search after retryable response")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryDelay + time.Duration(rand.Int63n(int64(retryJitter)))):
	}
	return c.doOnce(ctx, requestURL, out)
}

func (c *PlaceSearchClient) doOnce(ctx context.Context, requestURL string, out any) error {
	metrics.ProviderRequests.WithLabelValues(providerPlaceSearch).Inc()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	metrics.ProviderDurationMs.WithLabelValues(providerPlaceSearch).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("place search returned unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode search response: %w", err)
	}
	return nil
}

func toCandidates(dtos []candidateDTO) []places.Candidate {
	out := make([]places.Candidate, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, places.Candidate{
			Name:        d.Name,
			Location:    geo.Point{Lat: d.Lat, Lng: d.Lng},
			Categories:  d.Types,
			Rating:      d.Rating,
			RatingCount: d.UserRatingsTotal,
		})
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
