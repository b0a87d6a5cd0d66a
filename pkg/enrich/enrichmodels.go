// Package enrich orchestrates discovery batches: it places catalogue trails
// around the user, bounds and sorts them, then concurrently fills in per-trail
// detail and crowd-sourced ratings without ever blocking the visible list.
package enrich

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/match"
	"github.com/ramble-labs/trailscout/pkg/trails"
)

// ErrProviderUnavailable marks a batch-level provider failure: the trail
// listing or a browse search failed outright. Callers surface a retry that
// also clears the query cache.
var ErrProviderUnavailable = errors.New("provider unavailable")

// State is the lifecycle stage of one enrichment batch.
type State int32

const (
	StateIdle State = iota
	StatePlacing
	StateListing
	StateEnriching
	StateSettled
)

func (s State) String() string {
	switch s {
	case StatePlacing:
		return "placing"
	case StateListing:
		return "listing"
	case StateEnriching:
		return "enriching"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Icon is the display classification assigned to a trail from its catalogue
// category tags.
type Icon string

const (
	IconWalk   Icon = "walk"
	IconHike   Icon = "hike"
	IconAlpine Icon = "alpine"
)

// classifyIcon picks the strongest icon the category tags support.
func classifyIcon(categories []string) Icon {
	icon := IconWalk
	for _, c := range categories {
		tag := strings.ToLower(c)
		if strings.Contains(tag, "alpine") || strings.Contains(tag, "expert") {
			return IconAlpine
		}
		if strings.Contains(tag, "tramping") || strings.Contains(tag, "route") {
			icon = IconHike
		}
	}
	return icon
}

// Place is one element of a batch's visible list: a trail with geographic
// placement, plus detail and rating fields that arrive asynchronously.
// A Place starts as a placeholder with geometry and base metadata only.
type Place struct {
	Trail       trails.Record  `json:"trail"`
	Location    geo.Point      `json:"location"`
	DistanceKm  float64        `json:"distance_km"`
	Icon        Icon           `json:"icon"`
	Detail      *trails.Detail `json:"detail,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	RatingCount *int           `json:"rating_count,omitempty"`
}

// Update announces the in-place replacement of one batch element. Consumers
// must drop updates whose Generation is not the latest batch's.
type Update struct {
	BatchID    uuid.UUID `json:"batch_id"`
	Generation uint64    `json:"generation"`
	Index      int       `json:"index"`
	Place      Place     `json:"place"`
}

// Request describes one discovery batch.
type Request struct {
	// Origin is the user's current location.
	Origin geo.Point
	// Filter is an optional case-insensitive substring applied to trail
	// names and region tags.
	Filter string
}

// Config bounds a batch's size and network cost.
type Config struct {
	// RadiusKm discards trails farther than this from the origin.
	RadiusKm float64
	// MaxResults caps the list before the per-item fan-out.
	MaxResults int
	// SearchRadiusKm is handed to place-provider searches.
	SearchRadiusKm float64
	// RatingTimeout bounds each item's rating lookup; on expiry the item
	// proceeds without a rating.
	RatingTimeout time.Duration
	// Concurrency caps in-flight item enrichments. Zero means one worker
	// per item.
	Concurrency int
	// Match holds the scorer weights and selector thresholds.
	Match match.Config
}

// DefaultConfig returns the production batch limits.
func DefaultConfig() Config {
	return Config{
		RadiusKm:       50,
		MaxResults:     20,
		SearchRadiusKm: 10,
		RatingTimeout:  2 * time.Second,
		Concurrency:    4,
		Match:          match.DefaultConfig(),
	}
}
