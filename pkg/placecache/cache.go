package placecache

import (
	"context"
	"time"

	"github.com/ramble-labs/trailscout/internal/metrics"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is how long an entry stays valid after capture.
	DefaultTTL = 5 * time.Minute
	// DefaultMovementKm is how far the user may move from the capture
	// location before an entry is invalid.
	DefaultMovementKm = 1.0
)

// Cache serves provider result pages with the two freshness rules applied on
// every read. A violated rule evicts the entry; the caller sees a miss and
// refetches.
type Cache struct {
	store      Store
	ttl        time.Duration
	movementKm float64
	logger     zerolog.Logger
}

// New creates a cache over a store. Non-positive ttl or movementKm fall back
// to the defaults.
func New(store Store, ttl time.Duration, movementKm float64, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if movementKm <= 0 {
		movementKm = DefaultMovementKm
	}
	return &Cache{
		store:      store,
		ttl:        ttl,
		movementKm: movementKm,
		logger:     logger.With().Str("component", "placecache").Logger(),
	}
}

// Get returns the cached page for (category, query) if an entry exists, is
// younger than the TTL, and was captured within the movement threshold of
// at. Store errors degrade to a miss so a flaky backing store can only cost
// extra provider calls.
func (c *Cache) Get(ctx context.Context, category, query string, at geo.Point) (places.Page, bool) {
	key := NewKey(category, query)
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("category", key.Category).Str("query", key.Query).
			Msg("cache read failed, treating as miss")
		metrics.CacheMisses.Inc()
		return places.Page{}, false
	}
	if !ok {
		metrics.CacheMisses.Inc()
		return places.Page{}, false
	}

	if age := time.Since(entry.CapturedAt); age > c.ttl {
		c.evict(ctx, key, "ttl")
		return places.Page{}, false
	}
	if moved := geo.DistanceKm(entry.Location, at); moved > c.movementKm {
		c.evict(ctx, key, "movement")
		return places.Page{}, false
	}

	metrics.CacheHits.Inc()
	return entry.Page, true
}

// Put unconditionally overwrites the entry for (category, query) with a
// fresh capture timestamp.
func (c *Cache) Put(ctx context.Context, category, query string, page places.Page, at geo.Point) {
	key := NewKey(category, query)
	entry := Entry{Page: page, Location: at, CapturedAt: time.Now()}
	if err := c.store.Put(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Str("category", key.Category).Str("query", key.Query).
			Msg("cache write failed")
	}
}

// Clear drops every entry. Wired to the caller's retry action so a retry
// after provider failure starts from a clean slate.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("cache clear failed")
		return
	}
	c.logger.Info().Msg("cache cleared")
}

func (c *Cache) evict(ctx context.Context, key Key, reason string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("query", key.Query).Msg("cache evict failed")
	}
	metrics.CacheEvictions.WithLabelValues(reason).Inc()
	metrics.CacheMisses.Inc()
	c.logger.Debug().Str("category", key.Category).Str("query", key.Query).
		Str("reason", reason).Msg("cache entry evicted")
}
