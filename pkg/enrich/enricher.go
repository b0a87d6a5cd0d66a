package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ramble-labs/trailscout/internal/metrics"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/match"
	"github.com/ramble-labs/trailscout/pkg/names"
	"github.com/ramble-labs/trailscout/pkg/placecache"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/ramble-labs/trailscout/pkg/trails"
	"github.com/rs/zerolog"
)

// trailQueryCategory is the cache category for trail rating lookups. The
// colon keeps it apart from caller-supplied browse categories, which are
// plain slugs.
const trailQueryCategory = "trail:ratings"

// Enricher runs discovery batches against the trail catalogue and place
// search providers. One Enricher serves one logical caller; each Discover
// supersedes the previous batch.
type Enricher struct {
	catalog    trails.Catalog
	finder     places.Finder
	cache      *placecache.Cache
	cfg        Config
	logger     zerolog.Logger
	generation atomic.Uint64
}

// NewEnricher creates an enricher. Zero Config fields fall back to the
// defaults.
func NewEnricher(catalog trails.Catalog, finder places.Finder, cache *placecache.Cache, cfg Config, logger zerolog.Logger) *Enricher {
	defaults := DefaultConfig()
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = defaults.RadiusKm
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaults.MaxResults
	}
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = defaults.SearchRadiusKm
	}
	if cfg.RatingTimeout <= 0 {
		cfg.RatingTimeout = defaults.RatingTimeout
	}
	if cfg.Concurrency < 0 {
		cfg.Concurrency = 0
	}
	if cfg.Match == (match.Config{}) {
		cfg.Match = defaults.Match
	}
	return &Enricher{
		catalog: catalog,
		finder:  finder,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.With().Str("component", "enricher").Logger(),
	}
}

// Batch is one discovery run. The placeholder list is complete when Discover
// returns; Updates delivers each element's in-place replacement as its
// enrichment resolves, then closes when the batch settles.
type Batch struct {
	ID         uuid.UUID
	Generation uint64

	mu      sync.RWMutex
	items   []Place
	state   atomic.Int32
	updates chan Update
}

// State reports the batch's lifecycle stage.
func (b *Batch) State() State { return State(b.state.Load()) }

func (b *Batch) setState(s State) { b.state.Store(int32(s)) }

// Updates returns the batch's element-replacement stream. The channel is
// buffered for the whole batch and closed once the batch settles, so readers
// may lag or abandon it freely.
func (b *Batch) Updates() <-chan Update { return b.updates }

// Snapshot returns a copy of the batch's current visible list.
func (b *Batch) Snapshot() []Place {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Place, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Batch) itemAt(idx int) Place {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.items[idx]
}

// applyEnrichment merges whichever fields resolved into one element and
// publishes the replacement. Other elements are untouched.
func (b *Batch) applyEnrichment(idx int, detail *trails.Detail, result match.Result) {
	b.mu.Lock()
	item := &b.items[idx]
	if detail != nil {
		item.Detail = detail
	}
	if result.Matched {
		item.Rating = result.Rating
		item.RatingCount = result.RatingCount
	}
	updated := *item
	b.mu.Unlock()

	b.updates <- Update{BatchID: b.ID, Generation: b.Generation, Index: idx, Place: updated}
}

// Discover starts a new batch, superseding any previous one. It returns once
// the placeholder list is final (placing and listing done), with per-item
// enrichment continuing in the background. A catalogue listing failure is a
// batch-level error; anything later degrades per item.
func (e *Enricher) Discover(ctx context.Context, req Request) (*Batch, error) {
	gen := e.generation.Add(1)
	batch := &Batch{ID: uuid.New(), Generation: gen}
	log := e.logger.With().Str("batch_id", batch.ID.String()).Uint64("generation", gen).Logger()
	metrics.BatchesStarted.Inc()

	batch.setState(StatePlacing)
	records, err := e.catalog.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: trail catalogue: %v", ErrProviderUnavailable, err)
	}

	placed := make([]Place, 0, len(records))
	for _, rec := range records {
		location := geo.ProjectedToGeographic(rec.Easting, rec.Northing)
		distance := geo.DistanceKm(req.Origin, location)
		if distance > e.cfg.RadiusKm {
			continue
		}
		placed = append(placed, Place{
			Trail:      rec,
			Location:   location,
			DistanceKm: distance,
			Icon:       classifyIcon(rec.Categories),
		})
	}

	batch.setState(StateListing)
	listed := filterByText(placed, req.Filter)
	sort.Slice(listed, func(i, j int) bool { return listed[i].DistanceKm < listed[j].DistanceKm })
	if len(listed) > e.cfg.MaxResults {
		listed = listed[:e.cfg.MaxResults]
	}

	batch.items = listed
	batch.updates = make(chan Update, len(listed))
	metrics.BatchItems.Observe(float64(len(listed)))
	log.Info().Int("catalogue", len(records)).Int("placed", len(placed)).Int("listed", len(listed)).
		Msg("batch placed and listed")

	batch.setState(StateEnriching)
	go e.enrichAll(ctx, batch, log)
	return batch, nil
}

// filterByText keeps places whose trail name or region tags contain the
// filter, case-insensitively. An empty filter keeps everything.
func filterByText(items []Place, filter string) []Place {
	needle := strings.ToLower(strings.TrimSpace(filter))
	if needle == "" {
		return items
	}
	kept := make([]Place, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Trail.Name), needle) {
			kept = append(kept, item)
			continue
		}
		for _, region := range item.Trail.Regions {
			if strings.Contains(strings.ToLower(region), needle) {
				kept = append(kept, item)
				break
			}
		}
	}
	return kept
}

// enrichAll fans the batch's items out over a bounded worker pool and
// settles the batch once every item has resolved one way or the other.
func (e *Enricher) enrichAll(ctx context.Context, batch *Batch, log zerolog.Logger) {
	defer func() {
		batch.setState(StateSettled)
		close(batch.updates)
		metrics.BatchesSettled.Inc()
		log.Info().Msg("batch settled")
	}()

	total := len(batch.Snapshot())
	if total == 0 {
		return
	}

	workers := e.cfg.Concurrency
	if workers <= 0 || workers > total {
		workers = total
	}

	jobs := make(chan int, total)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if e.generation.Load() != batch.Generation {
					continue // superseded, skip remaining network work
				}
				e.enrichOne(ctx, batch, idx, log)
			}
		}()
	}
	for idx := 0; idx < total; idx++ {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
}

// enrichOne resolves one item's detail and rating concurrently, then merges
// whatever arrived. Failures leave fields unset and never touch siblings.
func (e *Enricher) enrichOne(ctx context.Context, batch *Batch, idx int, log zerolog.Logger) {
	item := batch.itemAt(idx)

	var (
		wg     sync.WaitGroup
		detail *trails.Detail
		result match.Result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		d, err := e.catalog.FetchDetail(ctx, item.Trail.ID)
		if err != nil {
			log.Debug().Err(err).Str("trail_id", item.Trail.ID).Msg("detail fetch failed")
			return
		}
		detail = &d
	}()
	go func() {
		defer wg.Done()
		result = e.lookupRating(ctx, item, log)
	}()
	wg.Wait()

	if e.generation.Load() != batch.Generation {
		log.Debug().Int("index", idx).Msg("discarding enrichment for superseded batch")
		return
	}
	batch.applyEnrichment(idx, detail, result)
}

// lookupRating runs the cached, time-boxed places search for one trail and
// selects a match. A miss, failure or timeout is a no-match, never an error.
func (e *Enricher) lookupRating(ctx context.Context, item Place, log zerolog.Logger) match.Result {
	query := names.NormalizeForSearch(item.Trail.Name)
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RatingTimeout)
	defer cancel()

	page, hit := e.cache.Get(rctx, trailQueryCategory, query, item.Location)
	candidates := page.Results
	if !hit {
		found, err := e.finder.SearchText(rctx, query, item.Location, e.cfg.SearchRadiusKm)
		if err != nil {
			log.Debug().Err(err).Str("trail", item.Trail.Name).Msg("rating lookup failed")
			return match.Result{}
		}
		candidates = found
		e.cache.Put(ctx, trailQueryCategory, query, places.Page{Results: found}, item.Location)
	}

	result := e.cfg.Match.Select(candidates, item.Trail.Name, item.Location)
	if !result.Matched {
		metrics.MatchRejected.Inc()
		return result
	}
	track := "overall"
	if result.Rating != nil {
		track = "rated"
	}
	metrics.MatchAccepted.WithLabelValues(track).Inc()
	log.Debug().Str("trail", item.Trail.Name).Str("place", result.Name).
		Float64("score", result.Score).Str("track", track).Msg("match accepted")
	return result
}
