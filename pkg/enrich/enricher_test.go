package enrich_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/placecache"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/ramble-labs/trailscout/pkg/trails"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	FetchAllFunc    func(ctx context.Context) ([]trails.Record, error)
	FetchDetailFunc func(ctx context.Context, id string) (trails.Detail, error)
}

func (m *mockCatalog) FetchAll(ctx context.Context) ([]trails.Record, error) {
	return m.FetchAllFunc(ctx)
}

func (m *mockCatalog) FetchDetail(ctx context.Context, id string) (trails.Detail, error) {
	return m.FetchDetailFunc(ctx, id)
}

type mockFinder struct {
	SearchTextFunc   func(ctx context.Context, query string, near geo.Point, radiusKm float64) ([]places.Candidate, error)
	SearchNearbyFunc func(ctx context.Context, near geo.Point, radiusKm float64, category, keyword, pageToken string) (places.Page, error)
}

func (m *mockFinder) SearchText(ctx context.Context, query string, near geo.Point, radiusKm float64) ([]places.Candidate, error) {
	return m.SearchTextFunc(ctx, query, near, radiusKm)
}

func (m *mockFinder) SearchNearby(ctx context.Context, near geo.Point, radiusKm float64, category, keyword, pageToken string) (places.Page, error) {
	return m.SearchNearbyFunc(ctx, near, radiusKm, category, keyword, pageToken)
}

var userAt = geo.Point{Lat: -36.8485, Lng: 174.7633}

// recordAt builds a catalogue record whose grid position projects back to
// the given point.
func recordAt(id, name string, at geo.Point, categories ...string) trails.Record {
	easting, northing := geo.GeographicToProjected(at)
	return trails.Record{ID: id, Name: name, Easting: easting, Northing: northing, Categories: categories}
}

// waitSettled drains the batch's update stream until it closes.
func waitSettled(t *testing.T, batch *enrich.Batch) []enrich.Update {
	t.Helper()
	var updates []enrich.Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-batch.Updates():
			if !ok {
				return updates
			}
			updates = append(updates, u)
		case <-timeout:
			t.Fatal("batch did not settle in time")
		}
	}
}

func newCache() *placecache.Cache {
	return placecache.New(placecache.NewInMemoryStore(), 0, 0, zerolog.Nop())
}

func ratingOf(v float64) *float64 { return &v }
func countOf(v int) *int          { return &v }

// TestDiscoverScenario is the full three-trail flow: one trail with detail
// and a confidently matched rated place, one with detail but no confident
// match, one whose detail fetch times out and whose query finds nothing.
func TestDiscoverScenario(t *testing.T) {
	ctx := context.Background()

	tokatokaAt := geo.Point{Lat: userAt.Lat + 0.01, Lng: userAt.Lng} // ~1.1 km
	keplerAt := geo.Point{Lat: userAt.Lat + 0.05, Lng: userAt.Lng}   // ~5.6 km
	roysAt := geo.Point{Lat: userAt.Lat + 0.20, Lng: userAt.Lng}     // ~22 km
	humpAt := geo.Point{Lat: userAt.Lat - 2.0, Lng: userAt.Lng}      // ~222 km, beyond cutoff

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return []trails.Record{
				recordAt("t3", "Roys Peak Track", roysAt, "Alpine route"),
				recordAt("t1", "Tokatoka Track", tokatokaAt, "Walking track"),
				recordAt("t4", "Hump Ridge Track", humpAt, "Tramping track"),
				recordAt("t2", "Kepler Track", keplerAt, "Tramping track"),
			}, nil
		},
		FetchDetailFunc: func(_ context.Context, id string) (trails.Detail, error) {
			switch id {
			case "t1":
				return trails.Detail{OfficialLink: "https://trails.example/tokatoka", DurationText: "1 hr"}, nil
			case "t2":
				return trails.Detail{OfficialLink: "https://trails.example/kepler", DistanceText: "60 km"}, nil
			default:
				return trails.Detail{}, context.DeadlineExceeded
			}
		},
	}

	var queries atomic.Int64
	finder := &mockFinder{
		SearchTextFunc: func(_ context.Context, query string, _ geo.Point, _ float64) ([]places.Candidate, error) {
			queries.Add(1)
			switch query {
			case "tokatoka track":
				return []places.Candidate{{
					Name:        "Tokatoka Scenic Reserve",
					Location:    tokatokaAt,
					Categories:  []string{"park"},
					Rating:      ratingOf(4.6),
					RatingCount: countOf(120),
				}}, nil
			case "kepler track":
				// A weak, unrated, distant lookalike: no confident match.
				return []places.Candidate{{
					Name:     "Kepler Cafe",
					Location: geo.Point{Lat: keplerAt.Lat + 0.27, Lng: keplerAt.Lng},
				}}, nil
			default:
				return nil, nil
			}
		},
	}

	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	// Act
	batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)

	// Assert: the placeholder list is complete and ordered before enrichment.
	placeholders := batch.Snapshot()
	require.Len(t, placeholders, 3, "the out-of-radius trail must be cut")
	assert.Equal(t, "t1", placeholders[0].Trail.ID)
	assert.Equal(t, "t2", placeholders[1].Trail.ID)
	assert.Equal(t, "t3", placeholders[2].Trail.ID)
	assert.InDelta(t, 1.11, placeholders[0].DistanceKm, 0.05)
	assert.InDelta(t, 5.56, placeholders[1].DistanceKm, 0.05)
	assert.InDelta(t, 22.24, placeholders[2].DistanceKm, 0.05)
	assert.Equal(t, enrich.IconWalk, placeholders[0].Icon)
	assert.Equal(t, enrich.IconHike, placeholders[1].Icon)
	assert.Equal(t, enrich.IconAlpine, placeholders[2].Icon)

	updates := waitSettled(t, batch)
	assert.Equal(t, enrich.StateSettled, batch.State())
	assert.Len(t, updates, 3, "every item publishes exactly one replacement")
	for _, u := range updates {
		assert.Equal(t, batch.ID, u.BatchID)
		assert.Equal(t, batch.Generation, u.Generation)
	}

	settled := batch.Snapshot()

	t.Run("Matched trail carries detail and rating", func(t *testing.T) {
		item := settled[0]
		require.NotNil(t, item.Detail)
		assert.Equal(t, "https://trails.example/tokatoka", item.Detail.OfficialLink)
		require.NotNil(t, item.Rating)
		assert.Equal(t, 4.6, *item.Rating)
		require.NotNil(t, item.RatingCount)
		assert.Equal(t, 120, *item.RatingCount)
	})

	t.Run("Unmatched trail keeps its detail and no rating", func(t *testing.T) {
		item := settled[1]
		require.NotNil(t, item.Detail)
		assert.Equal(t, "https://trails.example/kepler", item.Detail.OfficialLink)
		assert.Nil(t, item.Rating, "no confident match must never fabricate a rating")
		assert.Nil(t, item.RatingCount)
	})

	t.Run("Failed item degrades alone", func(t *testing.T) {
		item := settled[2]
		assert.Nil(t, item.Detail)
		assert.Nil(t, item.Rating)
		assert.Nil(t, item.RatingCount)
	})

	t.Run("One query per trail", func(t *testing.T) {
		assert.EqualValues(t, 3, queries.Load())
	})
}

func TestDiscoverListing(t *testing.T) {
	ctx := context.Background()

	nearAt := geo.Point{Lat: userAt.Lat + 0.01, Lng: userAt.Lng}
	midAt := geo.Point{Lat: userAt.Lat + 0.05, Lng: userAt.Lng}
	farAt := geo.Point{Lat: userAt.Lat + 0.20, Lng: userAt.Lng}

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			near := recordAt("near", "Tokatoka Track", nearAt)
			near.Regions = []string{"Northland"}
			mid := recordAt("mid", "Kepler Track", midAt)
			mid.Regions = []string{"Southland"}
			far := recordAt("far", "Roys Peak Track", farAt)
			far.Regions = []string{"Otago"}
			return []trails.Record{near, mid, far}, nil
		},
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			return trails.Detail{}, nil
		},
	}
	finder := &mockFinder{
		SearchTextFunc: func(context.Context, string, geo.Point, float64) ([]places.Candidate, error) {
			return nil, nil
		},
	}

	t.Run("Name filter is a case-insensitive substring", func(t *testing.T) {
		enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())
		batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt, Filter: "KEPLER"})
		require.NoError(t, err)
		waitSettled(t, batch)

		items := batch.Snapshot()
		require.Len(t, items, 1)
		assert.Equal(t, "mid", items[0].Trail.ID)
	})

	t.Run("Filter also searches region tags", func(t *testing.T) {
		enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())
		batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt, Filter: "otago"})
		require.NoError(t, err)
		waitSettled(t, batch)

		items := batch.Snapshot()
		require.Len(t, items, 1)
		assert.Equal(t, "far", items[0].Trail.ID)
	})

	t.Run("List is capped to the nearest MaxResults", func(t *testing.T) {
		enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{MaxResults: 2}, zerolog.Nop())
		batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
		require.NoError(t, err)
		waitSettled(t, batch)

		items := batch.Snapshot()
		require.Len(t, items, 2)
		assert.Equal(t, "near", items[0].Trail.ID)
		assert.Equal(t, "mid", items[1].Trail.ID)
	})

	t.Run("Empty result list settles without error", func(t *testing.T) {
		enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())
		batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt, Filter: "no such trail"})
		require.NoError(t, err)

		updates := waitSettled(t, batch)
		assert.Empty(t, updates)
		assert.Empty(t, batch.Snapshot())
		assert.Equal(t, enrich.StateSettled, batch.State())
	})
}

func TestDiscoverCatalogueFailure(t *testing.T) {
	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return nil, errors.New("503 from upstream")
		},
	}
	finder := &mockFinder{}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	batch, err := enricher.Discover(context.Background(), enrich.Request{Origin: userAt})

	require.Error(t, err)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, enrich.ErrProviderUnavailable)
}

// TestDiscoverProgressive holds the providers open to prove the placeholder
// list is visible while enrichment is still in flight.
func TestDiscoverProgressive(t *testing.T) {
	ctx := context.Background()
	trailAt := geo.Point{Lat: userAt.Lat + 0.01, Lng: userAt.Lng}
	release := make(chan struct{})

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return []trails.Record{recordAt("t1", "Tokatoka Track", trailAt)}, nil
		},
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			<-release
			return trails.Detail{OfficialLink: "https://trails.example/tokatoka"}, nil
		},
	}
	finder := &mockFinder{
		SearchTextFunc: func(context.Context, string, geo.Point, float64) ([]places.Candidate, error) {
			<-release
			return nil, nil
		},
	}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)

	// The batch is observable in placeholder form before anything resolves.
	assert.Equal(t, enrich.StateEnriching, batch.State())
	placeholders := batch.Snapshot()
	require.Len(t, placeholders, 1)
	assert.Nil(t, placeholders[0].Detail)
	assert.Positive(t, placeholders[0].DistanceKm)

	close(release)
	waitSettled(t, batch)

	settled := batch.Snapshot()
	require.NotNil(t, settled[0].Detail)
	assert.Equal(t, "https://trails.example/tokatoka", settled[0].Detail.OfficialLink)
}

// TestDiscoverSupersede starts a second batch while the first is blocked in
// flight; the first batch must settle without merging its late results.
func TestDiscoverSupersede(t *testing.T) {
	ctx := context.Background()
	trailAt := geo.Point{Lat: userAt.Lat + 0.01, Lng: userAt.Lng}
	release := make(chan struct{})

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return []trails.Record{recordAt("t1", "Tokatoka Track", trailAt)}, nil
		},
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			<-release
			return trails.Detail{OfficialLink: "https://trails.example/tokatoka"}, nil
		},
	}
	finder := &mockFinder{
		SearchTextFunc: func(context.Context, string, geo.Point, float64) ([]places.Candidate, error) {
			<-release
			return []places.Candidate{{
				Name:       "Tokatoka Scenic Reserve",
				Location:   trailAt,
				Categories: []string{"park"},
				Rating:     ratingOf(4.6),
			}}, nil
		},
	}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	stale, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)
	current, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)
	assert.Greater(t, current.Generation, stale.Generation)

	close(release)
	staleUpdates := waitSettled(t, stale)
	currentUpdates := waitSettled(t, current)

	// The superseded batch settles but never merges its late results.
	assert.Empty(t, staleUpdates)
	assert.Nil(t, stale.Snapshot()[0].Rating)
	assert.Equal(t, enrich.StateSettled, stale.State())

	require.Len(t, currentUpdates, 1)
	require.NotNil(t, current.Snapshot()[0].Rating)
	assert.Equal(t, 4.6, *current.Snapshot()[0].Rating)
}

// TestDiscoverCacheReuse proves repeat batches are served from the query
// cache instead of re-querying the place provider.
func TestDiscoverCacheReuse(t *testing.T) {
	ctx := context.Background()
	trailAt := geo.Point{Lat: userAt.Lat + 0.01, Lng: userAt.Lng}

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return []trails.Record{recordAt("t1", "Tokatoka Track", trailAt)}, nil
		},
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			return trails.Detail{}, nil
		},
	}

	var searches atomic.Int64
	finder := &mockFinder{
		SearchTextFunc: func(context.Context, string, geo.Point, float64) ([]places.Candidate, error) {
			searches.Add(1)
			return []places.Candidate{{
				Name:     "Tokatoka Scenic Reserve",
				Location: trailAt,
				Rating:   ratingOf(4.6),
			}}, nil
		},
	}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	first, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)
	waitSettled(t, first)
	require.EqualValues(t, 1, searches.Load())

	second, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)
	waitSettled(t, second)

	assert.EqualValues(t, 1, searches.Load(), "repeat query must be served from cache")
	require.NotNil(t, second.Snapshot()[0].Rating, "cached candidates still produce a match")
}

func TestBrowseNearby(t *testing.T) {
	ctx := context.Background()
	moved := geo.Point{Lat: userAt.Lat + 0.02, Lng: userAt.Lng} // ~2.2 km

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) { return nil, nil },
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			return trails.Detail{}, nil
		},
	}

	var calls atomic.Int64
	var failing atomic.Bool
	finder := &mockFinder{
		SearchNearbyFunc: func(_ context.Context, _ geo.Point, _ float64, category, _, pageToken string) (places.Page, error) {
			calls.Add(1)
			if failing.Load() {
				return places.Page{}, errors.New("quota exceeded")
			}
			if pageToken == "page-2" {
				return places.Page{Results: []places.Candidate{{Name: "Second Page Holiday Park"}}}, nil
			}
			return places.Page{
				Results:       []places.Candidate{{Name: "First Page Holiday Park", Categories: []string{category}}},
				NextPageToken: "page-2",
			}, nil
		},
	}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	t.Run("First page is fetched then cached", func(t *testing.T) {
		page, err := enricher.BrowseNearby(ctx, "campsite", "", userAt, "")
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "page-2", page.NextPageToken)
		assert.EqualValues(t, 1, calls.Load())

		again, err := enricher.BrowseNearby(ctx, "campsite", "", userAt, "")
		require.NoError(t, err)
		assert.Equal(t, page, again)
		assert.EqualValues(t, 1, calls.Load(), "second read must hit the cache")
	})

	t.Run("Continuation pages bypass the cache", func(t *testing.T) {
		page, err := enricher.BrowseNearby(ctx, "campsite", "", userAt, "page-2")
		require.NoError(t, err)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "Second Page Holiday Park", page.Results[0].Name)
		assert.EqualValues(t, 2, calls.Load())

		// The cached first page keeps its continuation token.
		first, err := enricher.BrowseNearby(ctx, "campsite", "", userAt, "")
		require.NoError(t, err)
		assert.Equal(t, "page-2", first.NextPageToken)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("Moving beyond the threshold refetches", func(t *testing.T) {
		_, err := enricher.BrowseNearby(ctx, "campsite", "", moved, "")
		require.NoError(t, err)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("Provider failure is a batch-level error", func(t *testing.T) {
		failing.Store(true)
		defer failing.Store(false)

		// A category with no cached entry, so the provider is reached.
		_, err := enricher.BrowseNearby(ctx, "fuel", "", userAt, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, enrich.ErrProviderUnavailable)
	})
}

// TestBrowseIsolatedFromRatingLookups caches a trail's rating query, then
// browses a category and keyword spelled exactly like that query from the
// same point. The browse must reach the provider, not the rating entry.
func TestBrowseIsolatedFromRatingLookups(t *testing.T) {
	ctx := context.Background()
	trailAt := geo.Point{Lat: userAt.Lat + 0.005, Lng: userAt.Lng}

	catalog := &mockCatalog{
		FetchAllFunc: func(context.Context) ([]trails.Record, error) {
			return []trails.Record{recordAt("t1", "Tokatoka Track", trailAt)}, nil
		},
		FetchDetailFunc: func(context.Context, string) (trails.Detail, error) {
			return trails.Detail{}, nil
		},
	}

	var nearbyCalls atomic.Int64
	finder := &mockFinder{
		SearchTextFunc: func(context.Context, string, geo.Point, float64) ([]places.Candidate, error) {
			return []places.Candidate{{
				Name:     "Tokatoka Scenic Reserve",
				Location: trailAt,
				Rating:   ratingOf(4.6),
			}}, nil
		},
		SearchNearbyFunc: func(context.Context, geo.Point, float64, string, string, string) (places.Page, error) {
			nearbyCalls.Add(1)
			return places.Page{Results: []places.Candidate{{Name: "Tokatoka Holiday Park"}}}, nil
		},
	}
	enricher := enrich.NewEnricher(catalog, finder, newCache(), enrich.Config{}, zerolog.Nop())

	batch, err := enricher.Discover(ctx, enrich.Request{Origin: userAt})
	require.NoError(t, err)
	waitSettled(t, batch)
	require.NotNil(t, batch.Snapshot()[0].Rating, "the rating query must be cached by now")

	page, err := enricher.BrowseNearby(ctx, "trail", "tokatoka track", trailAt, "")

	require.NoError(t, err)
	assert.EqualValues(t, 1, nearbyCalls.Load(), "browse must not be served from the rating-lookup namespace")
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Tokatoka Holiday Park", page.Results[0].Name)
}
