// This demo runs the discovery pipeline end to end against canned providers,
// showing the instant placeholder list and the per-trail updates that follow.

package main

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/ramble-labs/trailscout/pkg/enrich"
	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/placecache"
	"github.com/ramble-labs/trailscout/pkg/places"
	"github.com/ramble-labs/trailscout/pkg/trails"
	"github.com/rs/zerolog"
)

// aucklandCBD is where our demo user is standing.
var aucklandCBD = geo.Point{Lat: -36.8485, Lng: 174.7633}

type demoCatalog struct{}

func (demoCatalog) FetchAll(_ context.Context) ([]trails.Record, error) {
	at := func(lat, lng float64) (float64, float64) {
		return geo.GeographicToProjected(geo.Point{Lat: lat, Lng: lng})
	}
	records := []trails.Record{}
	add := func(id, name string, lat, lng float64, categories ...string) {
		e, n := at(lat, lng)
		records = append(records, trails.Record{
			ID: id, Name: name, Easting: e, Northing: n,
			Categories: categories, Regions: []string{"Auckland"},
		})
	}
	add("trk-1", "Mount Eden Crater Walk", -36.8770, 174.7640, "Walking")
	add("trk-2", "Rangitoto Summit Track", -36.7860, 174.8600, "Walking")
	add("trk-3", "Kitekite Falls Track", -36.9560, 174.4720, "Walking", "Tramping")
	add("trk-4", "Hump Ridge Track", -46.1500, 167.4500, "Tramping") // far out of range
	return records, nil
}

func (demoCatalog) FetchDetail(_ context.Context, id string) (trails.Detail, error) {
	time.Sleep(150 * time.Millisecond) // pretend network latency
	return trails.Detail{
		OfficialLink: "https://example.org/" + id,
		DistanceText: "3.5 km return",
		DurationText: "1 hr 30 min",
	}, nil
}

type demoFinder struct {
	searches atomic.Int32
}

func (f *demoFinder) SearchText(_ context.Context, query string, _ geo.Point, _ float64) ([]places.Candidate, error) {
	f.searches.Add(1)
	time.Sleep(100 * time.Millisecond)
	rating := map[string]float64{
		"mount eden crater track": 4.7,
		"rangitoto summit track":  4.8,
	}[query]
	if rating == 0 {
		return nil, nil // nothing listed for this trail
	}
	count := 180
	return []places.Candidate{{
		Name:        query,
		Location:    aucklandCBD,
		Categories:  []string{"park", "point_of_interest"},
		Rating:      &rating,
		RatingCount: &count,
	}}, nil
}

func (f *demoFinder) SearchNearby(_ context.Context, near geo.Point, _ float64, category, _, _ string) (places.Page, error) {
	f.searches.Add(1)
	return places.Page{Results: []places.Candidate{
		{Name: "Ambury Regional Park Campground", Location: near, Categories: []string{category}},
	}}, nil
}

func main() {
	log.Println("--- Starting Trail Discovery Demo ---")
	ctx := context.Background()
	logger := zerolog.Nop()

	// 1. Assemble the pipeline with an in-memory cache
	cache := placecache.New(placecache.NewInMemoryStore(), 0, 0, logger)
	finder := &demoFinder{}
	enricher := enrich.NewEnricher(demoCatalog{}, finder, cache, enrich.Config{}, logger)

	// 2. Start a discovery batch from central Auckland
	batch, err := enricher.Discover(ctx, enrich.Request{Origin: aucklandCBD})
	if err != nil {
		log.Fatalf("discovery failed: %v", err)
	}

	// 3. The placeholder list is ready immediately
	log.Println("\n--- Placeholders (instant) ---")
	for i, place := range batch.Snapshot() {
		log.Printf("%d. %s - %.1f km [%s]", i+1, place.Trail.Name, place.DistanceKm, place.Icon)
	}

	// 4. Watch the per-trail updates stream in
	log.Println("\n--- Enrichment updates ---")
	for update := range batch.Updates() {
		place := update.Place
		if place.Rating != nil {
			log.Printf("✅ %s rated %.1f (%d ratings)", place.Trail.Name, *place.Rating, *place.RatingCount)
			continue
		}
		log.Printf("✅ %s enriched (no confident rating match)", place.Trail.Name)
	}
	log.Printf("Batch state: %s", batch.State())

	// 5. Browse campgrounds, twice, to show the query cache at work
	log.Println("\n--- Browsing campgrounds ---")
	page, _ := enricher.BrowseNearby(ctx, "campground", "", aucklandCBD, "")
	for _, c := range page.Results {
		log.Printf("- %s", c.Name)
	}
	before := finder.searches.Load()
	_, _ = enricher.BrowseNearby(ctx, "campground", "", aucklandCBD, "")
	if finder.searches.Load() == before {
		log.Println("✅ Repeat browse was served from the cache.")
	}

	log.Println("\n--- Demo complete ---")
}
