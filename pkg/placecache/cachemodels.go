// Package placecache caches place-provider result pages keyed by category
// and normalized search text. Entries go stale two ways: by age and by the
// user moving away from where the entry was captured. Both checks run
// synchronously on every read, so a stale entry is never served.
package placecache

import (
	"strings"
	"time"

	"github.com/ramble-labs/trailscout/pkg/geo"
	"github.com/ramble-labs/trailscout/pkg/places"
)

// Key identifies one cached query. Query text is stored trimmed and
// lower-cased so equivalent queries share an entry.
type Key struct {
	Category string `json:"category"`
	Query    string `json:"query"`
}

// NewKey builds a canonical cache key.
func NewKey(category, query string) Key {
	return Key{
		Category: strings.ToLower(strings.TrimSpace(category)),
		Query:    strings.ToLower(strings.TrimSpace(query)),
	}
}

// Entry is one cached result page together with where and when it was
// captured.
type Entry struct {
	Page       places.Page `json:"page"`
	Location   geo.Point   `json:"location"`
	CapturedAt time.Time   `json:"captured_at"`
}
