package placecache

import "context"

// Store is the raw key/value layer beneath the cache. Implementations only
// move entries; freshness decisions belong to Cache.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, entry Entry) error
	Delete(ctx context.Context, key Key) error
	Clear(ctx context.Context) error
}
