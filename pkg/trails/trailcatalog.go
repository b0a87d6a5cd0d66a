package trails

import "context"

// Catalog is the interface for the upstream trail provider.
type Catalog interface {
	// FetchAll returns the full catalogue listing. An error here means the
	// provider is unavailable; there is no partial result.
	FetchAll(ctx context.Context) ([]Record, error)
	// FetchDetail returns the supplement for one trail.
	FetchDetail(ctx context.Context, id string) (Detail, error)
}
