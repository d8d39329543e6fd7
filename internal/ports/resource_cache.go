package ports

import (
	"context"

	"github.com/aalvaropc/tether/internal/domain"
)

// ResourceCache holds recently seen resources. A new cache is stale.
type ResourceCache interface {
	// Get returns a fresh entry for id.
	Get(ctx context.Context, id string) (domain.Resource, bool, error)
	// Snapshot returns the cached listing when one was stored as complete
	// and is still fresh.
	Snapshot(ctx context.Context) ([]domain.Resource, bool, error)
	// Store caches items. complete marks them as the full listing.
	Store(ctx context.Context, items []domain.Resource, complete bool) error
	Invalidate(ctx context.Context) error
}
