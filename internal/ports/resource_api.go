package ports

import (
	"context"

	"github.com/aalvaropc/tether/internal/domain"
)

// ResourceAPI is the remote resources service. Implementations report
// failures as *domain.OpError so callers can branch on the kind.
type ResourceAPI interface {
	CreateResource(ctx context.Context, r domain.Resource) (domain.Resource, error)
	GetResource(ctx context.Context, id string) (domain.Resource, error)
	UpdateResource(ctx context.Context, id string, r domain.Resource) (domain.Resource, error)
	DeleteResource(ctx context.Context, id string) (bool, error)
	// ListResources passes limit and filter to the server; zero values are omitted.
	ListResources(ctx context.Context, limit int, filter string) ([]domain.Resource, error)
}
