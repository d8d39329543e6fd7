package ports

import (
	"context"

	"github.com/aalvaropc/tether/internal/domain"
)

// ResourceProcessor normalizes or checks a resource before it is sent.
type ResourceProcessor interface {
	Process(ctx context.Context, r *domain.Resource) error
}

// ProcessorFunc adapts a function to ResourceProcessor.
type ProcessorFunc func(ctx context.Context, r *domain.Resource) error

func (f ProcessorFunc) Process(ctx context.Context, r *domain.Resource) error { return f(ctx, r) }
