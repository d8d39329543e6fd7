package ports

import "context"

// Entity is anything a Repository can key.
type Entity interface {
	EntityID() string
}

// Repository stores entities by ID. Save is an upsert. Every returned value
// is a copy; mutating it never changes stored state.
type Repository[T Entity] interface {
	Save(ctx context.Context, item T) (T, error)
	FindByID(ctx context.Context, id string) (T, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindAll(ctx context.Context) ([]T, error)
	Count(ctx context.Context) (int, error)
}
