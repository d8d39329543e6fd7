package tui

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aalvaropc/tether/internal/domain"
)

// ResourceSource is what the browser reads from. *usecase.ResourceService
// satisfies it.
type ResourceSource interface {
	List(ctx context.Context, limit int, filter string) ([]domain.Resource, error)
	Get(ctx context.Context, id string) (domain.Resource, error)
}

type Deps struct {
	Resources ResourceSource
	Limit     int
	Filter    string

	// GlamourStyle is a glamour standard style name. Empty picks one from
	// the terminal background.
	GlamourStyle string

	Logger zerolog.Logger
	Debug  bool
}
