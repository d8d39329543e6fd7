package apiclient

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/aalvaropc/tether/internal/domain"
)

// Resources adapts Client to ports.ResourceAPI. Errors come back as
// *domain.OpError with the original client error wrapped.
type Resources struct {
	c *Client
}

func NewResources(c *Client) *Resources {
	return &Resources{c: c}
}

func (a *Resources) CreateResource(ctx context.Context, r domain.Resource) (domain.Resource, error) {
	var out domain.Resource
	if err := a.c.Post(ctx, "resources", r, &out); err != nil {
		return domain.Resource{}, toDomainError("api.create", r.ID, err)
	}
	return out, nil
}

func (a *Resources) GetResource(ctx context.Context, id string) (domain.Resource, error) {
	var out domain.Resource
	if err := a.c.Get(ctx, "resources/"+url.PathEscape(id), &out); err != nil {
		return domain.Resource{}, toDomainError("api.get", id, err)
	}
	return out, nil
}

func (a *Resources) UpdateResource(ctx context.Context, id string, r domain.Resource) (domain.Resource, error) {
	var out domain.Resource
	if _, err := a.c.Execute(ctx, PUT("resources/"+url.PathEscape(id)).WithBody(r), &out); err != nil {
		return domain.Resource{}, toDomainError("api.update", id, err)
	}
	return out, nil
}

func (a *Resources) DeleteResource(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if _, err := a.c.Execute(ctx, DELETE("resources/"+url.PathEscape(id)), &deleted); err != nil {
		return false, toDomainError("api.delete", id, err)
	}
	return deleted, nil
}

func (a *Resources) ListResources(ctx context.Context, limit int, filter string) ([]domain.Resource, error) {
	req := GET("resources")
	if limit > 0 {
		req = req.WithQueryParam("limit", strconv.Itoa(limit))
	}
	if filter != "" {
		req = req.WithQueryParam("filter", filter)
	}

	var out []domain.Resource
	if _, err := a.c.Execute(ctx, req, &out); err != nil {
		return nil, toDomainError("api.list", "", err)
	}
	return out, nil
}

func toDomainError(op, id string, err error) error {
	kind := domain.KindExternalService
	switch {
	case errors.Is(err, ErrResourceNotFound):
		kind = domain.KindNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		kind = domain.KindPermissionDenied
	case errors.Is(err, ErrResponseParse):
		kind = domain.KindProcessing
	}
	return &domain.OpError{Op: op, Kind: kind, Path: id, Err: err}
}
