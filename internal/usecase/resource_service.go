package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/metrics"
	"github.com/aalvaropc/tether/internal/ports"
)

const maxResourceNameLen = 100

// ResourceService fronts the remote API with validation, processing and a cache.
type ResourceService struct {
	api        ports.ResourceAPI
	cache      ports.ResourceCache
	processors *ProcessorRegistry
	repo       ports.Repository[domain.Resource]
	log        zerolog.Logger

	gets  singleflight.Group
	calls map[string]*metrics.OperationCounter
}

type ResourceOption func(*ResourceService)

// WithProcessors runs reg on resources before Create and Update.
func WithProcessors(reg *ProcessorRegistry) ResourceOption {
	return func(s *ResourceService) { s.processors = reg }
}

// WithRepository mirrors successful results into a local repository.
func WithRepository(repo ports.Repository[domain.Resource]) ResourceOption {
	return func(s *ResourceService) { s.repo = repo }
}

func WithResourceLogger(l zerolog.Logger) ResourceOption {
	return func(s *ResourceService) { s.log = l }
}

func NewResourceService(api ports.ResourceAPI, cache ports.ResourceCache, opts ...ResourceOption) *ResourceService {
	s := &ResourceService{
		api:   api,
		cache: cache,
		log:   zerolog.Nop(),
		calls: map[string]*metrics.OperationCounter{},
	}
	for _, op := range []string{"create", "get", "update", "delete", "list"} {
		s.calls[op] = metrics.NewOperationCounter("resource_" + op)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ResourceService) observe(op string, err *error) { s.calls[op].Observe(*err) }

// Counters exposes per-operation counters keyed by create, get, update, delete, list.
func (s *ResourceService) Counters() map[string]*metrics.OperationCounter { return s.calls }

func (s *ResourceService) Create(ctx context.Context, r domain.Resource) (out domain.Resource, err error) {
	defer s.observe("create", &err)

	if err := ValidateResourceData(r.Data); err != nil {
		return domain.Resource{}, err
	}
	if err := s.process(ctx, &r); err != nil {
		return domain.Resource{}, err
	}

	out, err = s.api.CreateResource(ctx, r)
	if err != nil {
		return domain.Resource{}, mapAPIError("resource.create", r.ID, err)
	}
	s.invalidate(ctx)
	s.mirror(ctx, out)
	return out, nil
}

// Get serves fresh cache hits and collapses concurrent misses for one id
// into a single API call.
func (s *ResourceService) Get(ctx context.Context, id string) (out domain.Resource, err error) {
	defer s.observe("get", &err)

	if r, ok, cerr := s.cache.Get(ctx, id); cerr != nil {
		s.log.Warn().Err(cerr).Str("id", id).Msg("cache.get_failed")
	} else if ok {
		return r, nil
	}

	// The shared fetch outlives any single caller; each caller waits on its
	// own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.gets.DoChan(id, func() (any, error) {
		return s.api.GetResource(fetchCtx, id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Resource{}, &domain.OpError{Op: "resource.get", Kind: domain.KindExternalService, Path: id, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return domain.Resource{}, mapAPIError("resource.get", id, res.Err)
	}
	if res.Shared {
		s.log.Debug().Str("id", id).Msg("resource.get_shared")
	}

	// Shared results must not alias between callers.
	out = res.Val.(domain.Resource).Clone()
	if cerr := s.cache.Store(ctx, []domain.Resource{out}, false); cerr != nil {
		s.log.Warn().Err(cerr).Str("id", id).Msg("cache.store_failed")
	}
	s.mirror(ctx, out)
	return out, nil
}

func (s *ResourceService) Update(ctx context.Context, id string, r domain.Resource) (out domain.Resource, err error) {
	defer s.observe("update", &err)

	if err := ValidateResourceData(r.Data); err != nil {
		return domain.Resource{}, err
	}
	if r.ID != id {
		return domain.Resource{}, domain.NewError("resource.update", domain.KindValidation, "Resource ID mismatch")
	}
	if err := s.process(ctx, &r); err != nil {
		return domain.Resource{}, err
	}

	out, err = s.api.UpdateResource(ctx, id, r)
	if err != nil {
		return domain.Resource{}, mapAPIError("resource.update", id, err)
	}
	s.invalidate(ctx)
	s.mirror(ctx, out)
	return out, nil
}

func (s *ResourceService) Delete(ctx context.Context, id string) (deleted bool, err error) {
	defer s.observe("delete", &err)

	deleted, err = s.api.DeleteResource(ctx, id)
	if err != nil {
		return false, mapAPIError("resource.delete", id, err)
	}
	s.invalidate(ctx)
	if s.repo != nil && deleted {
		if _, rerr := s.repo.Delete(ctx, id); rerr != nil {
			s.log.Warn().Err(rerr).Str("id", id).Msg("repository.delete_failed")
		}
	}
	return deleted, nil
}

// List filters a fresh cached listing by name substring, then applies limit.
// Without one it asks the API and refills the cache. Only an unfiltered,
// untruncated reply is cached as the complete listing.
func (s *ResourceService) List(ctx context.Context, limit int, filter string) (out []domain.Resource, err error) {
	defer s.observe("list", &err)

	cached, ok, cerr := s.cache.Snapshot(ctx)
	if cerr != nil {
		s.log.Warn().Err(cerr).Msg("cache.snapshot_failed")
	}
	if ok {
		return filterAndLimit(cached, limit, filter), nil
	}

	out, err = s.api.ListResources(ctx, limit, filter)
	if err != nil {
		return nil, mapAPIError("resource.list", "", err)
	}

	complete := filter == "" && (limit <= 0 || len(out) < limit)
	if cerr := s.cache.Store(ctx, out, complete); cerr != nil {
		s.log.Warn().Err(cerr).Msg("cache.store_failed")
	}
	return out, nil
}

func filterAndLimit(in []domain.Resource, limit int, filter string) []domain.Resource {
	out := make([]domain.Resource, 0, len(in))
	for _, r := range in {
		if filter != "" && !strings.Contains(r.Data.Name, filter) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *ResourceService) process(ctx context.Context, r *domain.Resource) error {
	if s.processors == nil {
		return nil
	}
	return s.processors.Process(ctx, r)
}

func (s *ResourceService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cache.invalidate_failed")
	}
}

func (s *ResourceService) mirror(ctx context.Context, r domain.Resource) {
	if s.repo == nil || r.ID == "" {
		return
	}
	if _, err := s.repo.Save(ctx, r); err != nil {
		s.log.Warn().Err(err).Str("id", r.ID).Msg("repository.save_failed")
	}
}

// ValidateResourceData checks the rules every resource must meet before it
// is sent to the API.
func ValidateResourceData(d domain.ResourceData) error {
	const op = "resource.validate"
	if d.Name == "" {
		return domain.NewError(op, domain.KindValidation, "Resource name cannot be empty")
	}
	if utf8.RuneCountInString(d.Name) > maxResourceNameLen {
		return domain.NewError(op, domain.KindValidation, fmt.Sprintf("Resource name too long (max %d characters)", maxResourceNameLen))
	}

	switch d.Type {
	case domain.ResourceDocument:
		if _, ok := d.Data["content"]; !ok {
			return domain.NewError(op, domain.KindValidation, "Document must have content")
		}
	case domain.ResourceUser:
		if _, ok := d.Data["email"]; !ok {
			return domain.NewError(op, domain.KindValidation, "User must have an email")
		}
	}
	return nil
}

// mapAPIError keeps the kind reported by the API adapter and rewrites the
// message of not-found errors. Unclassified errors become external_service.
func mapAPIError(op, id string, err error) error {
	var oe *domain.OpError
	if !errors.As(err, &oe) {
		return &domain.OpError{Op: op, Kind: domain.KindExternalService, Path: id, Err: err}
	}

	switch oe.Kind {
	case domain.KindNotFound:
		return &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: id, Err: fmt.Errorf("Resource not found: %s: %w", id, err)}
	case domain.KindPermissionDenied, domain.KindProcessing:
		return &domain.OpError{Op: op, Kind: oe.Kind, Path: id, Err: err}
	default:
		return &domain.OpError{Op: op, Kind: domain.KindExternalService, Path: id, Err: err}
	}
}
