package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aalvaropc/tether/internal/domain"
)

// --- fakes shared by the service tests ---

type fakeAPI struct {
	mu        sync.Mutex
	resources map[string]domain.Resource
	order     []string

	gets    atomic.Int32
	lists   atomic.Int32
	lastQ   [2]any
	release chan struct{} // when set, GetResource blocks until closed or ctx is done
	err     error
}

func newFakeAPI(items ...domain.Resource) *fakeAPI {
	f := &fakeAPI{resources: map[string]domain.Resource{}}
	for _, r := range items {
		f.resources[r.ID] = r
		f.order = append(f.order, r.ID)
	}
	return f
}

func (f *fakeAPI) CreateResource(_ context.Context, r domain.Resource) (domain.Resource, error) {
	if f.err != nil {
		return domain.Resource{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[r.ID] = r
	f.order = append(f.order, r.ID)
	return r, nil
}

func (f *fakeAPI) GetResource(ctx context.Context, id string) (domain.Resource, error) {
	f.gets.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return domain.Resource{}, &domain.OpError{Op: "api.get", Kind: domain.KindExternalService, Path: id, Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return domain.Resource{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	if !ok {
		return domain.Resource{}, &domain.OpError{Op: "api.get", Kind: domain.KindNotFound, Path: id, Err: domain.ErrNotFound}
	}
	return r, nil
}

func (f *fakeAPI) UpdateResource(_ context.Context, id string, r domain.Resource) (domain.Resource, error) {
	if f.err != nil {
		return domain.Resource{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[id] = r
	return r, nil
}

func (f *fakeAPI) DeleteResource(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.resources[id]
	delete(f.resources, id)
	return ok, nil
}

func (f *fakeAPI) ListResources(_ context.Context, limit int, filter string) ([]domain.Resource, error) {
	f.lists.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = [2]any{limit, filter}

	var out []domain.Resource
	for _, id := range f.order {
		r, ok := f.resources[id]
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return filterAndLimit(out, limit, filter), nil
}

func doc(id, name string) domain.Resource {
	return domain.NewResource(id, domain.NewResourceData(name, domain.ResourceDocument).WithData("content", "body of "+name))
}
