package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/cache"
	"github.com/aalvaropc/tether/internal/infra/memstore"
)

func TestValidateResourceData(t *testing.T) {
	cases := []struct {
		name string
		data domain.ResourceData
		msg  string
	}{
		{"empty name", domain.NewResourceData("", domain.ResourceProject), "Resource name cannot be empty"},
		{"long name", domain.NewResourceData(strings.Repeat("x", 101), domain.ResourceProject), "Resource name too long"},
		{"document without content", domain.NewResourceData("d", domain.ResourceDocument), "Document must have content"},
		{"user without email", domain.NewResourceData("u", domain.ResourceUser), "User must have an email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResourceData(tc.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	assert.NoError(t, ValidateResourceData(domain.NewResourceData(strings.Repeat("x", 100), domain.ResourceMedia)))
}

func TestCreateInvalidatesCacheAndMirrors(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(doc("a", "alpha"))
	c := cache.NewMemory(time.Minute)
	repo := memstore.New[domain.Resource]()
	svc := NewResourceService(api, c, WithRepository(repo))

	_, err := svc.List(ctx, 0, "")
	require.NoError(t, err)
	_, fresh, _ := c.Snapshot(ctx)
	require.True(t, fresh)

	_, err = svc.Create(ctx, doc("b", "beta"))
	require.NoError(t, err)

	_, fresh, _ = c.Snapshot(ctx)
	assert.False(t, fresh, "create invalidates the cache")

	_, ok, err := repo.FindByID(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := svc.List(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int32(2), api.lists.Load())
}

func TestCreateRunsProcessors(t *testing.T) {
	api := newFakeAPI()
	svc := NewResourceService(api, cache.None{}, WithProcessors(DefaultProcessors(zerologNop())))

	r := domain.NewResource("d", domain.NewResourceData("doc", domain.ResourceDocument).WithData("content", "  padded  "))
	out, err := svc.Create(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "padded", out.Data.Data["content"])
	assert.NotEmpty(t, out.Data.Data["last_modified"])
}

func TestCreateValidationSkipsAPI(t *testing.T) {
	api := newFakeAPI()
	svc := NewResourceService(api, cache.None{})

	_, err := svc.Create(context.Background(), domain.NewResource("x", domain.NewResourceData("", domain.ResourceMedia)))
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Empty(t, api.resources)
	assert.Equal(t, int64(1), svc.Counters()["create"].ErrorCount())
}

func TestGetServesFreshCache(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(doc("a", "alpha"))
	svc := NewResourceService(api, cache.NewMemory(time.Minute))

	_, err := svc.List(ctx, 0, "")
	require.NoError(t, err)

	got, err := svc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Data.Name)
	assert.Equal(t, int32(0), api.gets.Load())
}

func TestGetNotFoundMessage(t *testing.T) {
	svc := NewResourceService(newFakeAPI(), cache.NewMemory(time.Minute))

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Contains(t, err.Error(), "Resource not found: ghost")
}

func TestGetCollapsesConcurrentMisses(t *testing.T) {
	api := newFakeAPI(doc("a", "alpha"))
	api.release = make(chan struct{})
	svc := NewResourceService(api, cache.None{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]domain.Resource, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Get(context.Background(), "a")
		}(i)
	}

	require.Eventually(t, func() bool { return api.gets.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "alpha", results[i].Data.Name)
	}
	assert.Less(t, api.gets.Load(), int32(n))

	results[0].Data.Data["content"] = "mutated"
	assert.NotEqual(t, "mutated", results[1].Data.Data["content"])
}

func TestGetCancelledCallerDoesNotFailOthers(t *testing.T) {
	api := newFakeAPI(doc("d1", "delta"))
	api.release = make(chan struct{})
	svc := NewResourceService(api, cache.None{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Get(firstCtx, "d1")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return api.gets.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		r   domain.Resource
		err error
	}
	second := make(chan result, 1)
	go func() {
		r, err := svc.Get(context.Background(), "d1")
		second <- result{r, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(api.release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, "delta", got.r.Data.Name)
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, int32(1), api.gets.Load(), "the shared fetch kept running after the first caller left")
}

func TestUpdateIDMismatch(t *testing.T) {
	svc := NewResourceService(newFakeAPI(), cache.None{})

	_, err := svc.Update(context.Background(), "a", doc("b", "beta"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Contains(t, err.Error(), "Resource ID mismatch")
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(doc("a", "alpha"))
	repo := memstore.New[domain.Resource]()
	svc := NewResourceService(api, cache.NewMemory(time.Minute), WithRepository(repo))

	r := doc("a", "alpha-2")
	out, err := svc.Update(ctx, "a", r)
	require.NoError(t, err)
	assert.Equal(t, "alpha-2", out.Data.Name)

	deleted, err := svc.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, ok, _ := repo.FindByID(ctx, "a")
	assert.False(t, ok)

	deleted, err = svc.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListFromFreshCacheFiltersThenLimits(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(doc("1", "report-a"), doc("2", "notes"), doc("3", "report-b"), doc("4", "report-c"))
	svc := NewResourceService(api, cache.NewMemory(time.Minute))

	_, err := svc.List(ctx, 0, "")
	require.NoError(t, err)

	got, err := svc.List(ctx, 2, "report")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "report-a", got[0].Data.Name)
	assert.Equal(t, "report-b", got[1].Data.Name)
	assert.Equal(t, int32(1), api.lists.Load(), "served from cache")
}

func TestListStalePassesQueryAndKeepsPartialOutOfSnapshot(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(doc("1", "report-a"), doc("2", "notes"))
	c := cache.NewMemory(time.Minute)
	svc := NewResourceService(api, c)

	got, err := svc.List(ctx, 10, "report")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, [2]any{10, "report"}, api.lastQ)

	_, fresh, _ := c.Snapshot(ctx)
	assert.False(t, fresh, "filtered listings are not the complete set")

	_, err = svc.List(ctx, 10, "")
	require.NoError(t, err)
	_, fresh, _ = c.Snapshot(ctx)
	assert.True(t, fresh)
}

func TestAPIErrorMapping(t *testing.T) {
	cases := []struct {
		in   error
		want domain.ErrorKind
	}{
		{&domain.OpError{Kind: domain.KindPermissionDenied, Err: errors.New("401")}, domain.KindPermissionDenied},
		{&domain.OpError{Kind: domain.KindProcessing, Err: errors.New("bad json")}, domain.KindProcessing},
		{&domain.OpError{Kind: domain.KindDatabase, Err: errors.New("weird")}, domain.KindExternalService},
		{errors.New("plain"), domain.KindExternalService},
	}
	for _, tc := range cases {
		api := newFakeAPI()
		api.err = tc.in
		svc := NewResourceService(api, cache.None{})

		_, err := svc.List(context.Background(), 0, "")
		assert.Equal(t, tc.want, domain.KindOf(err), "%v", tc.in)
	}
}
