package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

var (
	_ ports.ResourceCache = (*Memory)(nil)
	_ ports.ResourceCache = (*Redis)(nil)
	_ ports.ResourceCache = None{}
)

func res(id, name string) domain.Resource {
	return domain.NewResource(id, domain.NewResourceData(name, domain.ResourceProject))
}

func TestMemoryStartsStale(t *testing.T) {
	m := NewMemory(time.Minute)
	_, ok, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryFreshness(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(5 * time.Minute)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Store(ctx, []domain.Resource{res("b", "beta"), res("a", "alpha")}, true))

	list, ok, err := m.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", list[0].ID, "snapshot keeps server order")

	got, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "alpha", got.Data.Name)

	clock = clock.Add(5*time.Minute + time.Second)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok, "expired")
	_, ok, _ = m.Snapshot(ctx)
	assert.False(t, ok)
}

func TestMemoryPartialStoreIsNotASnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	require.NoError(t, m.Store(ctx, []domain.Resource{res("a", "alpha")}, false))
	_, ok, _ := m.Snapshot(ctx)
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	require.NoError(t, m.Store(ctx, []domain.Resource{res("a", "alpha")}, true))
	require.NoError(t, m.Invalidate(ctx))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = m.Snapshot(ctx)
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	r := res("a", "alpha").Data
	item := domain.NewResource("a", r.WithData("k", "v"))
	require.NoError(t, m.Store(ctx, []domain.Resource{item}, true))

	got, _, _ := m.Get(ctx, "a")
	got.Data.Data["k"] = "changed"
	again, _, _ := m.Get(ctx, "a")
	assert.Equal(t, "v", again.Data.Data["k"])
}

func TestOpenHonoursFeatureFlag(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Features.Caching = false

	c, closeFn, err := Open(context.Background(), cfg.Cache, cfg.Features)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, None{}, c)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), domain.CacheConfig{Driver: "memcached"}, domain.DefaultFeatureFlags())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
