package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

func zerologNop() zerolog.Logger { return zerolog.Nop() }

func withProcessorClock(t *testing.T, ts time.Time) {
	t.Helper()
	prev := processorNow
	processorNow = func() time.Time { return ts }
	t.Cleanup(func() { processorNow = prev })
}

func TestRegistryOrder(t *testing.T) {
	var calls []string
	rec := func(name string) ports.ResourceProcessor {
		return ports.ProcessorFunc(func(context.Context, *domain.Resource) error {
			calls = append(calls, name)
			return nil
		})
	}

	reg := NewProcessorRegistry()
	reg.Register(domain.ResourceAny, rec("any-1"))
	reg.Register(domain.ResourceDocument, rec("doc-1"))
	reg.Register(domain.ResourceDocument, rec("doc-2"))
	reg.Register(domain.ResourceUser, rec("user"))

	r := doc("d", "d")
	require.NoError(t, reg.Process(context.Background(), &r))
	assert.Equal(t, []string{"doc-1", "doc-2", "any-1"}, calls)
}

func TestRegistryStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	reached := false

	reg := NewProcessorRegistry()
	reg.Register(domain.ResourceMedia, ports.ProcessorFunc(func(context.Context, *domain.Resource) error { return boom }))
	reg.Register(domain.ResourceAny, ports.ProcessorFunc(func(context.Context, *domain.Resource) error {
		reached = true
		return nil
	}))

	r := domain.NewResource("m", domain.NewResourceData("m", domain.ResourceMedia))
	assert.ErrorIs(t, reg.Process(context.Background(), &r), boom)
	assert.False(t, reached)
}

func TestDocumentProcessor(t *testing.T) {
	p := DocumentProcessor{}

	r := doc("d", "d")
	r.Data = r.Data.WithData("content", "\n text \t")
	require.NoError(t, p.Process(context.Background(), &r))
	assert.Equal(t, "text", r.Data.Data["content"])

	empty := doc("d", "d")
	empty.Data = empty.Data.WithData("content", "")
	assert.ErrorIs(t, p.Process(context.Background(), &empty), domain.ErrValidation)

	none := domain.NewResource("d", domain.NewResourceData("d", domain.ResourceDocument))
	assert.NoError(t, p.Process(context.Background(), &none))
}

func TestUserProcessor(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	withProcessorClock(t, ts)
	p := UserProcessor{}

	r := domain.NewResource("u", domain.NewResourceData("u", domain.ResourceUser).WithData("email", "a@b.co"))
	require.NoError(t, p.Process(context.Background(), &r))
	assert.Equal(t, "2026-03-04T05:06:07Z", r.Data.Data["created_at"])

	keep := domain.NewResource("u", domain.NewResourceData("u", domain.ResourceUser).
		WithData("email", "a@b.co").
		WithData("created_at", "earlier"))
	require.NoError(t, p.Process(context.Background(), &keep))
	assert.Equal(t, "earlier", keep.Data.Data["created_at"])

	bad := domain.NewResource("u", domain.NewResourceData("u", domain.ResourceUser).WithData("email", "nope"))
	err := p.Process(context.Background(), &bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email format")
}

func TestAuditLogProcessorDoesNotAliasInput(t *testing.T) {
	withProcessorClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	original := doc("d", "d")
	r := original
	require.NoError(t, AuditLogProcessor{Log: zerolog.Nop()}.Process(context.Background(), &r))

	assert.Equal(t, "2026-01-01T00:00:00Z", r.Data.Data["last_modified"])
	_, leaked := original.Data.Data["last_modified"]
	assert.False(t, leaked)
}
