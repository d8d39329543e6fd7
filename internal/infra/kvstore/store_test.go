package kvstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

var _ ports.Repository[domain.User] = (*Store[domain.User])(nil)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoresArePrefixScoped(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := New[domain.User](db, "users")
	resources := New[domain.Resource](db, "resources")

	for _, id := range []string{"u2", "u1"} {
		_, err := users.Save(ctx, domain.NewUser(id, id+"@example.com", id))
		require.NoError(t, err)
	}
	_, err := resources.Save(ctx, domain.NewResource("r1", domain.NewResourceData("n", domain.ResourceProject)))
	require.NoError(t, err)

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u1", all[0].ID)
	assert.Equal(t, "u2", all[1].ID)

	n, err := resources.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFindAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New[domain.User](openTestDB(t), "users")

	u := domain.NewUser("u1", "u1@example.com", "U").WithPermission(domain.PermExportData)
	_, err := s.Save(ctx, u)
	require.NoError(t, err)

	got, ok, err := s.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.HasPermission(domain.PermExportData))

	deleted, err := s.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, ok, err = s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err = s.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestInMemoryOpen(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	s := New[domain.User](db, "users")
	_, err = s.Save(context.Background(), domain.NewUser("u", "u@example.com", "u"))
	require.NoError(t, err)
}

func TestClosedDB(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	s := New[domain.User](db, "users")
	require.NoError(t, db.Close())

	_, err = s.Save(context.Background(), domain.NewUser("u", "u@example.com", "u"))
	assert.ErrorIs(t, err, domain.ErrDatabase)
}
