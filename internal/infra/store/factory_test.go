package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
)

func TestOpenEachDriver(t *testing.T) {
	for _, driver := range []domain.StoreDriver{domain.StoreMemory, domain.StoreSQLite, domain.StoreBadger} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()

			f, err := Open(ctx, root, domain.StoreConfig{Driver: driver, Path: "data"})
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, driver, f.Driver)

			_, err = f.Users.Save(ctx, domain.NewUser("u1", "u1@example.com", "U"))
			require.NoError(t, err)
			_, err = f.Resources.Save(ctx, domain.NewResource("r1", domain.NewResourceData("n", domain.ResourceSettings)))
			require.NoError(t, err)

			nu, err := f.Users.Count(ctx)
			require.NoError(t, err)
			nr, err := f.Resources.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, nu)
			assert.Equal(t, 1, nr)

			require.NoError(t, f.Close())
			require.NoError(t, f.Close())
		})
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	for _, driver := range []domain.StoreDriver{domain.StoreSQLite, domain.StoreBadger} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			root := t.TempDir()
			cfg := domain.StoreConfig{Driver: driver, Path: "data"}

			f, err := Open(ctx, root, cfg)
			require.NoError(t, err)
			_, err = f.Users.Save(ctx, domain.NewUser("u1", "u1@example.com", "U"))
			require.NoError(t, err)
			require.NoError(t, f.Close())

			f, err = Open(ctx, root, cfg)
			require.NoError(t, err)
			defer f.Close()
			_, ok, err := f.Users.FindByID(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), domain.StoreConfig{Driver: "mongo"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "/ws/data/tether.db", sqlitePath("/ws", ""))
	assert.Equal(t, "data/tether.db", sqlitePath("", ""))
	assert.Equal(t, "x/tether.db", sqlitePath("/ws", "x"))
	assert.Equal(t, "x/custom.db", sqlitePath("/ws", "x/custom.db"))
	assert.Equal(t, "/ws/data/tether.db", sqlitePath("/ws", resolvePath("/ws", "data")),
		"the empty fallback matches the configured default")
}

func TestOpenSQLiteEmptyPathStaysInRoot(t *testing.T) {
	root := t.TempDir()
	f, err := Open(context.Background(), root, domain.StoreConfig{Driver: domain.StoreSQLite})
	require.NoError(t, err)
	defer f.Close()

	_, err = os.Stat(filepath.Join(root, "data", "tether.db"))
	assert.NoError(t, err)
}
