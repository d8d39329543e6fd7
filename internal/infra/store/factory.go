// Package store opens the repositories selected by domain.StoreConfig.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/kvstore"
	"github.com/aalvaropc/tether/internal/infra/memstore"
	"github.com/aalvaropc/tether/internal/infra/sqlstore"
	"github.com/aalvaropc/tether/internal/ports"
)

const (
	resourcesEntity = "resources"
	usersEntity     = "users"
)

// Factory holds the resource and user repositories of one backend.
type Factory struct {
	Driver    domain.StoreDriver
	Resources ports.Repository[domain.Resource]
	Users     ports.Repository[domain.User]

	closeFn func() error
}

// Open builds the repositories for cfg. A relative cfg.Path is resolved
// against root.
func Open(ctx context.Context, root string, cfg domain.StoreConfig) (*Factory, error) {
	path := resolvePath(root, cfg.Path)

	switch cfg.Driver {
	case domain.StoreMemory, "":
		return NewMemory(), nil
	case domain.StoreSQLite:
		return openSQLite(ctx, sqlitePath(root, path))
	case domain.StoreBadger:
		return openBadger(path)
	default:
		return nil, &domain.OpError{
			Op:   "store.open",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("unknown store driver %q", cfg.Driver),
		}
	}
}

// NewMemory returns process-local repositories.
func NewMemory() *Factory {
	return &Factory{
		Driver:    domain.StoreMemory,
		Resources: memstore.New[domain.Resource](),
		Users:     memstore.New[domain.User](),
		closeFn:   func() error { return nil },
	}
}

func resolvePath(root, path string) string {
	if path != "" && !filepath.IsAbs(path) {
		return filepath.Join(root, path)
	}
	return path
}

// sqlitePath turns a directory path into <dir>/tether.db. An empty path
// falls back to <root>/data.
func sqlitePath(root, path string) string {
	if path == "" {
		path = resolvePath(root, "data")
	}
	if filepath.Ext(path) == "" {
		return filepath.Join(path, "tether.db")
	}
	return path
}

func openSQLite(ctx context.Context, path string) (*Factory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.OpError{Op: "store.open", Kind: domain.KindDatabase, Path: path, Err: err}
	}
	db, err := sqlstore.Open(path, sqlstore.DefaultConfig())
	if err != nil {
		return nil, &domain.OpError{Op: "store.open", Kind: domain.KindDatabase, Path: path, Err: err}
	}

	resources, err := sqlstore.New[domain.Resource](ctx, db, resourcesEntity)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	users, err := sqlstore.New[domain.User](ctx, db, usersEntity, sqlstore.WithUniqueName())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Factory{
		Driver:    domain.StoreSQLite,
		Resources: resources,
		Users:     users,
		closeFn:   db.Close,
	}, nil
}

func openBadger(dir string) (*Factory, error) {
	if dir != "" {
		if filepath.Ext(dir) != "" {
			dir = filepath.Dir(dir)
		}
		dir = filepath.Join(dir, "badger")
	}
	db, err := kvstore.Open(dir)
	if err != nil {
		return nil, &domain.OpError{Op: "store.open", Kind: domain.KindDatabase, Path: dir, Err: err}
	}
	return &Factory{
		Driver:    domain.StoreBadger,
		Resources: kvstore.New[domain.Resource](db, resourcesEntity),
		Users:     kvstore.New[domain.User](db, usersEntity),
		closeFn:   db.Close,
	}, nil
}

// Close releases the backend. It is safe to call more than once.
func (f *Factory) Close() error {
	if f == nil || f.closeFn == nil {
		return nil
	}
	fn := f.closeFn
	f.closeFn = nil
	if err := fn(); err != nil {
		return errors.Join(domain.ErrDatabase, err)
	}
	return nil
}
