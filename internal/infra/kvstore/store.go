// Package kvstore keeps entities in badger under "<entity>/<id>" keys.
package kvstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

// Open opens (or creates) a badger directory. An empty dir opens an
// in-memory instance.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "badger: open %s", dir)
	}
	return db, nil
}

// Store is a Repository over one key prefix of a shared badger DB.
type Store[T ports.Entity] struct {
	db     *badger.DB
	prefix []byte
}

// New scopes a store to entity. The caller owns db.
func New[T ports.Entity](db *badger.DB, entity string) *Store[T] {
	return &Store[T]{db: db, prefix: []byte(entity + "/")}
}

func (s *Store[T]) key(id string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(id))
	return append(append(k, s.prefix...), id...)
}

func (s *Store[T]) Save(_ context.Context, v T) (T, error) {
	var zero T
	id := v.EntityID()
	if strings.TrimSpace(id) == "" {
		return zero, &domain.OpError{Op: "kvstore.save", Kind: domain.KindValidation, Err: errors.New("entity id is empty")}
	}

	buf, err := json.Marshal(v)
	if err != nil {
		return zero, &domain.OpError{Op: "kvstore.save", Kind: domain.KindProcessing, Path: id, Err: err}
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(id), buf)
	}); err != nil {
		return zero, dbError("kvstore.save", id, errors.Wrap(err, "set"))
	}
	return decode[T](buf)
}

func (s *Store[T]) FindByID(_ context.Context, id string) (T, bool, error) {
	var (
		zero T
		buf  []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, dbError("kvstore.find", id, errors.Wrap(err, "get"))
	}

	v, err := decode[T](buf)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *Store[T]) Delete(_ context.Context, id string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(s.key(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(s.key(id))
	})
	if err != nil {
		return false, dbError("kvstore.delete", id, errors.Wrap(err, "delete"))
	}
	return existed, nil
}

// FindAll iterates the prefix; badger keeps keys sorted, so results are ordered by ID.
func (s *Store[T]) FindAll(ctx context.Context) ([]T, error) {
	var out []T
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			v, err := decode[T](buf)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) != "" {
			return nil, err
		}
		return nil, dbError("kvstore.findall", "", errors.Wrap(err, "iterate"))
	}
	return out, nil
}

func (s *Store[T]) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, dbError("kvstore.count", "", errors.Wrap(err, "iterate"))
	}
	return n, nil
}

func decode[T any](buf []byte) (T, error) {
	var v T
	if err := json.Unmarshal(buf, &v); err != nil {
		return v, &domain.OpError{Op: "kvstore.decode", Kind: domain.KindProcessing, Err: errors.WithStack(err)}
	}
	return v, nil
}

func dbError(op, path string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindDatabase, Path: path, Err: err}
}
