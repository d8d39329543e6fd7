// Package memstore is an in-memory repository ordered by ID.
package memstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/aalvaropc/tether/internal/domain"
)

// Cloneable is an entity that can deep-copy itself.
type Cloneable[T any] interface {
	EntityID() string
	Clone() T
}

type item[T any] struct {
	id string
	v  T
}

// Store keeps clones of saved entities in a B-tree keyed by ID.
type Store[T Cloneable[T]] struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

func byID[T any](a, b interface{}) bool {
	return a.(*item[T]).id < b.(*item[T]).id
}

func New[T Cloneable[T]]() *Store[T] {
	return &Store[T]{tree: btree.NewNonConcurrent(byID[T])}
}

func (s *Store[T]) Save(_ context.Context, v T) (T, error) {
	id := v.EntityID()
	if strings.TrimSpace(id) == "" {
		var zero T
		return zero, &domain.OpError{Op: "memstore.save", Kind: domain.KindValidation, Err: errors.New("entity id is empty")}
	}

	s.mu.Lock()
	s.tree.Set(&item[T]{id: id, v: v.Clone()})
	s.mu.Unlock()

	return v.Clone(), nil
}

func (s *Store[T]) FindByID(_ context.Context, id string) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.tree.Get(&item[T]{id: id})
	if found == nil {
		var zero T
		return zero, false, nil
	}
	return found.(*item[T]).v.Clone(), true, nil
}

func (s *Store[T]) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Delete(&item[T]{id: id}) != nil, nil
}

// FindAll returns every entity ordered by ID.
func (s *Store[T]) FindAll(_ context.Context) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, s.tree.Len())
	s.tree.Ascend(nil, func(i interface{}) bool {
		out = append(out, i.(*item[T]).v.Clone())
		return true
	})
	return out, nil
}

func (s *Store[T]) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len(), nil
}

// Close is a no-op so Store satisfies io.Closer alongside the disk stores.
func (s *Store[T]) Close() error { return nil }
