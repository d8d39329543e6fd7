// Package cache implements ports.ResourceCache in memory and in redis.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aalvaropc/tether/internal/domain"
)

// Memory is a process-local cache. Entries share one freshness clock:
// everything goes stale TTL after the last Store.
type Memory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	items    map[string]domain.Resource
	order    []string
	complete bool
	storedAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		items: map[string]domain.Resource{},
	}
}

func (m *Memory) fresh() bool {
	return !m.storedAt.IsZero() && m.now().Sub(m.storedAt) <= m.ttl
}

func (m *Memory) Get(_ context.Context, id string) (domain.Resource, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.fresh() {
		return domain.Resource{}, false, nil
	}
	r, ok := m.items[id]
	if !ok {
		return domain.Resource{}, false, nil
	}
	return r.Clone(), true, nil
}

func (m *Memory) Snapshot(_ context.Context) ([]domain.Resource, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.complete || !m.fresh() {
		return nil, false, nil
	}
	out := make([]domain.Resource, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id].Clone())
	}
	return out, true, nil
}

// Store replaces the cached contents with items.
func (m *Memory) Store(_ context.Context, items []domain.Resource, complete bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]domain.Resource, len(items))
	m.order = m.order[:0]
	for _, r := range items {
		if _, dup := m.items[r.ID]; !dup {
			m.order = append(m.order, r.ID)
		}
		m.items[r.ID] = r.Clone()
	}
	m.complete = complete
	m.storedAt = m.now()
	return nil
}

func (m *Memory) Invalidate(_ context.Context) error {
	m.mu.Lock()
	m.storedAt = time.Time{}
	m.complete = false
	m.mu.Unlock()
	return nil
}

// None never holds anything.
type None struct{}

func (None) Get(context.Context, string) (domain.Resource, bool, error) {
	return domain.Resource{}, false, nil
}
func (None) Snapshot(context.Context) ([]domain.Resource, bool, error) { return nil, false, nil }
func (None) Store(context.Context, []domain.Resource, bool) error      { return nil }
func (None) Invalidate(context.Context) error                          { return nil }
