package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/countrydata/country-service/internal/country"
)

// MemoryRepo is the in-memory repository used when no MongoDB is configured
// and by unit tests. Records are keyed by case-folded name; the mutex makes
// each BulkUpsert all-or-nothing from a reader's point of view.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*country.Country
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*country.Country)}
}

func (m *MemoryRepo) All(ctx context.Context) ([]*country.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*country.Country, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemoryRepo) GetByName(ctx context.Context, name string) (*country.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.store[country.FoldName(name)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) DeleteByName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := country.FoldName(name)
	if _, ok := m.store[key]; !ok {
		return ErrNotFound
	}
	delete(m.store, key)
	return nil
}

func (m *MemoryRepo) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.store)), nil
}

func (m *MemoryRepo) BulkUpsert(ctx context.Context, inserts, updates []*country.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range inserts {
		cp := *c
		m.store[cp.NameKey] = &cp
	}
	for _, c := range updates {
		cp := *c
		m.store[cp.NameKey] = &cp
	}
	return nil
}
