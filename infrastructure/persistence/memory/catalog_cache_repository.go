// Package memory provides process-local stores for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
)

// CatalogCacheRepository is an in-memory, append-only catalog cache
type CatalogCacheRepository struct {
	mu   sync.RWMutex
	rows map[string][]*entities.CacheEntry // composite key -> generations in insertion order
}

// NewCatalogCacheRepository creates an empty store
func NewCatalogCacheRepository() *CatalogCacheRepository {
	return &CatalogCacheRepository{rows: make(map[string][]*entities.CacheEntry)}
}

var _ ports.CatalogCacheRepository = (*CatalogCacheRepository)(nil)

func (r *CatalogCacheRepository) Lookup(ctx context.Context, key valueobjects.SearchKey, now time.Time) (*entities.CacheEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *entities.CacheEntry
	for _, e := range r.rows[key.Composite()] {
		if !e.IsValid(now) {
			continue
		}
		if best == nil || e.CachedAt.After(best.CachedAt) || e.CachedAt.Equal(best.CachedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	copied := *best
	return &copied, nil
}

func (r *CatalogCacheRepository) RecordHit(ctx context.Context, entry *entities.CacheEntry, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.rows[entry.Key.Composite()] {
		if e.ID == entry.ID {
			e.RecordHit(now)
			return nil
		}
	}
	return nil
}

func (r *CatalogCacheRepository) Insert(ctx context.Context, entry *entities.CacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entry
	k := entry.Key.Composite()
	r.rows[k] = append(r.rows[k], &copied)
	return nil
}

func (r *CatalogCacheRepository) DeleteKey(ctx context.Context, key valueobjects.SearchKey) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key.Composite()
	n := len(r.rows[k])
	delete(r.rows, k)
	return n, nil
}

func (r *CatalogCacheRepository) DeleteAll(ctx context.Context, searchType valueobjects.SearchType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for k, gens := range r.rows {
		if len(gens) == 0 {
			delete(r.rows, k)
			continue
		}
		if searchType == "" || gens[0].Key.SearchType == searchType {
			deleted += len(gens)
			delete(r.rows, k)
		}
	}
	return deleted, nil
}

func (r *CatalogCacheRepository) Stats(ctx context.Context, now time.Time) (map[valueobjects.SearchType]ports.TypeStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[valueobjects.SearchType]ports.TypeStats)
	for _, gens := range r.rows {
		for _, e := range gens {
			st := stats[e.Key.SearchType]
			st.Total++
			if e.IsValid(now) {
				st.Valid++
			}
			st.TotalReuses += e.TimesReused
			stats[e.Key.SearchType] = st
		}
	}
	return stats, nil
}
