package memory

import (
	"context"
	"sync"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
)

// ReviewCacheRepository is an in-memory review cache
type ReviewCacheRepository struct {
	mu   sync.RWMutex
	rows map[string][]*entities.ReviewEntry
}

// NewReviewCacheRepository creates an empty store
func NewReviewCacheRepository() *ReviewCacheRepository {
	return &ReviewCacheRepository{rows: make(map[string][]*entities.ReviewEntry)}
}

var _ ports.ReviewCacheRepository = (*ReviewCacheRepository)(nil)

func (r *ReviewCacheRepository) Lookup(ctx context.Context, entityID string) (*entities.ReviewEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gens := r.rows[entityID]
	if len(gens) == 0 {
		return nil, nil
	}
	newest := gens[len(gens)-1]
	copied := *newest
	return &copied, nil
}

func (r *ReviewCacheRepository) RecordHit(ctx context.Context, entry *entities.ReviewEntry, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.rows[entry.EntityID] {
		if e.ID == entry.ID {
			e.RecordHit(now)
		}
	}
	return nil
}

func (r *ReviewCacheRepository) Insert(ctx context.Context, entry *entities.ReviewEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entry
	r.rows[entry.EntityID] = append(r.rows[entry.EntityID], &copied)
	return nil
}

func (r *ReviewCacheRepository) Delete(ctx context.Context, entityID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.rows[entityID])
	delete(r.rows, entityID)
	return n, nil
}

func (r *ReviewCacheRepository) DeleteAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, gens := range r.rows {
		n += len(gens)
	}
	r.rows = make(map[string][]*entities.ReviewEntry)
	return n, nil
}

func (r *ReviewCacheRepository) Stats(ctx context.Context) (ports.ReviewStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats ports.ReviewStats
	for _, gens := range r.rows {
		for _, e := range gens {
			stats.Entries++
			stats.TotalReuses += e.TimesReused
		}
	}
	return stats, nil
}
