package ports

import (
	"context"
	"time"

	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
	"catalog-cache/domain/events"
)

// CatalogCacheRepository persists generations of catalog search results.
// Rows are append-only; a key may have many generations and lookups return the freshest valid one.
type CatalogCacheRepository interface {
	// Lookup returns the freshest entry valid at now, or nil when there is none
	Lookup(ctx context.Context, key valueobjects.SearchKey, now time.Time) (*entities.CacheEntry, error)

	// RecordHit increments the reuse counter of one row and stamps its access time
	RecordHit(ctx context.Context, entry *entities.CacheEntry, now time.Time) error

	// Insert appends a new generation; it never overwrites an existing row
	Insert(ctx context.Context, entry *entities.CacheEntry) error

	// DeleteKey removes every generation of a key and returns the number of rows removed
	DeleteKey(ctx context.Context, key valueobjects.SearchKey) (int, error)

	// DeleteAll removes every row of a search type, or of all types when searchType is empty
	DeleteAll(ctx context.Context, searchType valueobjects.SearchType) (int, error)

	// Stats aggregates row counts per search type
	Stats(ctx context.Context, now time.Time) (map[valueobjects.SearchType]TypeStats, error)
}

// ReviewCacheRepository persists content reviews keyed by entity id
type ReviewCacheRepository interface {
	Lookup(ctx context.Context, entityID string) (*entities.ReviewEntry, error)
	RecordHit(ctx context.Context, entry *entities.ReviewEntry, now time.Time) error
	Insert(ctx context.Context, entry *entities.ReviewEntry) error
	Delete(ctx context.Context, entityID string) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (ReviewStats, error)
}

// TypeStats summarizes the rows of one search type
type TypeStats struct {
	Total       int `json:"total"`
	Valid       int `json:"valid"`
	TotalReuses int `json:"totalReuses"`
}

// ReviewStats summarizes the review cache
type ReviewStats struct {
	Entries     int `json:"entries"`
	TotalReuses int `json:"totalReuses"`
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
