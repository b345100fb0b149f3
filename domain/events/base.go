package events

import (
	"time"

	"catalog-cache/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	EventTypeCatalogCacheCleared = "catalog.cache_cleared"
	EventTypeReviewCacheCleared  = "review.cache_cleared"
	EventTypeQuotaExceeded       = "catalog.quota_exceeded"
)

// CatalogCacheCleared is raised when catalog cache rows are removed by an operator.
// Key is empty when a whole search type (or everything) was cleared.
type CatalogCacheCleared struct {
	BaseEvent
	SearchType valueobjects.SearchType `json:"search_type,omitempty"`
	Key        string                  `json:"key,omitempty"`
	Deleted    int                     `json:"deleted"`
}

// NewCatalogCacheCleared creates a CatalogCacheCleared event
func NewCatalogCacheCleared(searchType valueobjects.SearchType, key string, deleted int, timestamp time.Time) CatalogCacheCleared {
	aggregate := "catalog"
	if searchType != "" {
		aggregate = string(searchType)
	}
	if key != "" {
		aggregate = key
	}
	return CatalogCacheCleared{
		BaseEvent: BaseEvent{
			AggregateID: aggregate,
			EventType:   EventTypeCatalogCacheCleared,
			Timestamp:   timestamp,
			Version:     1,
		},
		SearchType: searchType,
		Key:        key,
		Deleted:    deleted,
	}
}

// ReviewCacheCleared is raised when review rows are removed
type ReviewCacheCleared struct {
	BaseEvent
	EntityID string `json:"entity_id,omitempty"`
	Deleted  int    `json:"deleted"`
}

// NewReviewCacheCleared creates a ReviewCacheCleared event
func NewReviewCacheCleared(entityID string, deleted int, timestamp time.Time) ReviewCacheCleared {
	aggregate := "reviews"
	if entityID != "" {
		aggregate = entityID
	}
	return ReviewCacheCleared{
		BaseEvent: BaseEvent{
			AggregateID: aggregate,
			EventType:   EventTypeReviewCacheCleared,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityID: entityID,
		Deleted:  deleted,
	}
}

// QuotaExceeded is raised when the upstream catalog rejects a call for quota
type QuotaExceeded struct {
	BaseEvent
	SearchType valueobjects.SearchType `json:"search_type"`
	Key        string                  `json:"key"`
	Message    string                  `json:"message"`
}

// NewQuotaExceeded creates a QuotaExceeded event
func NewQuotaExceeded(key valueobjects.SearchKey, message string, timestamp time.Time) QuotaExceeded {
	return QuotaExceeded{
		BaseEvent: BaseEvent{
			AggregateID: key.Composite(),
			EventType:   EventTypeQuotaExceeded,
			Timestamp:   timestamp,
			Version:     1,
		},
		SearchType: key.SearchType,
		Key:        key.Composite(),
		Message:    message,
	}
}
