package ports

import (
	"context"

	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
)

// MaxDetailBatch is the largest id list the catalog accepts in one detail call
const MaxDetailBatch = 50

// SearchRequest is a single catalog search call
type SearchRequest struct {
	Query      string
	Kind       entities.EntityKind
	MaxResults int
	Duration   valueobjects.DurationClass
	ChannelID  string
}

// CatalogAPI is the upstream video catalog.
// Failures are returned as *errors.UpstreamError.
type CatalogAPI interface {
	// Search returns the search stubs for a query
	Search(ctx context.Context, req SearchRequest) ([]entities.SearchStub, error)

	// EntityDetails fetches full records for at most MaxDetailBatch ids.
	// Ids the catalog does not know are absent from the result.
	EntityDetails(ctx context.Context, kind entities.EntityKind, ids []string) ([]entities.EntityDetail, error)

	// CollectionItems returns one page of a collection (an upload playlist)
	CollectionItems(ctx context.Context, collectionID, pageToken string, pageSize int) (*entities.CollectionPage, error)
}
