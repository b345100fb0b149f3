package handlers

import (
	"context"
	"fmt"

	"catalog-cache/application/queries"
	"catalog-cache/application/queries/bus"
	"catalog-cache/application/services"
	"catalog-cache/domain/core/valueobjects"
	apperrors "catalog-cache/pkg/errors"

	"go.uber.org/zap"
)

// CatalogQueryHandler serves the catalog read queries from the cache service
type CatalogQueryHandler struct {
	cache   *services.CatalogCacheService
	reviews *services.ReviewCacheService
	admin   *services.AdminService
	logger  *zap.Logger
}

// NewCatalogQueryHandler creates a new catalog query handler
func NewCatalogQueryHandler(
	cache *services.CatalogCacheService,
	reviews *services.ReviewCacheService,
	admin *services.AdminService,
	logger *zap.Logger,
) *CatalogQueryHandler {
	return &CatalogQueryHandler{
		cache:   cache,
		reviews: reviews,
		admin:   admin,
		logger:  logger,
	}
}

// Register wires every catalog query onto the bus
func (h *CatalogQueryHandler) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.SearchChannelsQuery{}, h.searchChannels},
		{queries.SearchVideosQuery{}, h.searchVideos},
		{queries.GetChannelVideosQuery{}, h.channelVideos},
		{queries.GetCacheStatsQuery{}, h.stats},
		{queries.GetContentReviewQuery{}, h.review},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *CatalogQueryHandler) searchChannels(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.SearchChannelsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.cache.SearchChannels(ctx, services.SearchChannelsRequest{
		Query:        query.Query,
		MaxResults:   query.MaxResults,
		ForceRefresh: query.ForceRefresh,
	})
}

func (h *CatalogQueryHandler) searchVideos(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.SearchVideosQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	duration, err := valueobjects.ParseDurationClass(query.Duration)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return h.cache.SearchVideos(ctx, services.SearchVideosRequest{
		Query:        query.Query,
		MaxResults:   query.MaxResults,
		Duration:     duration,
		ChannelID:    query.ChannelID,
		ForceRefresh: query.ForceRefresh,
	})
}

func (h *CatalogQueryHandler) channelVideos(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetChannelVideosQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.cache.GetChannelVideos(ctx, services.GetChannelVideosRequest{
		ChannelID:    query.ChannelID,
		MaxVideos:    query.MaxVideos,
		ForceRefresh: query.ForceRefresh,
	})
}

func (h *CatalogQueryHandler) stats(ctx context.Context, q bus.Query) (interface{}, error) {
	return h.admin.Stats(ctx)
}

func (h *CatalogQueryHandler) review(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetContentReviewQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", q)
	}
	return h.reviews.GetReview(ctx, services.ReviewRequest{
		EntityID:     query.EntityID,
		Title:        query.Title,
		Description:  query.Description,
		ChannelTitle: query.ChannelTitle,
		ForceRefresh: query.ForceRefresh,
	})
}
