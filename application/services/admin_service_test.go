package services

import (
	"context"
	"testing"
	"time"

	"catalog-cache/application/ports/mocks"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
	"catalog-cache/domain/events"
	"catalog-cache/infrastructure/persistence/memory"
	apperrors "catalog-cache/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdminService_Stats(t *testing.T) {
	// Arrange
	ctx := context.Background()
	catalogRepo := memory.NewCatalogCacheRepository()
	reviewRepo := memory.NewReviewCacheRepository()
	cfg := config.DefaultCacheConfig()
	svc := NewAdminService(catalogRepo, reviewRepo, cfg, nil, zap.NewNop())
	now := time.Now()

	key := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, "dinosaurs", 20)
	entry, err := entities.NewCacheEntry(key, entities.VideosPayload{}, now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, catalogRepo.Insert(ctx, entry))
	for i := 0; i < 3; i++ {
		require.NoError(t, catalogRepo.RecordHit(ctx, entry, now))
	}

	review, err := entities.NewReviewEntry("vid1", entities.ContentReview{SafetyRating: entities.SafetySafe}, now)
	require.NoError(t, err)
	require.NoError(t, reviewRepo.Insert(ctx, review))
	require.NoError(t, reviewRepo.RecordHit(ctx, review, now))

	// Act
	report, err := svc.Stats(ctx)

	// Assert
	require.NoError(t, err)
	videos := report.Catalog[valueobjects.SearchTypeVideos]
	assert.Equal(t, 1, videos.Total)
	assert.Equal(t, 1, videos.Valid)
	assert.Equal(t, 3, videos.TotalReuses)
	assert.Equal(t, 3*(cfg.SearchQuotaCost+cfg.DetailQuotaCost), videos.EstimatedQuotaSaved)
	assert.Contains(t, report.Catalog, valueobjects.SearchTypeChannelVideos)
	assert.Equal(t, 3, report.TotalReuses)
	assert.Equal(t, 1, report.Reviews.Entries)
	assert.InDelta(t, cfg.ReviewCostPerCall, report.Reviews.EstimatedCostSaved, 1e-9)
}

func TestAdminService_ClearsPublishEvents(t *testing.T) {
	ctx := context.Background()
	catalogRepo := new(mocks.MockCatalogCacheRepository)
	reviewRepo := new(mocks.MockReviewCacheRepository)
	publisher := new(mocks.MockEventPublisher)
	svc := NewAdminService(catalogRepo, reviewRepo, config.DefaultCacheConfig(), publisher, zap.NewNop())

	key := valueobjects.NewChannelVideosKey("UCabc")
	catalogRepo.On("DeleteKey", ctx, key).Return(2, nil)
	catalogRepo.On("DeleteAll", ctx, valueobjects.SearchTypeVideos).Return(7, nil)
	reviewRepo.On("Delete", ctx, "vid1").Return(1, nil)
	reviewRepo.On("DeleteAll", ctx).Return(4, nil)
	publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.EventTypeCatalogCacheCleared
	})).Return(nil).Twice()
	publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.EventTypeReviewCacheCleared
	})).Return(assert.AnError).Twice()

	n, err := svc.ClearEntry(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.ClearType(ctx, valueobjects.SearchTypeVideos)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// publish failures are not fatal
	n, err = svc.ClearReview(ctx, "vid1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.ClearReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	publisher.AssertExpectations(t)
}

func TestAdminService_ClearValidation(t *testing.T) {
	svc := NewAdminService(new(mocks.MockCatalogCacheRepository), new(mocks.MockReviewCacheRepository), config.DefaultCacheConfig(), nil, zap.NewNop())

	_, err := svc.ClearType(context.Background(), "playlists")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.ClearEntry(context.Background(), valueobjects.SearchKey{SearchType: valueobjects.SearchTypeVideos})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.ClearReview(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
}
