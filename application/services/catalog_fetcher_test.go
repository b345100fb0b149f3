package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"catalog-cache/application/ports/mocks"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	apperrors "catalog-cache/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func collectionPage(prefix string, n int, next string) *entities.CollectionPage {
	items := make([]entities.CollectionItem, n)
	for i := range items {
		items[i] = entities.CollectionItem{VideoID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return &entities.CollectionPage{Items: items, NextPageToken: next, TotalCount: 9999}
}

func TestCatalogFetcher_ChannelVideos_StopsAtMaxVideos(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	cfg := config.DefaultCacheConfig()
	fetcher := NewCatalogFetcher(api, cfg, nil, zap.NewNop())

	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"UCdino"}).
		Return([]entities.EntityDetail{{ID: "UCdino", ContentDetails: entities.ContentDetails{UploadsPlaylist: "UUdino"}}}, nil)
	// the collection always claims another page exists
	api.On("CollectionItems", mock.Anything, "UUdino", "", 50).Return(collectionPage("a", 50, "p2"), nil).Once()
	api.On("CollectionItems", mock.Anything, "UUdino", "p2", 50).Return(collectionPage("b", 50, "p3"), nil).Once()
	api.On("CollectionItems", mock.Anything, "UUdino", "p3", 20).Return(collectionPage("c", 20, "p4"), nil).Once()
	api.On("EntityDetails", mock.Anything, entities.EntityKindVideo, mock.Anything).Return([]entities.EntityDetail{}, nil)

	// Act
	got, err := fetcher.ChannelVideos(ctx, "UCdino", 120)

	// Assert
	require.NoError(t, err)
	assert.Len(t, got.Value.Items, 120)
	assert.Equal(t, 9999, got.Value.TotalCount)
	assert.True(t, got.Enriched)
	api.AssertNumberOfCalls(t, "CollectionItems", 3)
	// 1 channel lookup + 3 video detail batches (50, 50, 20)
	api.AssertNumberOfCalls(t, "EntityDetails", 4)
	api.AssertExpectations(t)
}

func TestCatalogFetcher_ChannelVideos_ShortPagesKeepPaging(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	fetcher := NewCatalogFetcher(api, config.DefaultCacheConfig(), nil, zap.NewNop())

	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"UCx"}).
		Return([]entities.EntityDetail{{ID: "UCx", ContentDetails: entities.ContentDetails{UploadsPlaylist: "UUx"}}}, nil)
	// upstream returns 20 items per page regardless of the requested size
	page := 0
	api.On("CollectionItems", mock.Anything, "UUx", mock.Anything, mock.Anything).
		Return(func(context.Context, string, string, int) *entities.CollectionPage {
			page++
			return collectionPage(fmt.Sprintf("p%d", page), 20, fmt.Sprintf("t%d", page))
		}, nil)
	api.On("EntityDetails", mock.Anything, entities.EntityKindVideo, mock.Anything).Return([]entities.EntityDetail{}, nil)

	got, err := fetcher.ChannelVideos(ctx, "UCx", 120)

	require.NoError(t, err)
	assert.Len(t, got.Value.Items, 120)
	assert.True(t, got.Enriched)
	api.AssertNumberOfCalls(t, "CollectionItems", 6)
}

func TestCatalogFetcher_ChannelVideos_EmptyPagesWithTokenAreIncomplete(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	fetcher := NewCatalogFetcher(api, config.DefaultCacheConfig(), nil, zap.NewNop())

	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"UCloop"}).
		Return([]entities.EntityDetail{}, nil)
	api.On("CollectionItems", mock.Anything, "UUloop", mock.Anything, mock.Anything).
		Return(collectionPage("e", 0, "again"), nil)

	got, err := fetcher.ChannelVideos(ctx, "UCloop", 5)

	require.NoError(t, err)
	assert.Empty(t, got.Value.Items)
	assert.False(t, got.Enriched)
	// maxVideos+1 pages before giving up
	api.AssertNumberOfCalls(t, "CollectionItems", 6)
}

func TestCatalogFetcher_ChannelVideos_FallsBackToUploadsConvention(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	fetcher := NewCatalogFetcher(api, config.DefaultCacheConfig(), nil, zap.NewNop())

	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"UCxyz"}).
		Return([]entities.EntityDetail{}, nil)
	api.On("CollectionItems", mock.Anything, "UUxyz", "", 10).Return(collectionPage("v", 3, ""), nil).Once()
	api.On("EntityDetails", mock.Anything, entities.EntityKindVideo, []string{"v-0", "v-1", "v-2"}).
		Return([]entities.EntityDetail{}, nil)

	got, err := fetcher.ChannelVideos(ctx, "UCxyz", 10)

	require.NoError(t, err)
	assert.Len(t, got.Value.Items, 3)
	api.AssertExpectations(t)
}

func TestCatalogFetcher_ChannelVideos_QuotaDuringPaginationAborts(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	fetcher := NewCatalogFetcher(api, config.DefaultCacheConfig(), nil, zap.NewNop())

	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, mock.Anything).Return([]entities.EntityDetail{}, nil)
	api.On("CollectionItems", mock.Anything, "UUq", "", 50).Return(collectionPage("a", 50, "p2"), nil).Once()
	api.On("CollectionItems", mock.Anything, "UUq", "p2", 50).
		Return(nil, apperrors.NewQuotaExceeded("quota", 403, "quotaExceeded")).Once()

	_, err := fetcher.ChannelVideos(ctx, "UCq", 200)

	require.Error(t, err)
	assert.True(t, apperrors.IsQuotaExceeded(err))
	api.AssertNotCalled(t, "EntityDetails", mock.Anything, entities.EntityKindVideo, mock.Anything)
}

func TestCatalogFetcher_SearchVideos_DetailFailureKeepsStubs(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	fetcher := NewCatalogFetcher(api, config.DefaultCacheConfig(), nil, zap.NewNop())

	api.On("Search", mock.Anything, mock.Anything).Return([]entities.SearchStub{{ID: "v1", Snippet: entities.Snippet{Title: "T"}}}, nil)
	api.On("EntityDetails", mock.Anything, entities.EntityKindVideo, []string{"v1"}).
		Return(nil, apperrors.NewUpstreamFailure("backend error", 500, errors.New("boom")))

	got, err := fetcher.SearchVideos(ctx, "trucks", 20, "", "")

	require.NoError(t, err)
	assert.False(t, got.Enriched)
	require.Len(t, got.Value, 1)
	assert.Equal(t, "T", got.Value[0].Title)
	assert.Equal(t, "Video not found", got.Value[0].Reason)
}

func TestCatalogFetcher_SearchChannels_ChunksDetails(t *testing.T) {
	ctx := context.Background()
	api := new(mocks.MockCatalogAPI)
	cfg := config.DefaultCacheConfig()
	cfg.DetailBatchSize = 2
	fetcher := NewCatalogFetcher(api, cfg, nil, zap.NewNop())

	stubs := []entities.SearchStub{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	api.On("Search", mock.Anything, mock.Anything).Return(stubs, nil)
	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"c1", "c2"}).
		Return([]entities.EntityDetail{{ID: "c1"}, {ID: "c2"}}, nil)
	api.On("EntityDetails", mock.Anything, entities.EntityKindChannel, []string{"c3"}).
		Return([]entities.EntityDetail{{ID: "c3"}}, nil)

	got, err := fetcher.SearchChannels(ctx, "lego", 3)

	require.NoError(t, err)
	assert.True(t, got.Enriched)
	assert.Len(t, got.Value, 3)
	api.AssertExpectations(t)
}
