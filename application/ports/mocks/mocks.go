// Package mocks holds testify mocks of the application ports.
package mocks

import (
	"context"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
	"catalog-cache/domain/events"

	"github.com/stretchr/testify/mock"
)

type MockCatalogAPI struct {
	mock.Mock
}

func (m *MockCatalogAPI) Search(ctx context.Context, req ports.SearchRequest) ([]entities.SearchStub, error) {
	args := m.Called(ctx, req)
	stubs, _ := args.Get(0).([]entities.SearchStub)
	return stubs, args.Error(1)
}

func (m *MockCatalogAPI) EntityDetails(ctx context.Context, kind entities.EntityKind, ids []string) ([]entities.EntityDetail, error) {
	args := m.Called(ctx, kind, ids)
	details, _ := args.Get(0).([]entities.EntityDetail)
	return details, args.Error(1)
}

func (m *MockCatalogAPI) CollectionItems(ctx context.Context, collectionID, pageToken string, pageSize int) (*entities.CollectionPage, error) {
	args := m.Called(ctx, collectionID, pageToken, pageSize)
	if fn, ok := args.Get(0).(func(context.Context, string, string, int) *entities.CollectionPage); ok {
		return fn(ctx, collectionID, pageToken, pageSize), args.Error(1)
	}
	page, _ := args.Get(0).(*entities.CollectionPage)
	return page, args.Error(1)
}

type MockCatalogCacheRepository struct {
	mock.Mock
}

func (m *MockCatalogCacheRepository) Lookup(ctx context.Context, key valueobjects.SearchKey, now time.Time) (*entities.CacheEntry, error) {
	args := m.Called(ctx, key, now)
	entry, _ := args.Get(0).(*entities.CacheEntry)
	return entry, args.Error(1)
}

func (m *MockCatalogCacheRepository) RecordHit(ctx context.Context, entry *entities.CacheEntry, now time.Time) error {
	args := m.Called(ctx, entry, now)
	return args.Error(0)
}

func (m *MockCatalogCacheRepository) Insert(ctx context.Context, entry *entities.CacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCatalogCacheRepository) DeleteKey(ctx context.Context, key valueobjects.SearchKey) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogCacheRepository) DeleteAll(ctx context.Context, searchType valueobjects.SearchType) (int, error) {
	args := m.Called(ctx, searchType)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogCacheRepository) Stats(ctx context.Context, now time.Time) (map[valueobjects.SearchType]ports.TypeStats, error) {
	args := m.Called(ctx, now)
	stats, _ := args.Get(0).(map[valueobjects.SearchType]ports.TypeStats)
	return stats, args.Error(1)
}

type MockReviewCacheRepository struct {
	mock.Mock
}

func (m *MockReviewCacheRepository) Lookup(ctx context.Context, entityID string) (*entities.ReviewEntry, error) {
	args := m.Called(ctx, entityID)
	entry, _ := args.Get(0).(*entities.ReviewEntry)
	return entry, args.Error(1)
}

func (m *MockReviewCacheRepository) RecordHit(ctx context.Context, entry *entities.ReviewEntry, now time.Time) error {
	args := m.Called(ctx, entry, now)
	return args.Error(0)
}

func (m *MockReviewCacheRepository) Insert(ctx context.Context, entry *entities.ReviewEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockReviewCacheRepository) Delete(ctx context.Context, entityID string) (int, error) {
	args := m.Called(ctx, entityID)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewCacheRepository) DeleteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewCacheRepository) Stats(ctx context.Context) (ports.ReviewStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(ports.ReviewStats)
	return stats, args.Error(1)
}

type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Complete(ctx context.Context, prompt string, options ports.CompletionOptions) (string, error) {
	args := m.Called(ctx, prompt, options)
	return args.String(0), args.Error(1)
}

func (m *MockLLMProvider) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLLMProvider) Name() string {
	return "mock"
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
