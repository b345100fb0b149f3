//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"catalog-cache/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCacheConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCatalogCacheRepository,
	ProvideReviewCacheRepository,
	ProvideTracer,
	ProvideCatalogAPI,
	ProvideLLMProvider,
	ProvideEventPublisher,
	ProvideCollector,
	ProvideMetrics,
	ProvideCacheMetrics,
	ProvideCatalogFetcher,
	ProvideCatalogCacheService,
	ProvideReviewCacheService,
	ProvideAdminService,
	ProvideQueryBus,
	ProvideCommandBus,
	ProvideErrorHandler,
	ProvideRateLimiter,
	ProvideAdminValidator,
	ProvideReadiness,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
