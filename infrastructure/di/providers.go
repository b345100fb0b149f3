package di

import (
	"context"
	"fmt"

	"catalog-cache/application/commands/bus"
	commandhandlers "catalog-cache/application/commands/handlers"
	"catalog-cache/application/ports"
	querybus "catalog-cache/application/queries/bus"
	queryhandlers "catalog-cache/application/queries/handlers"
	"catalog-cache/application/services"
	domainconfig "catalog-cache/domain/config"
	"catalog-cache/infrastructure/catalog/youtube"
	"catalog-cache/infrastructure/config"
	"catalog-cache/infrastructure/llm"
	"catalog-cache/infrastructure/messaging/eventbridge"
	"catalog-cache/infrastructure/persistence/dynamodb"
	"catalog-cache/infrastructure/persistence/memory"
	"catalog-cache/interfaces/http/rest"
	"catalog-cache/pkg/auth"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = level
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "catalog-cache"), zap.String("environment", cfg.Environment)), nil
}

// ProvideCacheConfig exposes the domain tunables
func ProvideCacheConfig(cfg *config.Config) *domainconfig.CacheConfig {
	return cfg.Cache
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCatalogCacheRepository selects the store backend
func ProvideCatalogCacheRepository(
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ports.CatalogCacheRepository {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("Using in-memory catalog cache; entries are lost on restart")
		return memory.NewCatalogCacheRepository()
	}
	return dynamodb.NewCatalogCacheRepository(
		client,
		cfg.DynamoDBTable,
		cfg.IndexName,
		cfg.Cache.ExpiredRetention,
		logger,
	)
}

// ProvideReviewCacheRepository selects the store backend
func ProvideReviewCacheRepository(
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ports.ReviewCacheRepository {
	if cfg.StoreBackend == config.StoreMemory {
		return memory.NewReviewCacheRepository()
	}
	return dynamodb.NewReviewCacheRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideTracer returns nil when tracing is disabled; a nil tracer traces nothing
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("catalog-cache")
}

// ProvideCatalogAPI creates the upstream catalog client
func ProvideCatalogAPI(ctx context.Context, cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) (ports.CatalogAPI, error) {
	clientCfg := youtube.DefaultClientConfig(cfg.YouTubeAPIKey)
	clientCfg.BaseURL = cfg.YouTubeBaseURL
	clientCfg.Timeout = cfg.HTTPTimeout
	clientCfg.RegionCode = cfg.Cache.RegionCode
	clientCfg.RelevanceLanguage = cfg.Cache.RelevanceLanguage

	client, err := youtube.NewClient(ctx, clientCfg, tracer, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideLLMProvider selects the review provider
func ProvideLLMProvider(cfg *config.Config, tracer *observability.Tracer, logger *zap.Logger) (ports.LLMProvider, error) {
	switch cfg.LLMProvider {
	case config.LLMProviderMock:
		logger.Info("Using mock review provider")
		return llm.NewMockProvider(), nil
	default:
		provider, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: 2 * cfg.HTTPTimeout,
		}, tracer, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
}

// ProvideEventPublisher returns nil when events are disabled
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("catalog_cache")
}

// ProvideMetrics creates the CloudWatch reporter. Without ENABLE_METRICS it is a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideCacheMetrics fans cache telemetry out to Prometheus and CloudWatch
func ProvideCacheMetrics(collector *observability.Collector, metrics *observability.Metrics) ports.CacheMetrics {
	return observability.Tee{collector, metrics}
}

// ProvideCatalogFetcher creates the upstream fetch pipeline
func ProvideCatalogFetcher(
	api ports.CatalogAPI,
	cacheCfg *domainconfig.CacheConfig,
	metrics ports.CacheMetrics,
	logger *zap.Logger,
) *services.CatalogFetcher {
	return services.NewCatalogFetcher(api, cacheCfg, metrics, logger)
}

// ProvideCatalogCacheService creates the catalog cache orchestrator
func ProvideCatalogCacheService(
	repo ports.CatalogCacheRepository,
	fetcher *services.CatalogFetcher,
	cacheCfg *domainconfig.CacheConfig,
	metrics ports.CacheMetrics,
	publisher ports.EventPublisher,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.CatalogCacheService {
	return services.NewCatalogCacheService(repo, fetcher, cacheCfg, metrics, publisher, logger).WithTracer(tracer)
}

// ProvideReviewCacheService creates the review cache
func ProvideReviewCacheService(
	repo ports.ReviewCacheRepository,
	provider ports.LLMProvider,
	cacheCfg *domainconfig.CacheConfig,
	metrics ports.CacheMetrics,
	logger *zap.Logger,
) *services.ReviewCacheService {
	return services.NewReviewCacheService(repo, provider, cacheCfg, metrics, logger)
}

// ProvideAdminService creates the operator service
func ProvideAdminService(
	catalogRepo ports.CatalogCacheRepository,
	reviewRepo ports.ReviewCacheRepository,
	cacheCfg *domainconfig.CacheConfig,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.AdminService {
	return services.NewAdminService(catalogRepo, reviewRepo, cacheCfg, publisher, logger)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	cache *services.CatalogCacheService,
	reviews *services.ReviewCacheService,
	admin *services.AdminService,
	collector *observability.Collector,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.MetricsMiddleware(observability.QueryObservers{collector, metrics}),
		querybus.LoggingMiddleware(logger),
	)
	if err := queryhandlers.NewCatalogQueryHandler(cache, reviews, admin, logger).Register(queryBus); err != nil {
		return nil, fmt.Errorf("register catalog queries: %w", err)
	}
	return queryBus, nil
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(admin *services.AdminService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := commandhandlers.NewClearCacheHandler(admin, logger).Register(commandBus); err != nil {
		return nil, fmt.Errorf("register cache commands: %w", err)
	}
	return commandBus, nil
}

// ProvideErrorHandler creates the HTTP error mapper
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRateLimiter creates the per-IP limiter for public routes
func ProvideRateLimiter(cfg *config.Config) *auth.IPRateLimiter {
	return auth.NewIPRateLimiter(auth.NewPerMinuteLimiter(cfg.RateLimitPerMinute))
}

// ProvideAdminValidator returns nil only in development without a JWT secret
func ProvideAdminValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, apperrors.NewConfigurationError("JWT_SECRET is required outside development")
		}
		logger.Warn("JWT_SECRET not set; admin routes are unauthenticated")
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideReadiness checks that the cache table is reachable
func ProvideReadiness(client *awsdynamodb.Client, cfg *config.Config) rest.ReadinessCheck {
	if cfg.StoreBackend == config.StoreMemory {
		return nil
	}
	return func(ctx context.Context) error {
		_, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{
			TableName: aws.String(cfg.DynamoDBTable),
		})
		return err
	}
}

// ProvideRouter assembles the HTTP surface
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	validator *auth.JWTValidator,
	limiter *auth.IPRateLimiter,
	readiness rest.ReadinessCheck,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(commandBus, queryBus, errorHandler, rest.RouterOptions{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AdminValidator: validator,
		RateLimiter:    limiter,
		Collector:      collector,
		Readiness:      readiness,
	}, logger)
}
