package di

import (
	"catalog-cache/application/commands/bus"
	querybus "catalog-cache/application/queries/bus"
	"catalog-cache/application/services"
	"catalog-cache/infrastructure/config"
	"catalog-cache/interfaces/http/rest"
	"catalog-cache/pkg/auth"
	"catalog-cache/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	CatalogCache *services.CatalogCacheService
	Reviews      *services.ReviewCacheService
	Admin        *services.AdminService
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Collector    *observability.Collector
	Metrics      *observability.Metrics
	RateLimiter  *auth.IPRateLimiter
	Router       *rest.Router
}
