package rest

import (
	"context"
	"net/http"
	"time"

	"catalog-cache/application/commands/bus"
	querybus "catalog-cache/application/queries/bus"
	"catalog-cache/interfaces/http/rest/handlers"
	"catalog-cache/interfaces/http/rest/middleware"
	"catalog-cache/pkg/auth"
	"catalog-cache/pkg/common"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RouterOptions carries the optional pieces of the HTTP surface
type RouterOptions struct {
	EnableCORS     bool
	AllowedOrigins []string
	// AdminValidator guards /admin. Nil disables admin auth.
	AdminValidator *auth.JWTValidator
	RateLimiter    *auth.IPRateLimiter
	Collector      *observability.Collector
	Readiness      ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	opts         RouterOptions
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	opts RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		opts:         opts,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Collector != nil {
		router.Use(middleware.Metrics(rt.opts.Collector))
	}

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Collector != nil {
		router.Handle("/metrics", promhttp.HandlerFor(rt.opts.Collector.Registry(), promhttp.HandlerOpts{}))
	}

	catalogHandler := handlers.NewCatalogHandler(rt.queryBus, rt.errorHandler, rt.logger)
	reviewHandler := handlers.NewReviewHandler(rt.queryBus, rt.errorHandler, rt.logger)
	adminHandler := handlers.NewAdminHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rt.opts.RateLimiter != nil {
				r.Use(middleware.RateLimit(rt.opts.RateLimiter, rt.errorHandler, rt.logger))
			}

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/channels", catalogHandler.SearchChannels)
				r.Get("/videos", catalogHandler.SearchVideos)
				r.Get("/channels/{channelID}/videos", catalogHandler.ChannelVideos)
			})
			r.Post("/reviews/{entityID}", reviewHandler.GetReview)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(rt.opts.AdminValidator, rt.errorHandler, rt.logger))

			r.Get("/cache/stats", adminHandler.Stats)
			r.Delete("/cache/entries", adminHandler.ClearEntry)
			r.Delete("/cache", adminHandler.ClearType)
			r.Delete("/reviews/{entityID}", adminHandler.ClearReview)
			r.Delete("/reviews", adminHandler.ClearReviews)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.Handle(w, r, apperrors.NewNotFoundError("route "+r.URL.Path))
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.opts.Readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := rt.opts.Readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errorHandler.HandleStatus(w, r, http.StatusServiceUnavailable, "Not ready")
			return
		}
	}
	common.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
