package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"
	"catalog-cache/domain/events"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SearchResult is the outcome of a cached catalog operation.
// Upstream failures are reported in Error/ErrorKind with empty Results, never as a Go error.
type SearchResult[T any] struct {
	Results     T                      `json:"results"`
	FromCache   bool                   `json:"fromCache"`
	CachedAt    *time.Time             `json:"cachedAt,omitempty"`
	ExpiresAt   *time.Time             `json:"expiresAt,omitempty"`
	TimesReused int                    `json:"timesReused"`
	Error       string                 `json:"error,omitempty"`
	ErrorKind   apperrors.UpstreamKind `json:"errorKind,omitempty"`
}

// SearchChannelsRequest asks for channels matching a query
type SearchChannelsRequest struct {
	Query        string
	MaxResults   int
	ForceRefresh bool
}

// SearchVideosRequest asks for videos matching a query, optionally filtered
type SearchVideosRequest struct {
	Query        string
	MaxResults   int
	Duration     valueobjects.DurationClass
	ChannelID    string
	ForceRefresh bool
}

// GetChannelVideosRequest asks for a channel's uploads
type GetChannelVideosRequest struct {
	ChannelID    string
	MaxVideos    int
	ForceRefresh bool
}

type payloadCodec[T any] struct {
	wrap   func(T) entities.Payload
	unwrap func(entities.Payload) (T, bool)
	empty  func() T
}

var channelsCodec = payloadCodec[[]entities.Channel]{
	wrap: func(v []entities.Channel) entities.Payload { return entities.ChannelsPayload(v) },
	unwrap: func(p entities.Payload) ([]entities.Channel, bool) {
		v, ok := p.(entities.ChannelsPayload)
		return []entities.Channel(v), ok
	},
	empty: func() []entities.Channel { return []entities.Channel{} },
}

var videosCodec = payloadCodec[[]entities.Video]{
	wrap: func(v []entities.Video) entities.Payload { return entities.VideosPayload(v) },
	unwrap: func(p entities.Payload) ([]entities.Video, bool) {
		v, ok := p.(entities.VideosPayload)
		return []entities.Video(v), ok
	},
	empty: func() []entities.Video { return []entities.Video{} },
}

var channelVideosCodec = payloadCodec[entities.ChannelVideos]{
	wrap: func(v entities.ChannelVideos) entities.Payload { return entities.ChannelVideosPayload(v) },
	unwrap: func(p entities.Payload) (entities.ChannelVideos, bool) {
		v, ok := p.(entities.ChannelVideosPayload)
		return entities.ChannelVideos(v), ok
	},
	empty: func() entities.ChannelVideos { return entities.ChannelVideos{Items: []entities.Video{}} },
}

// CatalogCacheService serves catalog searches from the cache, falling back to the upstream catalog
type CatalogCacheService struct {
	repo      ports.CatalogCacheRepository
	fetcher   *CatalogFetcher
	cfg       *config.CacheConfig
	metrics   ports.CacheMetrics
	publisher ports.EventPublisher
	tracer    *observability.Tracer
	logger    *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewCatalogCacheService creates a new catalog cache service. publisher may be nil.
func NewCatalogCacheService(
	repo ports.CatalogCacheRepository,
	fetcher *CatalogFetcher,
	cfg *config.CacheConfig,
	metrics ports.CacheMetrics,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *CatalogCacheService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &CatalogCacheService{
		repo:      repo,
		fetcher:   fetcher,
		cfg:       cfg,
		metrics:   metrics,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *CatalogCacheService) WithClock(now func() time.Time) *CatalogCacheService {
	s.now = now
	return s
}

// WithTracer annotates the active trace segment with each lookup's outcome
func (s *CatalogCacheService) WithTracer(tracer *observability.Tracer) *CatalogCacheService {
	s.tracer = tracer
	return s
}

// SearchChannels returns channels matching the query
func (s *CatalogCacheService) SearchChannels(ctx context.Context, req SearchChannelsRequest) (*SearchResult[[]entities.Channel], error) {
	maxResults, err := s.resolveMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	key := valueobjects.NewSearchKey(valueobjects.SearchTypeChannels, req.Query, maxResults)
	query := strings.ToLower(strings.TrimSpace(req.Query))
	return serve(ctx, s, key, s.cfg.ChannelSearchTTL, req.ForceRefresh, channelsCodec,
		func(ctx context.Context) (Fetched[[]entities.Channel], error) {
			return s.fetcher.SearchChannels(ctx, query, maxResults)
		})
}

// SearchVideos returns classified videos matching the query and filters
func (s *CatalogCacheService) SearchVideos(ctx context.Context, req SearchVideosRequest) (*SearchResult[[]entities.Video], error) {
	maxResults, err := s.resolveMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	duration := req.Duration
	if duration == "" {
		duration = valueobjects.DurationAny
	}

	key := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, req.Query, maxResults,
		valueobjects.DurationFilter(duration),
		valueobjects.ChannelFilter(req.ChannelID),
	)
	query := strings.ToLower(strings.TrimSpace(req.Query))
	return serve(ctx, s, key, s.cfg.VideoSearchTTL, req.ForceRefresh, videosCodec,
		func(ctx context.Context) (Fetched[[]entities.Video], error) {
			return s.fetcher.SearchVideos(ctx, query, maxResults, duration, req.ChannelID)
		})
}

// GetChannelVideos returns up to MaxVideos classified uploads of a channel.
// The cache key and the shared in-flight fetch are per channel only, so a
// listing collected under a smaller MaxVideos is served to any caller until it
// expires. Callers that need a larger listing pass ForceRefresh.
func (s *CatalogCacheService) GetChannelVideos(ctx context.Context, req GetChannelVideosRequest) (*SearchResult[entities.ChannelVideos], error) {
	if req.ChannelID == "" {
		return nil, apperrors.NewValidationError("channel ID is required")
	}
	maxVideos := req.MaxVideos
	if maxVideos == 0 {
		maxVideos = s.cfg.DefaultMaxVideos
	}
	if maxVideos < 0 || maxVideos > s.cfg.MaxVideosLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("maxVideos must be between 1 and %d", s.cfg.MaxVideosLimit))
	}

	key := valueobjects.NewChannelVideosKey(req.ChannelID)
	return serve(ctx, s, key, s.cfg.ChannelVideosTTL, req.ForceRefresh, channelVideosCodec,
		func(ctx context.Context) (Fetched[entities.ChannelVideos], error) {
			return s.fetcher.ChannelVideos(ctx, req.ChannelID, maxVideos)
		})
}

func (s *CatalogCacheService) resolveMaxResults(n int) (int, error) {
	if n == 0 {
		return s.cfg.DefaultMaxResults, nil
	}
	if n < 0 || n > s.cfg.MaxResultsLimit {
		return 0, apperrors.NewValidationError(fmt.Sprintf("maxResults must be between 1 and %d", s.cfg.MaxResultsLimit))
	}
	return n, nil
}

type missOutcome[T any] struct {
	value T
	entry *entities.CacheEntry
}

func serve[T any](
	ctx context.Context,
	s *CatalogCacheService,
	key valueobjects.SearchKey,
	ttl time.Duration,
	forceRefresh bool,
	codec payloadCodec[T],
	fetch func(context.Context) (Fetched[T], error),
) (*SearchResult[T], error) {
	logger := s.logger.With(zap.String("key", key.Composite()))
	s.tracer.AddAnnotation(ctx, "search_type", string(key.SearchType))

	if forceRefresh {
		s.metrics.RecordLookup(key.SearchType, ports.OutcomeBypass)
		s.tracer.AddAnnotation(ctx, "cache_outcome", ports.OutcomeBypass)
	} else {
		now := s.now()
		entry, err := s.repo.Lookup(ctx, key, now)
		if err != nil {
			return nil, fmt.Errorf("cache lookup %s: %w", key.Composite(), err)
		}
		if entry != nil {
			if value, ok := codec.unwrap(entry.Payload); ok {
				if err := s.repo.RecordHit(ctx, entry, now); err != nil {
					logger.Warn("Failed to record cache hit", zap.Error(err))
				}
				entry.RecordHit(now)
				s.metrics.RecordLookup(key.SearchType, ports.OutcomeHit)
				s.tracer.AddAnnotation(ctx, "cache_outcome", ports.OutcomeHit)
				logger.Debug("Cache hit", zap.Int("times_reused", entry.TimesReused))
				return &SearchResult[T]{
					Results:     value,
					FromCache:   true,
					CachedAt:    timePtr(entry.CachedAt),
					ExpiresAt:   timePtr(entry.ExpiresAt),
					TimesReused: entry.TimesReused,
				}, nil
			}
			logger.Warn("Cached payload has unexpected shape, treating as miss")
		}
		s.metrics.RecordLookup(key.SearchType, ports.OutcomeMiss)
		s.tracer.AddAnnotation(ctx, "cache_outcome", ports.OutcomeMiss)
	}

	v, err, shared := s.group.Do(key.Composite(), func() (interface{}, error) {
		// shared work outlives any single caller
		return loadAndStore(context.WithoutCancel(ctx), s, key, ttl, codec, fetch, logger)
	})
	if shared {
		s.metrics.RecordSharedCall(key.SearchType)
	}

	if err != nil {
		if up, ok := apperrors.AsUpstreamError(err); ok {
			return &SearchResult[T]{
				Results:   codec.empty(),
				FromCache: false,
				Error:     softMessage(up),
				ErrorKind: up.Kind,
			}, nil
		}
		return nil, err
	}

	outcome := v.(missOutcome[T])
	result := &SearchResult[T]{Results: outcome.value, FromCache: false}
	if outcome.entry != nil {
		result.CachedAt = timePtr(outcome.entry.CachedAt)
		result.ExpiresAt = timePtr(outcome.entry.ExpiresAt)
	}
	return result, nil
}

// loadAndStore calls upstream and appends a new generation when every detail batch succeeded
func loadAndStore[T any](
	ctx context.Context,
	s *CatalogCacheService,
	key valueobjects.SearchKey,
	ttl time.Duration,
	codec payloadCodec[T],
	fetch func(context.Context) (Fetched[T], error),
	logger *zap.Logger,
) (missOutcome[T], error) {
	fetched, err := fetch(ctx)
	if err != nil {
		if apperrors.IsQuotaExceeded(err) {
			s.metrics.RecordQuotaExceeded(key.SearchType)
			logger.Warn("Catalog quota exceeded", zap.Error(err))
			s.publish(ctx, events.NewQuotaExceeded(key, err.Error(), s.now()))
		} else {
			logger.Warn("Catalog call failed", zap.Error(err))
		}
		return missOutcome[T]{}, err
	}

	out := missOutcome[T]{value: fetched.Value}
	if !fetched.Enriched {
		logger.Warn("Result incomplete, not cached")
		return out, nil
	}

	entry, err := entities.NewCacheEntry(key, codec.wrap(fetched.Value), s.now(), ttl)
	if err != nil {
		return missOutcome[T]{}, fmt.Errorf("build cache entry: %w", err)
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		logger.Error("Failed to persist cache entry", zap.Error(err))
		return out, nil
	}

	logger.Info("Cached catalog result",
		zap.String("entry_id", entry.ID),
		zap.Time("expires_at", entry.ExpiresAt),
	)
	out.entry = entry
	return out, nil
}

func (s *CatalogCacheService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}

func softMessage(up *apperrors.UpstreamError) string {
	if up.Kind == apperrors.UpstreamQuotaExceeded {
		return "Catalog API quota exceeded: " + up.Message
	}
	if up.Message != "" {
		return up.Message
	}
	return up.Error()
}

func timePtr(t time.Time) *time.Time {
	return &t
}
