package services

import (
	"context"
	"fmt"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/valueobjects"
	"catalog-cache/domain/events"
	apperrors "catalog-cache/pkg/errors"

	"go.uber.org/zap"
)

// TypeReport summarizes one search type with an estimate of quota units the cache saved
type TypeReport struct {
	Total               int `json:"total"`
	Valid               int `json:"valid"`
	Expired             int `json:"expired"`
	TotalReuses         int `json:"totalReuses"`
	EstimatedQuotaSaved int `json:"estimatedQuotaSaved"`
}

// ReviewReport summarizes the review cache with estimated model spend
type ReviewReport struct {
	Entries            int     `json:"entries"`
	TotalReuses        int     `json:"totalReuses"`
	EstimatedCostSpent float64 `json:"estimatedCostSpent"`
	EstimatedCostSaved float64 `json:"estimatedCostSaved"`
}

// StatsReport is the operator view of both caches
type StatsReport struct {
	GeneratedAt         time.Time                               `json:"generatedAt"`
	Catalog             map[valueobjects.SearchType]TypeReport `json:"catalog"`
	TotalEntries        int                                     `json:"totalEntries"`
	ValidEntries        int                                     `json:"validEntries"`
	TotalReuses         int                                     `json:"totalReuses"`
	EstimatedQuotaSaved int                                     `json:"estimatedQuotaSaved"`
	Reviews             ReviewReport                            `json:"reviews"`
}

// AdminService exposes cache statistics and clearing to operators
type AdminService struct {
	catalogRepo ports.CatalogCacheRepository
	reviewRepo  ports.ReviewCacheRepository
	cfg         *config.CacheConfig
	publisher   ports.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdminService creates a new admin service. publisher may be nil.
func NewAdminService(
	catalogRepo ports.CatalogCacheRepository,
	reviewRepo ports.ReviewCacheRepository,
	cfg *config.CacheConfig,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		catalogRepo: catalogRepo,
		reviewRepo:  reviewRepo,
		cfg:         cfg,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Stats builds the statistics report
func (s *AdminService) Stats(ctx context.Context) (*StatsReport, error) {
	now := s.now()
	byType, err := s.catalogRepo.Stats(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}
	reviews, err := s.reviewRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	report := &StatsReport{
		GeneratedAt: now,
		Catalog:     make(map[valueobjects.SearchType]TypeReport, len(valueobjects.AllSearchTypes)),
	}
	for _, t := range valueobjects.AllSearchTypes {
		st := byType[t]
		tr := TypeReport{
			Total:               st.Total,
			Valid:               st.Valid,
			Expired:             st.Total - st.Valid,
			TotalReuses:         st.TotalReuses,
			EstimatedQuotaSaved: st.TotalReuses * s.quotaPerMiss(t),
		}
		report.Catalog[t] = tr
		report.TotalEntries += tr.Total
		report.ValidEntries += tr.Valid
		report.TotalReuses += tr.TotalReuses
		report.EstimatedQuotaSaved += tr.EstimatedQuotaSaved
	}

	report.Reviews = ReviewReport{
		Entries:            reviews.Entries,
		TotalReuses:        reviews.TotalReuses,
		EstimatedCostSpent: float64(reviews.Entries) * s.cfg.ReviewCostPerCall,
		EstimatedCostSaved: float64(reviews.TotalReuses) * s.cfg.ReviewCostPerCall,
	}
	return report, nil
}

// quotaPerMiss estimates the upstream units one miss of the given type costs
func (s *AdminService) quotaPerMiss(t valueobjects.SearchType) int {
	switch t {
	case valueobjects.SearchTypeChannels, valueobjects.SearchTypeVideos:
		return s.cfg.SearchQuotaCost + s.cfg.DetailQuotaCost
	case valueobjects.SearchTypeChannelVideos:
		pages := 1
		if s.cfg.CollectionPageSize > 0 {
			pages = (s.cfg.DefaultMaxVideos + s.cfg.CollectionPageSize - 1) / s.cfg.CollectionPageSize
		}
		// channel lookup, one call per page, one detail call per page-sized batch
		return s.cfg.DetailQuotaCost * (1 + 2*pages)
	default:
		return 0
	}
}

// ClearEntry removes every generation of one key
func (s *AdminService) ClearEntry(ctx context.Context, key valueobjects.SearchKey) (int, error) {
	if err := key.Validate(); err != nil {
		return 0, apperrors.NewValidationError(err.Error())
	}
	deleted, err := s.catalogRepo.DeleteKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", key.Composite(), err)
	}
	s.logger.Info("Cleared cache entry", zap.String("key", key.Composite()), zap.Int("deleted", deleted))
	s.publish(ctx, events.NewCatalogCacheCleared(key.SearchType, key.Composite(), deleted, s.now()))
	return deleted, nil
}

// ClearType removes every row of a search type, or every row when searchType is empty
func (s *AdminService) ClearType(ctx context.Context, searchType valueobjects.SearchType) (int, error) {
	if searchType != "" && !searchType.IsValid() {
		return 0, apperrors.NewValidationError(fmt.Sprintf("invalid search type: %q", searchType))
	}
	deleted, err := s.catalogRepo.DeleteAll(ctx, searchType)
	if err != nil {
		return 0, fmt.Errorf("clear %q: %w", searchType, err)
	}
	s.logger.Info("Cleared cache", zap.String("search_type", string(searchType)), zap.Int("deleted", deleted))
	s.publish(ctx, events.NewCatalogCacheCleared(searchType, "", deleted, s.now()))
	return deleted, nil
}

// ClearReview removes the review of one entity
func (s *AdminService) ClearReview(ctx context.Context, entityID string) (int, error) {
	if entityID == "" {
		return 0, apperrors.NewValidationError("entity ID is required")
	}
	deleted, err := s.reviewRepo.Delete(ctx, entityID)
	if err != nil {
		return 0, fmt.Errorf("clear review %s: %w", entityID, err)
	}
	s.logger.Info("Cleared review", zap.String("entity_id", entityID), zap.Int("deleted", deleted))
	s.publish(ctx, events.NewReviewCacheCleared(entityID, deleted, s.now()))
	return deleted, nil
}

// ClearReviews removes every review
func (s *AdminService) ClearReviews(ctx context.Context) (int, error) {
	deleted, err := s.reviewRepo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear reviews: %w", err)
	}
	s.logger.Info("Cleared reviews", zap.Int("deleted", deleted))
	s.publish(ctx, events.NewReviewCacheCleared("", deleted, s.now()))
	return deleted, nil
}

func (s *AdminService) publish(ctx context.Context, event events.DomainEvent) {
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
