package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	apperrors "catalog-cache/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const reviewSystemPrompt = `You review videos for a children's video player.
Given a video's title, description and channel, judge whether it is appropriate for children.
Respond with a single JSON object with these fields:
  "safetyRating": one of "safe", "caution", "unsafe"
  "minimumAge": integer age from 0 to 21
  "summary": one or two sentences
  "concerns": array of short strings, empty when there are none
  "categories": array of short topic labels
  "educationalValue": "none", "low", "medium" or "high"
Return only the JSON object.`

// ReviewRequest asks for the content review of one catalog entity
type ReviewRequest struct {
	EntityID     string
	Title        string
	Description  string
	ChannelTitle string
	ForceRefresh bool
}

// ReviewResult is a content review and its cache provenance
type ReviewResult struct {
	Review      entities.ContentReview `json:"review"`
	FromCache   bool                   `json:"fromCache"`
	CachedAt    time.Time              `json:"cachedAt"`
	TimesReused int                    `json:"timesReused"`
}

// ReviewCacheService caches generative content reviews by entity id. Reviews never expire.
type ReviewCacheService struct {
	repo     ports.ReviewCacheRepository
	provider ports.LLMProvider
	cfg      *config.CacheConfig
	metrics  ports.CacheMetrics
	logger   *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewReviewCacheService creates a new review cache service
func NewReviewCacheService(
	repo ports.ReviewCacheRepository,
	provider ports.LLMProvider,
	cfg *config.CacheConfig,
	metrics ports.CacheMetrics,
	logger *zap.Logger,
) *ReviewCacheService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &ReviewCacheService{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (s *ReviewCacheService) WithClock(now func() time.Time) *ReviewCacheService {
	s.now = now
	return s
}

// GetReview returns the cached review for an entity, generating one on a miss
func (s *ReviewCacheService) GetReview(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if req.EntityID == "" {
		return nil, apperrors.NewValidationError("entity ID is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("title is required")
	}

	if !req.ForceRefresh {
		entry, err := s.repo.Lookup(ctx, req.EntityID)
		if err != nil {
			return nil, fmt.Errorf("review lookup %s: %w", req.EntityID, err)
		}
		if entry != nil {
			now := s.now()
			if err := s.repo.RecordHit(ctx, entry, now); err != nil {
				s.logger.Warn("Failed to record review hit", zap.String("entity_id", req.EntityID), zap.Error(err))
			}
			entry.RecordHit(now)
			s.metrics.RecordReviewLookup(ports.OutcomeHit)
			return &ReviewResult{
				Review:      entry.Review,
				FromCache:   true,
				CachedAt:    entry.CachedAt,
				TimesReused: entry.TimesReused,
			}, nil
		}
		s.metrics.RecordReviewLookup(ports.OutcomeMiss)
	} else {
		s.metrics.RecordReviewLookup(ports.OutcomeBypass)
	}

	v, err, _ := s.group.Do(req.EntityID, func() (interface{}, error) {
		return s.generate(context.WithoutCancel(ctx), req)
	})
	if err != nil {
		return nil, err
	}
	entry := v.(*entities.ReviewEntry)
	return &ReviewResult{
		Review:      entry.Review,
		FromCache:   false,
		CachedAt:    entry.CachedAt,
		TimesReused: 0,
	}, nil
}

func (s *ReviewCacheService) generate(ctx context.Context, req ReviewRequest) (*entities.ReviewEntry, error) {
	if s.provider == nil || !s.provider.IsAvailable() {
		return nil, apperrors.NewUnavailableError("review provider")
	}

	start := time.Now()
	raw, err := s.provider.Complete(ctx, buildReviewPrompt(req), ports.CompletionOptions{
		SystemPrompt: reviewSystemPrompt,
		Temperature:  0.2,
		MaxTokens:    500,
		Format:       "json",
	})
	if err != nil {
		s.metrics.RecordUpstreamCall("review", "error", time.Since(start))
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewExternalError(s.provider.Name(), err)
	}
	s.metrics.RecordUpstreamCall("review", "ok", time.Since(start))

	review, err := ParseReview(raw)
	if err != nil {
		s.logger.Warn("Review response could not be parsed",
			zap.String("entity_id", req.EntityID),
			zap.Int("response_length", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}
	review.Model = s.provider.Name()
	review.PromptVersion = s.cfg.ReviewPromptVersion

	entry, err := entities.NewReviewEntry(req.EntityID, review, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist review %s: %w", req.EntityID, err)
	}

	s.logger.Info("Cached content review",
		zap.String("entity_id", req.EntityID),
		zap.String("safety_rating", string(review.SafetyRating)),
		zap.Int("minimum_age", review.MinimumAge),
	)
	return entry, nil
}

func buildReviewPrompt(req ReviewRequest) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(req.Title)
	b.WriteString("\nChannel: ")
	b.WriteString(req.ChannelTitle)
	b.WriteString("\nDescription:\n")
	b.WriteString(req.Description)
	return b.String()
}

// ParseReview decodes a model response, tolerating a surrounding markdown code fence
func ParseReview(raw string) (entities.ContentReview, error) {
	body := stripCodeFence(raw)

	var review entities.ContentReview
	if err := json.Unmarshal([]byte(body), &review); err != nil {
		return entities.ContentReview{}, apperrors.NewParseError("invalid review JSON", fmt.Errorf("%w: %v", apperrors.ErrReviewParse, err))
	}
	if err := review.Validate(); err != nil {
		return entities.ContentReview{}, apperrors.NewParseError("invalid review", fmt.Errorf("%w: %v", apperrors.ErrReviewParse, err))
	}
	if review.Concerns == nil {
		review.Concerns = []string{}
	}
	if review.Categories == nil {
		review.Categories = []string{}
	}
	return review, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
