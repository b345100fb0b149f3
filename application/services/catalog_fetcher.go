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
	domainservices "catalog-cache/domain/services"
	apperrors "catalog-cache/pkg/errors"

	"go.uber.org/zap"
)

// CatalogFetcher turns raw catalog calls into enriched, classified results.
// It knows nothing about caching.
type CatalogFetcher struct {
	api     ports.CatalogAPI
	cfg     *config.CacheConfig
	metrics ports.CacheMetrics
	logger  *zap.Logger
}

// NewCatalogFetcher creates a new catalog fetcher
func NewCatalogFetcher(api ports.CatalogAPI, cfg *config.CacheConfig, metrics ports.CacheMetrics, logger *zap.Logger) *CatalogFetcher {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &CatalogFetcher{
		api:     api,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetched is an upstream result with a flag telling whether every detail batch succeeded
type Fetched[T any] struct {
	Value    T
	Enriched bool
}

// SearchChannels runs one channel search and enriches the hits with their detail records
func (f *CatalogFetcher) SearchChannels(ctx context.Context, query string, maxResults int) (Fetched[[]entities.Channel], error) {
	stubs, err := f.search(ctx, ports.SearchRequest{
		Query:      query,
		Kind:       entities.EntityKindChannel,
		MaxResults: maxResults,
	})
	if err != nil {
		return Fetched[[]entities.Channel]{}, err
	}

	details, enriched, err := f.details(ctx, entities.EntityKindChannel, stubIDs(stubs))
	if err != nil {
		return Fetched[[]entities.Channel]{}, err
	}

	return Fetched[[]entities.Channel]{
		Value:    domainservices.EnrichChannels(stubs, details),
		Enriched: enriched,
	}, nil
}

// SearchVideos runs one video search and enriches and classifies the hits
func (f *CatalogFetcher) SearchVideos(ctx context.Context, query string, maxResults int, duration valueobjects.DurationClass, channelID string) (Fetched[[]entities.Video], error) {
	stubs, err := f.search(ctx, ports.SearchRequest{
		Query:      query,
		Kind:       entities.EntityKindVideo,
		MaxResults: maxResults,
		Duration:   duration,
		ChannelID:  channelID,
	})
	if err != nil {
		return Fetched[[]entities.Video]{}, err
	}

	details, enriched, err := f.details(ctx, entities.EntityKindVideo, stubIDs(stubs))
	if err != nil {
		return Fetched[[]entities.Video]{}, err
	}

	return Fetched[[]entities.Video]{
		Value:    domainservices.EnrichVideos(stubs, details),
		Enriched: enriched,
	}, nil
}

// ChannelVideos enumerates a channel's uploads, up to maxVideos items, and classifies them
func (f *CatalogFetcher) ChannelVideos(ctx context.Context, channelID string, maxVideos int) (Fetched[entities.ChannelVideos], error) {
	collectionID, err := f.uploadsCollection(ctx, channelID)
	if err != nil {
		return Fetched[entities.ChannelVideos]{}, err
	}

	items, total, complete, err := f.collect(ctx, collectionID, maxVideos)
	if err != nil {
		return Fetched[entities.ChannelVideos]{}, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VideoID)
	}
	details, enriched, err := f.details(ctx, entities.EntityKindVideo, ids)
	if err != nil {
		return Fetched[entities.ChannelVideos]{}, err
	}

	return Fetched[entities.ChannelVideos]{
		Value: entities.ChannelVideos{
			Items:      domainservices.EnrichCollection(items, details),
			TotalCount: total,
		},
		Enriched: enriched && complete,
	}, nil
}

func (f *CatalogFetcher) search(ctx context.Context, req ports.SearchRequest) ([]entities.SearchStub, error) {
	start := time.Now()
	stubs, err := f.api.Search(ctx, req)
	f.observe("search", start, err)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Kind, err)
	}
	return stubs, nil
}

// details fetches detail records in chunks. A quota error aborts; any other
// failure is logged and leaves the affected ids without a detail record.
func (f *CatalogFetcher) details(ctx context.Context, kind entities.EntityKind, ids []string) (domainservices.DetailIndex, bool, error) {
	index := make(domainservices.DetailIndex, len(ids))
	enriched := true

	batch := f.cfg.DetailBatchSize
	if batch <= 0 || batch > ports.MaxDetailBatch {
		batch = ports.MaxDetailBatch
	}

	for startIdx := 0; startIdx < len(ids); startIdx += batch {
		end := startIdx + batch
		if end > len(ids) {
			end = len(ids)
		}

		start := time.Now()
		records, err := f.api.EntityDetails(ctx, kind, ids[startIdx:end])
		f.observe("details", start, err)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				return nil, false, fmt.Errorf("%s details: %w", kind, err)
			}
			f.logger.Warn("Detail lookup failed, continuing without details",
				zap.String("kind", string(kind)),
				zap.Int("batch_size", end-startIdx),
				zap.Error(err),
			)
			enriched = false
			continue
		}

		for id, detail := range domainservices.IndexDetails(records) {
			index[id] = detail
		}
	}

	return index, enriched, nil
}

// uploadsCollection resolves a channel's upload collection from its detail record,
// falling back to the UC -> UU id convention
func (f *CatalogFetcher) uploadsCollection(ctx context.Context, channelID string) (string, error) {
	start := time.Now()
	records, err := f.api.EntityDetails(ctx, entities.EntityKindChannel, []string{channelID})
	f.observe("details", start, err)
	if err != nil {
		if apperrors.IsQuotaExceeded(err) {
			return "", fmt.Errorf("resolve uploads for %s: %w", channelID, err)
		}
		f.logger.Warn("Channel lookup failed, using uploads id convention",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
	}

	for _, rec := range records {
		if rec.ID == channelID && rec.ContentDetails.UploadsPlaylist != "" {
			return rec.ContentDetails.UploadsPlaylist, nil
		}
	}

	if strings.HasPrefix(channelID, "UC") {
		return "UU" + strings.TrimPrefix(channelID, "UC"), nil
	}
	return "", apperrors.NewUpstreamFailure(fmt.Sprintf("no uploads collection for channel %s", channelID), 0, err)
}

// collect pages through a collection until the token runs out or maxItems are gathered.
// complete is false when the page bound stopped it with a token still pending.
func (f *CatalogFetcher) collect(ctx context.Context, collectionID string, maxItems int) (items []entities.CollectionItem, total int, complete bool, err error) {
	pageSize := f.cfg.CollectionPageSize
	maxPages := f.cfg.MaxPages(maxItems)

	items = make([]entities.CollectionItem, 0, maxItems)
	token := ""
	complete = true

	for page := 0; len(items) < maxItems; page++ {
		if page == maxPages {
			f.logger.Warn("Collection page bound reached with a token pending",
				zap.String("collection_id", collectionID),
				zap.Int("pages", page),
				zap.Int("items", len(items)),
			)
			complete = false
			break
		}

		size := pageSize
		if remaining := maxItems - len(items); remaining < size {
			size = remaining
		}

		start := time.Now()
		p, pageErr := f.api.CollectionItems(ctx, collectionID, token, size)
		f.observe("collection", start, pageErr)
		if pageErr != nil {
			return nil, 0, false, fmt.Errorf("collection %s page %d: %w", collectionID, page+1, pageErr)
		}

		items = append(items, p.Items...)
		total = p.TotalCount
		if p.NextPageToken == "" {
			break
		}
		token = p.NextPageToken
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}

	f.logger.Debug("Collected collection items",
		zap.String("collection_id", collectionID),
		zap.Int("items", len(items)),
		zap.Int("total", total),
	)
	return items, total, complete, nil
}

func (f *CatalogFetcher) observe(operation string, start time.Time, err error) {
	status := "ok"
	switch {
	case apperrors.IsQuotaExceeded(err):
		status = "quota_exceeded"
	case err != nil:
		status = "error"
	}
	f.metrics.RecordUpstreamCall(operation, status, time.Since(start))
}

func stubIDs(stubs []entities.SearchStub) []string {
	ids := make([]string, 0, len(stubs))
	for _, s := range stubs {
		ids = append(ids, s.ID)
	}
	return ids
}
