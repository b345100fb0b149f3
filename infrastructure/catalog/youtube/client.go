package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// ClientConfig configures the catalog client
type ClientConfig struct {
	APIKey string
	// BaseURL overrides the service root, e.g. "https://youtube.googleapis.com/".
	// Empty uses the library default.
	BaseURL           string
	Timeout           time.Duration
	RegionCode        string
	RelevanceLanguage string

	// Breaker settings
	BreakerMinRequests      uint32
	BreakerFailureThreshold float64
	BreakerOpenTimeout      time.Duration
}

// DefaultClientConfig returns the default client configuration for an API key
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:                  apiKey,
		Timeout:                 15 * time.Second,
		RegionCode:              "US",
		RelevanceLanguage:       "en",
		BreakerMinRequests:      5,
		BreakerFailureThreshold: 0.8,
		BreakerOpenTimeout:      60 * time.Second,
	}
}

// Client calls the YouTube Data API v3
type Client struct {
	cfg     ClientConfig
	service *ytapi.Service
	breaker *gobreaker.CircuitBreaker
	tracer  *observability.Tracer
	logger  *zap.Logger
}

var _ ports.CatalogAPI = (*Client)(nil)

// NewClient creates a catalog client. A missing API key is a configuration error.
// tracer may be nil.
func NewClient(ctx context.Context, cfg ClientConfig, tracer *observability.Tracer, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigurationError("YOUTUBE_API_KEY is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	// A caller-supplied HTTP client disables the library's own credential
	// options, so the key is attached by the transport.
	httpClient := tracer.InstrumentClient(&http.Client{
		Timeout:   cfg.Timeout,
		Transport: &transport.APIKey{Key: cfg.APIKey, Transport: http.DefaultTransport},
	})
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("catalog client: %v", err))
	}

	c := &Client{
		cfg:     cfg,
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "youtube",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Quota rejections are an account limit, not an unhealthy upstream
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.IsQuotaExceeded(err)
		},
	})
	return c, nil
}

// Search runs one search call
func (c *Client) Search(ctx context.Context, req ports.SearchRequest) ([]entities.SearchStub, error) {
	call := c.service.Search.List([]string{"snippet"}).
		Q(req.Query).
		Type(string(req.Kind)).
		MaxResults(int64(req.MaxResults)).
		SafeSearch("strict").
		Order("relevance")
	if c.cfg.RegionCode != "" {
		call = call.RegionCode(c.cfg.RegionCode)
	}
	if c.cfg.RelevanceLanguage != "" {
		call = call.RelevanceLanguage(c.cfg.RelevanceLanguage)
	}
	if req.Kind == entities.EntityKindVideo {
		call = call.VideoEmbeddable("true")
		if req.Duration.Active() {
			call = call.VideoDuration(string(req.Duration))
		}
	}
	if req.ChannelID != "" {
		call = call.ChannelId(req.ChannelID)
	}

	var resp *ytapi.SearchListResponse
	err := c.execute(ctx, "search", func(ctx context.Context) (err error) {
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	stubs := make([]entities.SearchStub, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil {
			continue
		}
		id := item.Id.VideoId
		kind := entities.EntityKindVideo
		if item.Id.Kind == "youtube#channel" {
			id = item.Id.ChannelId
			kind = entities.EntityKindChannel
		}
		if id == "" {
			continue
		}
		stubs = append(stubs, entities.SearchStub{ID: id, Kind: kind, Snippet: searchSnippet(item.Snippet)})
	}
	return stubs, nil
}

// EntityDetails fetches full channel or video records
func (c *Client) EntityDetails(ctx context.Context, kind entities.EntityKind, ids []string) ([]entities.EntityDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > ports.MaxDetailBatch {
		return nil, fmt.Errorf("detail batch of %d ids exceeds limit %d", len(ids), ports.MaxDetailBatch)
	}

	switch kind {
	case entities.EntityKindChannel:
		call := c.service.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
			Id(ids...).
			MaxResults(int64(len(ids)))
		var resp *ytapi.ChannelListResponse
		err := c.execute(ctx, "channels", func(ctx context.Context) (err error) {
			resp, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		details := make([]entities.EntityDetail, 0, len(resp.Items))
		for _, item := range resp.Items {
			details = append(details, channelDetail(item))
		}
		return details, nil

	case entities.EntityKindVideo:
		call := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails", "status"}).
			Id(ids...).
			MaxResults(int64(len(ids)))
		var resp *ytapi.VideoListResponse
		err := c.execute(ctx, "videos", func(ctx context.Context) (err error) {
			resp, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		details := make([]entities.EntityDetail, 0, len(resp.Items))
		for _, item := range resp.Items {
			details = append(details, videoDetail(item))
		}
		return details, nil

	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// CollectionItems returns one page of a playlist
func (c *Client) CollectionItems(ctx context.Context, collectionID, pageToken string, pageSize int) (*entities.CollectionPage, error) {
	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(collectionID).
		MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	var resp *ytapi.PlaylistItemListResponse
	err := c.execute(ctx, "playlistItems", func(ctx context.Context) (err error) {
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &entities.CollectionPage{
		Items:         make([]entities.CollectionItem, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	if resp.PageInfo != nil {
		page.TotalCount = int(resp.PageInfo.TotalResults)
	}
	for _, item := range resp.Items {
		if videoID := playlistVideoID(item); videoID != "" {
			page.Items = append(page.Items, entities.CollectionItem{VideoID: videoID, Snippet: playlistSnippet(item.Snippet)})
		}
	}
	return page, nil
}

// execute runs one API call through the breaker and maps its error
func (c *Client) execute(ctx context.Context, method string, call func(context.Context) error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.tracer.TraceFunction(ctx, "youtube."+method, func(ctx context.Context) error {
			if err := call(ctx); err != nil {
				return c.classify(method, err)
			}
			return nil
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewUpstreamFailure("catalog temporarily unavailable", 0, err)
	}
	return err
}

// classify maps an API or transport error onto an UpstreamError
func (c *Client) classify(method string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return apperrors.NewUpstreamFailure(fmt.Sprintf("%s request failed: %s", method, redact(err, c.cfg.APIKey)), 0, err)
	}

	upErr := classifyAPIError(apiErr)
	c.logger.Warn("Catalog request failed",
		zap.String("method", method),
		zap.Int("status", apiErr.Code),
		zap.String("kind", string(upErr.Kind)),
		zap.String("reason", upErr.Reason),
	)
	return upErr
}

func classifyAPIError(apiErr *googleapi.Error) *apperrors.UpstreamError {
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(apiErr.Code)
	}
	reason := ""
	if len(apiErr.Errors) > 0 {
		reason = apiErr.Errors[0].Reason
	}

	switch {
	case reason == "quotaExceeded" || reason == "dailyLimitExceeded":
		return apperrors.NewQuotaExceeded(message, apiErr.Code, reason)
	case apiErr.Code == http.StatusTooManyRequests:
		return apperrors.NewQuotaExceeded(message, apiErr.Code, reason)
	default:
		up := apperrors.NewUpstreamFailure(message, apiErr.Code, nil)
		up.Reason = reason
		return up
	}
}

// redact keeps the API key out of transport errors, which embed the request URL
func redact(err error, key string) string {
	if key == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), key, "REDACTED")
}
