package config

import (
	"fmt"
	"time"
)

// CacheConfig holds the tunable operational parameters of the catalog cache
type CacheConfig struct {
	// Time-to-live per search type
	ChannelSearchTTL time.Duration `yaml:"channelSearchTTL"`
	VideoSearchTTL   time.Duration `yaml:"videoSearchTTL"`
	ChannelVideosTTL time.Duration `yaml:"channelVideosTTL"`

	// Upstream limits
	DetailBatchSize    int `yaml:"detailBatchSize"`
	CollectionPageSize int `yaml:"collectionPageSize"`
	DefaultMaxVideos   int `yaml:"defaultMaxVideos"`
	MaxVideosLimit     int `yaml:"maxVideosLimit"`
	DefaultMaxResults  int `yaml:"defaultMaxResults"`
	MaxResultsLimit    int `yaml:"maxResultsLimit"`

	// Search quality parameters
	RegionCode        string `yaml:"regionCode"`
	RelevanceLanguage string `yaml:"relevanceLanguage"`

	// Cost model used by the stats report
	SearchQuotaCost     int     `yaml:"searchQuotaCost"`
	DetailQuotaCost     int     `yaml:"detailQuotaCost"`
	ReviewCostPerCall   float64 `yaml:"reviewCostPerCall"`
	ReviewPromptVersion string  `yaml:"reviewPromptVersion"`

	// Housekeeping: expired rows keep a DynamoDB TTL this long after expiry
	ExpiredRetention time.Duration `yaml:"expiredRetention"`
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		ChannelSearchTTL: 6 * time.Hour,
		VideoSearchTTL:   6 * time.Hour,
		ChannelVideosTTL: 1 * time.Hour,

		DetailBatchSize:    50,
		CollectionPageSize: 50,
		DefaultMaxVideos:   500,
		MaxVideosLimit:     2000,
		DefaultMaxResults:  20,
		MaxResultsLimit:    50,

		RegionCode:        "US",
		RelevanceLanguage: "en",

		SearchQuotaCost:     100,
		DetailQuotaCost:     1,
		ReviewCostPerCall:   0.0025,
		ReviewPromptVersion: "v1",

		ExpiredRetention: 7 * 24 * time.Hour,
	}
}

// MaxPages bounds a collection enumeration for the given item cap. Any page
// that carries a next token must add at least one item, so more pages than
// items means the upstream is looping.
func (c *CacheConfig) MaxPages(maxVideos int) int {
	return maxVideos + 1
}

// Validate checks the configuration for values the cache cannot operate with
func (c *CacheConfig) Validate() error {
	if c.ChannelSearchTTL <= 0 || c.VideoSearchTTL <= 0 || c.ChannelVideosTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.DetailBatchSize <= 0 || c.DetailBatchSize > 50 {
		return fmt.Errorf("detail batch size must be between 1 and 50, got %d", c.DetailBatchSize)
	}
	if c.CollectionPageSize <= 0 || c.CollectionPageSize > 50 {
		return fmt.Errorf("collection page size must be between 1 and 50, got %d", c.CollectionPageSize)
	}
	if c.DefaultMaxVideos <= 0 || c.DefaultMaxVideos > c.MaxVideosLimit {
		return fmt.Errorf("default max videos must be between 1 and %d", c.MaxVideosLimit)
	}
	if c.DefaultMaxResults <= 0 || c.DefaultMaxResults > c.MaxResultsLimit {
		return fmt.Errorf("default max results must be between 1 and %d", c.MaxResultsLimit)
	}
	return nil
}
