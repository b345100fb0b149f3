package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "catalog-cache/domain/config"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// LLM providers
const (
	LLMProviderOpenAI = "openai"
	LLMProviderMock   = "mock"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - for per-type listing and clears
	EventBusName  string

	// Storage
	StoreBackend string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string
	ColdStartTimeout   int // milliseconds

	// Upstream catalog
	YouTubeAPIKey  string
	YouTubeBaseURL string // service root override; empty uses the client library default
	HTTPTimeout    time.Duration

	// Generative review provider
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Rate limiting for public catalog routes
	RateLimitPerMinute int

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
	EnableEvents  bool

	CORSAllowedOrigins []string
	MetricsNamespace   string

	// Cache tunables, optionally overlaid from CacheConfigFile
	CacheConfigFile string
	Cache           *domainconfig.CacheConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "catalog-cache")),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "catalog-cache-events"),
		StoreBackend:  getEnv("STORE_BACKEND", StoreDynamoDB),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),
		ColdStartTimeout:   getEnvInt("COLD_START_TIMEOUT", 3000),

		// Upstream catalog
		YouTubeAPIKey:  getEnv("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL: getEnv("YOUTUBE_BASE_URL", ""),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		// Review provider
		LLMProvider:   getEnv("LLM_PROVIDER", LLMProviderOpenAI),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Authentication
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "catalog-cache"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		// Logging and features
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
		EnableEvents:     getEnvBool("ENABLE_EVENTS", false),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "CatalogCache"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		CacheConfigFile: getEnv("CACHE_CONFIG_FILE", ""),
		Cache:           domainconfig.DefaultCacheConfig(),
	}

	if cfg.CacheConfigFile != "" {
		if err := loadCacheOverlay(cfg.CacheConfigFile, cfg.Cache); err != nil {
			return nil, err
		}
	}
	applyCacheEnv(cfg.Cache)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// loadCacheOverlay reads a YAML file over the cache defaults. Keys absent
// from the file keep their default values.
func loadCacheOverlay(path string, cache *domainconfig.CacheConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cache); err != nil {
		return fmt.Errorf("parse cache config %s: %w", path, err)
	}
	return nil
}

func applyCacheEnv(cache *domainconfig.CacheConfig) {
	cache.ChannelSearchTTL = getEnvDuration("CHANNEL_SEARCH_TTL", cache.ChannelSearchTTL)
	cache.VideoSearchTTL = getEnvDuration("VIDEO_SEARCH_TTL", cache.VideoSearchTTL)
	cache.ChannelVideosTTL = getEnvDuration("CHANNEL_VIDEOS_TTL", cache.ChannelVideosTTL)
	cache.DefaultMaxVideos = getEnvInt("DEFAULT_MAX_VIDEOS", cache.DefaultMaxVideos)
	cache.RegionCode = getEnv("REGION_CODE", cache.RegionCode)
	cache.RelevanceLanguage = getEnv("RELEVANCE_LANGUAGE", cache.RelevanceLanguage)
	cache.ReviewPromptVersion = getEnv("REVIEW_PROMPT_VERSION", cache.ReviewPromptVersion)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.YouTubeAPIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.LLMProvider {
	case LLMProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case LLMProviderMock:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses values like "6h" or "90s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
