package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("LLM_PROVIDER", LLMProviderMock)
	t.Setenv("ENVIRONMENT", "development")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 6*time.Hour, cfg.Cache.VideoSearchTTL)
	assert.Equal(t, time.Hour, cfg.Cache.ChannelVideosTTL)
	assert.Equal(t, 500, cfg.Cache.DefaultMaxVideos)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("LLM_PROVIDER", LLMProviderMock)

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "YOUTUBE_API_KEY")
}

func TestLoadConfig_OpenAIRequiresKey(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", LLMProviderOpenAI)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadConfig_ProductionRequiresJWTSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfig_YAMLOverlayThenEnv(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
videoSearchTTL: 2h
channelVideosTTL: 30m
defaultMaxVideos: 200
regionCode: GB
`), 0o600))
	t.Setenv("CACHE_CONFIG_FILE", path)
	t.Setenv("CHANNEL_VIDEOS_TTL", "45m")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Cache.VideoSearchTTL)
	assert.Equal(t, 45*time.Minute, cfg.Cache.ChannelVideosTTL, "env wins over file")
	assert.Equal(t, 200, cfg.Cache.DefaultMaxVideos)
	assert.Equal(t, "GB", cfg.Cache.RegionCode)
	assert.Equal(t, 6*time.Hour, cfg.Cache.ChannelSearchTTL, "absent keys keep defaults")
}

func TestLoadConfig_InvalidOverlay(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detailBatchSize: 80\n"), 0o600))
	t.Setenv("CACHE_CONFIG_FILE", path)

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "detail batch size")
}

func TestLoadConfig_MissingOverlayFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}
