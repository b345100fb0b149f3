package memory

import (
	"context"
	"testing"
	"time"

	"catalog-cache/domain/core/entities"
	"catalog-cache/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videosEntry(t *testing.T, key valueobjects.SearchKey, title string, cachedAt time.Time, ttl time.Duration) *entities.CacheEntry {
	t.Helper()
	entry, err := entities.NewCacheEntry(key, entities.VideosPayload{{ID: title, Title: title}}, cachedAt, ttl)
	require.NoError(t, err)
	return entry
}

func TestCatalogCacheRepository_LookupReturnsFreshestValid(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := NewCatalogCacheRepository()
	key := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, "dinosaurs", 20)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, videosEntry(t, key, "oldest", base, time.Hour)))
	require.NoError(t, repo.Insert(ctx, videosEntry(t, key, "newest", base.Add(30*time.Minute), time.Hour)))
	require.NoError(t, repo.Insert(ctx, videosEntry(t, key, "middle", base.Add(10*time.Minute), time.Hour)))

	// Act
	got, err := repo.Lookup(ctx, key, base.Add(45*time.Minute))

	// Assert
	require.NoError(t, err)
	require.NotNil(t, got)
	payload := got.Payload.(entities.VideosPayload)
	assert.Equal(t, "newest", payload[0].Title)
}

func TestCatalogCacheRepository_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogCacheRepository()
	key := valueobjects.NewChannelVideosKey("UCabc")
	cachedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry, err := entities.NewCacheEntry(key, entities.ChannelVideosPayload{Items: []entities.Video{}}, cachedAt, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, entry))

	hit, err := repo.Lookup(ctx, key, entry.ExpiresAt.Add(-time.Millisecond))
	require.NoError(t, err)
	assert.NotNil(t, hit)

	miss, err := repo.Lookup(ctx, key, entry.ExpiresAt)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCatalogCacheRepository_RecordHitAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogCacheRepository()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	videoKey := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, "trains", 20)
	channelKey := valueobjects.NewSearchKey(valueobjects.SearchTypeChannels, "trains", 10)

	require.NoError(t, repo.Insert(ctx, videosEntry(t, videoKey, "a", now, time.Hour)))
	require.NoError(t, repo.Insert(ctx, videosEntry(t, videoKey, "expired", now.Add(-2*time.Hour), time.Hour)))
	chEntry, err := entities.NewCacheEntry(channelKey, entities.ChannelsPayload{}, now, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, chEntry))

	for i := 0; i < 3; i++ {
		hit, err := repo.Lookup(ctx, videoKey, now)
		require.NoError(t, err)
		require.NoError(t, repo.RecordHit(ctx, hit, now.Add(time.Duration(i)*time.Second)))
	}

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[valueobjects.SearchTypeVideos].Total)
	assert.Equal(t, 1, stats[valueobjects.SearchTypeVideos].Valid)
	assert.Equal(t, 3, stats[valueobjects.SearchTypeVideos].TotalReuses)
	assert.Equal(t, 1, stats[valueobjects.SearchTypeChannels].Total)

	hit, err := repo.Lookup(ctx, videoKey, now)
	require.NoError(t, err)
	assert.Equal(t, 3, hit.TimesReused)
	assert.Equal(t, now.Add(2*time.Second), hit.LastAccessedAt)
}

func TestCatalogCacheRepository_Deletes(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogCacheRepository()
	now := time.Now()
	k1 := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, "cats", 20)
	k2 := valueobjects.NewSearchKey(valueobjects.SearchTypeVideos, "dogs", 20)

	require.NoError(t, repo.Insert(ctx, videosEntry(t, k1, "1", now, time.Hour)))
	require.NoError(t, repo.Insert(ctx, videosEntry(t, k1, "2", now, time.Hour)))
	require.NoError(t, repo.Insert(ctx, videosEntry(t, k2, "3", now, time.Hour)))

	n, err := repo.DeleteKey(ctx, k1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.DeleteAll(ctx, valueobjects.SearchTypeChannels)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = repo.DeleteAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReviewCacheRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReviewCacheRepository()
	now := time.Now()

	miss, err := repo.Lookup(ctx, "vid1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	entry, err := entities.NewReviewEntry("vid1", entities.ContentReview{SafetyRating: entities.SafetySafe}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, entry))

	hit, err := repo.Lookup(ctx, "vid1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	require.NoError(t, repo.RecordHit(ctx, hit, now.Add(time.Minute)))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.TotalReuses)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
