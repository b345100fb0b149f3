package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-cache/application/ports/mocks"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	"catalog-cache/infrastructure/persistence/memory"
	apperrors "catalog-cache/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fencedReview = "```json\n{\"safetyRating\":\"safe\",\"minimumAge\":4,\"summary\":\"A gentle dinosaur song.\",\"concerns\":[],\"categories\":[\"music\",\"animals\"],\"educationalValue\":\"medium\"}\n```"

func newReviewFixture() (*ReviewCacheService, *mocks.MockLLMProvider, *memory.ReviewCacheRepository) {
	provider := new(mocks.MockLLMProvider)
	provider.On("IsAvailable").Return(true).Maybe()
	repo := memory.NewReviewCacheRepository()
	svc := NewReviewCacheService(repo, provider, config.DefaultCacheConfig(), nil, zap.NewNop())
	return svc, provider, repo
}

func TestGetReview_MissThenHit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, provider, _ := newReviewFixture()
	provider.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Dino Song") && strings.Contains(p, "Kids Channel")
	}), mock.Anything).Return(fencedReview, nil).Once()
	req := ReviewRequest{EntityID: "vid42", Title: "Dino Song", ChannelTitle: "Kids Channel"}

	// Act
	first, err := svc.GetReview(ctx, req)
	require.NoError(t, err)
	second, err := svc.GetReview(ctx, req)
	require.NoError(t, err)

	// Assert
	assert.False(t, first.FromCache)
	assert.Equal(t, entities.SafetySafe, first.Review.SafetyRating)
	assert.Equal(t, 4, first.Review.MinimumAge)
	assert.Equal(t, "mock", first.Review.Model)
	assert.Equal(t, "v1", first.Review.PromptVersion)

	assert.True(t, second.FromCache)
	assert.Equal(t, 1, second.TimesReused)
	assert.Equal(t, first.Review, second.Review)
	provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGetReview_ParseFailurePropagates(t *testing.T) {
	ctx := context.Background()
	svc, provider, repo := newReviewFixture()
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("I think this is fine!", nil)

	_, err := svc.GetReview(ctx, ReviewRequest{EntityID: "vid1", Title: "Something"})

	require.Error(t, err)
	assert.True(t, apperrors.IsParse(err))
	assert.True(t, errors.Is(err, apperrors.ErrReviewParse))
	stats, statErr := repo.Stats(ctx)
	require.NoError(t, statErr)
	assert.Zero(t, stats.Entries)
}

func TestGetReview_ProviderErrorIsExternal(t *testing.T) {
	svc, provider, _ := newReviewFixture()
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("connection reset"))

	_, err := svc.GetReview(context.Background(), ReviewRequest{EntityID: "vid1", Title: "Something"})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestGetReview_ConcurrentMissesShareOneCall(t *testing.T) {
	svc, provider, _ := newReviewFixture()
	release := make(chan struct{})
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(fencedReview, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetReview(context.Background(), ReviewRequest{EntityID: "vid7", Title: "Dino"})
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	provider.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGetReview_Validation(t *testing.T) {
	svc, _, _ := newReviewFixture()

	_, err := svc.GetReview(context.Background(), ReviewRequest{Title: "x"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.GetReview(context.Background(), ReviewRequest{EntityID: "v"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseReview(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"bare json", `{"safetyRating":"caution","minimumAge":8,"summary":"s"}`, false},
		{"json fence", fencedReview, false},
		{"plain fence", "```\n{\"safetyRating\":\"unsafe\",\"minimumAge\":18,\"summary\":\"s\"}\n```", false},
		{"not json", "sure, here you go", true},
		{"bad rating", `{"safetyRating":"great","minimumAge":3}`, true},
		{"age out of range", `{"safetyRating":"safe","minimumAge":40}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := ParseReview(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrReviewParse))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, review.Concerns)
			assert.NotNil(t, review.Categories)
		})
	}
}
