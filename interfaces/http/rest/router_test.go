package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commandbus "catalog-cache/application/commands/bus"
	commandhandlers "catalog-cache/application/commands/handlers"
	"catalog-cache/application/ports/mocks"
	querybus "catalog-cache/application/queries/bus"
	queryhandlers "catalog-cache/application/queries/handlers"
	"catalog-cache/application/services"
	"catalog-cache/domain/config"
	"catalog-cache/domain/core/entities"
	"catalog-cache/infrastructure/persistence/memory"
	"catalog-cache/pkg/auth"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	handler   http.Handler
	api       *mocks.MockCatalogAPI
	llm       *mocks.MockLLMProvider
	validator *auth.JWTValidator
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultCacheConfig()
	api := new(mocks.MockCatalogAPI)
	llm := new(mocks.MockLLMProvider)
	catalogRepo := memory.NewCatalogCacheRepository()
	reviewRepo := memory.NewReviewCacheRepository()

	fetcher := services.NewCatalogFetcher(api, cfg, nil, logger)
	cache := services.NewCatalogCacheService(catalogRepo, fetcher, cfg, nil, nil, logger)
	reviews := services.NewReviewCacheService(reviewRepo, llm, cfg, nil, logger)
	admin := services.NewAdminService(catalogRepo, reviewRepo, cfg, nil, logger)

	qb := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewCatalogQueryHandler(cache, reviews, admin, logger).Register(qb))
	cb := commandbus.NewCommandBus()
	require.NoError(t, commandhandlers.NewClearCacheHandler(admin, logger).Register(cb))

	router := NewRouter(cb, qb, apperrors.NewErrorHandler(logger, false), opts, logger)
	return &testServer{handler: router.Setup(), api: api, llm: llm, validator: opts.AdminValidator}
}

func (s *testServer) do(t *testing.T, method, target, body string, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec, env := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/nothing-here", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(apperrors.ErrorTypeNotFound), env.Error.Type)
	assert.Contains(t, env.Error.Message, "/api/v1/nothing-here")
}

func TestRouter_ReadyFailure(t *testing.T) {
	s := newTestServer(t, RouterOptions{Readiness: func(ctx context.Context) error {
		return errors.New("table missing")
	}})

	rec, env := s.do(t, http.MethodGet, "/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
}

func TestRouter_SearchVideosValidation(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/api/v1/catalog/videos"},
		{"bad duration", "/api/v1/catalog/videos?q=dinos&duration=epic"},
		{"non-numeric maxResults", "/api/v1/catalog/videos?q=dinos&maxResults=ten"},
		{"maxResults too large", "/api/v1/catalog/videos?q=dinos&maxResults=500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.target, "", nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(apperrors.ErrorTypeValidation), env.Error.Type)
		})
	}
	s.api.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRouter_SearchChannels_QuotaIsSoft(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.api.On("Search", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewQuotaExceeded("The request cannot be completed because you have exceeded your quota.", 403, "quotaExceeded"))

	rec, env := s.do(t, http.MethodGet, "/api/v1/catalog/channels?q=dinosaurs&maxResults=5", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	var result struct {
		Results   []entities.Channel `json:"results"`
		FromCache bool               `json:"fromCache"`
		Error     string             `json:"error"`
		ErrorKind string             `json:"errorKind"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Empty(t, result.Results)
	assert.False(t, result.FromCache)
	assert.Contains(t, strings.ToLower(result.Error), "quota")
	assert.Equal(t, string(apperrors.UpstreamQuotaExceeded), result.ErrorKind)
}

func TestRouter_Review(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.llm.On("IsAvailable").Return(true)
	s.llm.On("Name").Return("mock")
	s.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("```json\n{\"safetyRating\":\"safe\",\"summary\":\"ok\",\"concerns\":[],\"categories\":[],\"educationalValue\":\"low\"}\n```", nil).Once()

	rec, env := s.do(t, http.MethodPost, "/api/v1/reviews/vid1", `{"title":"Dinosaur facts"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var first services.ReviewResult
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.False(t, first.FromCache)
	assert.Equal(t, entities.SafetySafe, first.Review.SafetyRating)

	_, env = s.do(t, http.MethodPost, "/api/v1/reviews/vid1", `{"title":"Dinosaur facts"}`, nil)
	var second services.ReviewResult
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.True(t, second.FromCache)
	s.llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestRouter_ReviewRejectsUnknownFields(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec, _ := s.do(t, http.MethodPost, "/api/v1/reviews/vid1", `{"title":"x","bogus":1}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminRequiresToken(t *testing.T) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "secret", Issuer: "catalog-cache"})
	require.NoError(t, err)
	s := newTestServer(t, RouterOptions{AdminValidator: validator})

	rec, env := s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Bearer realm="catalog-cache"`, rec.Header().Get("WWW-Authenticate"))
	require.NotNil(t, env.Error)
	assert.Equal(t, string(apperrors.ErrorTypeUnauthorized), env.Error.Type)
	assert.Equal(t, "Missing authorization header", env.Error.Message)

	viewer, err := validator.GenerateToken("someone", []string{"viewer"})
	require.NoError(t, err)
	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", "", http.Header{"Authorization": {"Bearer " + viewer}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(apperrors.ErrorTypeForbidden), env.Error.Type)

	admin, err := validator.GenerateToken("ops", []string{auth.RoleAdmin})
	require.NoError(t, err)
	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/cache/stats", "", http.Header{"Authorization": {"Bearer " + admin}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = s.do(t, http.MethodDelete, "/api/v1/admin/cache?type=videos", "", http.Header{"Authorization": {"Bearer " + admin}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":0}`, string(env.Data))
}

func TestRouter_AdminClearEntryValidation(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	rec, env := s.do(t, http.MethodDelete, "/api/v1/admin/cache/entries?type=videos&q=dinos", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(apperrors.ErrorTypeValidation), env.Error.Type)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, RouterOptions{RateLimiter: auth.NewIPRateLimiter(auth.NewPerMinuteLimiter(1))})

	rec, _ := s.do(t, http.MethodGet, "/api/v1/catalog/videos", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/catalog/videos", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, string(apperrors.ErrorTypeRateLimit), env.Error.Type)

	rec, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	collector := observability.NewCollector("catalog_cache_test")
	s := newTestServer(t, RouterOptions{Collector: collector})
	s.do(t, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `catalog_cache_test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
