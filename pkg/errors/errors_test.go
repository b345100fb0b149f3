package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-cache/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUpstreamError_Classification(t *testing.T) {
	quota := NewQuotaExceeded("daily quota spent", http.StatusForbidden, "quotaExceeded")
	wrapped := fmt.Errorf("search videos: %w", quota)

	assert.True(t, IsQuotaExceeded(wrapped))
	up, ok := AsUpstreamError(wrapped)
	require.True(t, ok)
	assert.Equal(t, UpstreamQuotaExceeded, up.Kind)
	assert.Contains(t, up.Error(), "quotaExceeded")

	failure := NewUpstreamFailure("boom", http.StatusInternalServerError, nil)
	assert.False(t, IsQuotaExceeded(failure))
	assert.False(t, IsQuotaExceeded(fmt.Errorf("plain")))
}

func TestAppError_Helpers(t *testing.T) {
	assert.True(t, IsConfiguration(NewConfigurationError("missing key")))
	assert.True(t, IsParse(fmt.Errorf("review: %w", NewParseError("bad json", nil))))
	assert.True(t, IsValidation(NewValidationError("q required")))

	throttled := NewThrottledError("dynamodb", fmt.Errorf("ThrottlingException"))
	assert.True(t, IsType(throttled, ErrorTypeRateLimit))
	assert.Equal(t, "dynamodb throttled the request, retry later", throttled.Message)
	assert.Equal(t, http.StatusServiceUnavailable, throttled.HTTPStatus)
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest, string(ErrorTypeValidation)},
		{"quota", NewQuotaExceeded("spent", 403, "quotaExceeded"), http.StatusTooManyRequests, string(ErrorTypeQuota)},
		{"upstream", NewUpstreamFailure("down", 500, nil), http.StatusBadGateway, string(ErrorTypeExternal)},
		{"plain", fmt.Errorf("oops"), http.StatusInternalServerError, string(ErrorTypeInternal)},
		{"deadline", fmt.Errorf("lookup: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, string(ErrorTypeTimeout)},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized, string(ErrorTypeUnauthorized)},
		{"forbidden", NewForbiddenError(""), http.StatusForbidden, string(ErrorTypeForbidden)},
		{"not found", NewNotFoundError("route"), http.StatusNotFound, string(ErrorTypeNotFound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/search/videos", nil)

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body common.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantType, body.Error.Type)
		})
	}
}

func TestErrorHandler_MiddlewareRecoversPanic(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
