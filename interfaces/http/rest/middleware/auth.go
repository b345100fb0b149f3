package middleware

import (
	"errors"
	"net/http"
	"strings"

	"catalog-cache/pkg/auth"
	"catalog-cache/pkg/common"
	apperrors "catalog-cache/pkg/errors"

	"go.uber.org/zap"
)

// RequireAdmin validates a bearer token and requires the admin role.
// A nil validator lets every request through; DI only passes nil in development.
func RequireAdmin(validator *auth.JWTValidator, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				respondUnauthorized(errorHandler, w, r, "Missing authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", common.ClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(errorHandler, w, r, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(errorHandler, w, r, "Invalid token signature")
				default:
					respondUnauthorized(errorHandler, w, r, "Invalid token")
				}
				return
			}

			if !claims.HasRole(auth.RoleAdmin) {
				errorHandler.Handle(w, r, apperrors.NewForbiddenError("Insufficient permissions"))
				return
			}

			logger.Debug("Admin request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(auth.SetClaimsInContext(r.Context(), claims)))
		})
	}
}

// RateLimit rejects callers that exhaust their per-IP budget
func RateLimit(limiter *auth.IPRateLimiter, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := common.ClientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				errorHandler.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errorHandler.HandleStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func respondUnauthorized(errorHandler *apperrors.ErrorHandler, w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="catalog-cache"`)
	errorHandler.Handle(w, r, apperrors.NewUnauthorizedError(message))
}
