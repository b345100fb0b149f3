package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// ContextKey represents a context key type
type ContextKey string

// ContextKeyClientIP holds the caller address used for rate limiting
const ContextKeyClientIP ContextKey = "client_ip"

// RequestIDFrom returns chi's request id, falling back to upstream headers
func RequestIDFrom(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}

// WithClientIP adds the client IP to context
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// ClientIP returns the caller address. chi's RealIP middleware has already
// rewritten RemoteAddr from X-Forwarded-For / X-Real-IP when it runs first.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ContextKeyClientIP).(string); ok && ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
