package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"catalog-cache/pkg/common"

	"go.uber.org/zap"
)

// ErrorHandler turns errors into JSON responses and logs them
type ErrorHandler struct {
	logger        *zap.Logger
	debug         bool
	defaultStatus int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger:        logger,
		debug:         debug,
		defaultStatus: http.StatusInternalServerError,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	requestID := common.RequestIDFrom(r)

	if up, ok := AsUpstreamError(err); ok {
		err = h.fromUpstream(up)
	} else if !IsAppError(err) && errors.Is(err, context.DeadlineExceeded) {
		err = NewTimeoutError(r.Method + " " + r.URL.Path).WithCause(err)
	}

	appErr := GetAppError(err)
	if appErr == nil {
		h.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
		)
		info := &common.ErrorInfo{
			Type:    string(ErrorTypeInternal),
			Message: "An internal error occurred",
		}
		if h.debug {
			info.Message = err.Error()
		}
		h.send(w, h.defaultStatus, info, requestID)
		return
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = h.defaultStatus
	}

	info := &common.ErrorInfo{
		Type:    string(appErr.Type),
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	h.logError(r, appErr, status, requestID)

	if h.debug && appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		info.Details = details
	}

	h.send(w, status, info, requestID)
}

// HandleStatus sends an error response with a specific status code
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	info := &common.ErrorInfo{
		Type:    statusToErrorType(status),
		Message: message,
	}

	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
	)

	h.send(w, status, info, common.RequestIDFrom(r))
}

func (h *ErrorHandler) fromUpstream(up *UpstreamError) *AppError {
	if up.Kind == UpstreamQuotaExceeded {
		return newAppError(ErrorTypeQuota, up.Message, http.StatusTooManyRequests, up).WithCode(up.Reason)
	}
	return NewExternalError("catalog", up)
}

func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int, requestID string) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestID),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) send(w http.ResponseWriter, status int, info *common.ErrorInfo, requestID string) {
	common.Write(w, status, common.APIResponse{
		Success: false,
		Error:   info,
		Meta:    common.NewMeta(requestID),
	})
}

func statusToErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(ErrorTypeValidation)
	case http.StatusUnauthorized:
		return string(ErrorTypeUnauthorized)
	case http.StatusForbidden:
		return string(ErrorTypeForbidden)
	case http.StatusNotFound:
		return string(ErrorTypeNotFound)
	case http.StatusTooManyRequests:
		return string(ErrorTypeRateLimit)
	case http.StatusServiceUnavailable:
		return string(ErrorTypeUnavailable)
	case http.StatusBadGateway:
		return string(ErrorTypeExternal)
	default:
		return string(ErrorTypeInternal)
	}
}

// Middleware recovers panics into INTERNAL error responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
