package errors

import (
	"errors"
	"fmt"
)

// ErrReviewParse marks a model response that is not a valid content review
var ErrReviewParse = errors.New("review response could not be parsed")

// UpstreamKind classifies a failed catalog call
type UpstreamKind string

const (
	UpstreamQuotaExceeded UpstreamKind = "QUOTA_EXCEEDED"
	UpstreamFailure       UpstreamKind = "UPSTREAM_ERROR"
)

// UpstreamError is returned by catalog adapters for any non-success response
type UpstreamError struct {
	Kind       UpstreamKind
	Message    string
	StatusCode int
	Reason     string
	Cause      error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += " [" + e.Reason + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// NewQuotaExceeded creates a quota error
func NewQuotaExceeded(message string, status int, reason string) *UpstreamError {
	return &UpstreamError{Kind: UpstreamQuotaExceeded, Message: message, StatusCode: status, Reason: reason}
}

// NewUpstreamFailure creates a generic upstream error
func NewUpstreamFailure(message string, status int, cause error) *UpstreamError {
	return &UpstreamError{Kind: UpstreamFailure, Message: message, StatusCode: status, Cause: cause}
}

// AsUpstreamError extracts an UpstreamError from an error chain
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up, true
	}
	return nil, false
}

// IsQuotaExceeded reports whether err is an upstream quota rejection
func IsQuotaExceeded(err error) bool {
	up, ok := AsUpstreamError(err)
	return ok && up.Kind == UpstreamQuotaExceeded
}
