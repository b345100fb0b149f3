package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SafetyRating is the overall verdict of a content review
type SafetyRating string

const (
	SafetySafe    SafetyRating = "safe"
	SafetyCaution SafetyRating = "caution"
	SafetyUnsafe  SafetyRating = "unsafe"
)

// ContentReview is the structured output of the generative classifier
type ContentReview struct {
	SafetyRating     SafetyRating `json:"safetyRating"`
	MinimumAge       int          `json:"minimumAge"`
	Summary          string       `json:"summary"`
	Concerns         []string     `json:"concerns"`
	Categories       []string     `json:"categories"`
	EducationalValue string       `json:"educationalValue,omitempty"`
	Model            string       `json:"model,omitempty"`
	PromptVersion    string       `json:"promptVersion,omitempty"`
}

// Validate checks the fields a consumer relies on
func (r ContentReview) Validate() error {
	switch r.SafetyRating {
	case SafetySafe, SafetyCaution, SafetyUnsafe:
	default:
		return fmt.Errorf("invalid safety rating %q", r.SafetyRating)
	}
	if r.MinimumAge < 0 || r.MinimumAge > 21 {
		return fmt.Errorf("minimum age out of range: %d", r.MinimumAge)
	}
	return nil
}

// ReviewEntry is a persisted content review. It has no expiry.
type ReviewEntry struct {
	ID             string
	EntityID       string
	Review         ContentReview
	CachedAt       time.Time
	TimesReused    int
	LastAccessedAt time.Time
}

// NewReviewEntry creates a review entry for an entity
func NewReviewEntry(entityID string, review ContentReview, now time.Time) (*ReviewEntry, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity ID is required")
	}
	cachedAt := now.Truncate(time.Millisecond)
	return &ReviewEntry{
		ID:             uuid.New().String(),
		EntityID:       entityID,
		Review:         review,
		CachedAt:       cachedAt,
		LastAccessedAt: cachedAt,
	}, nil
}

// RecordHit bumps the reuse counter and access time
func (e *ReviewEntry) RecordHit(now time.Time) {
	e.TimesReused++
	if now.After(e.LastAccessedAt) {
		e.LastAccessedAt = now
	}
}
