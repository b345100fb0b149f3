package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"catalog-cache/application/ports"
	"catalog-cache/domain/core/entities"
)

// MockProvider produces deterministic keyword-based reviews for development
type MockProvider struct {
	available bool
}

// NewMockProvider creates a new mock LLM provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
	}
}

var _ ports.LLMProvider = (*MockProvider)(nil)

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// Name identifies the provider in stored reviews
func (m *MockProvider) Name() string {
	return "mock"
}

// Complete reviews the title and description found in the prompt
func (m *MockProvider) Complete(ctx context.Context, prompt string, options ports.CompletionOptions) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}

	review := m.reviewContent(strings.ToLower(prompt))
	data, err := json.Marshal(review)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type keywordRule struct {
	words    []string
	concern  string
	category string
	rating   entities.SafetyRating
	minAge   int
}

var keywordRules = []keywordRule{
	{words: []string{"gore", "murder", "horror", "violent"}, concern: "violence", category: "mature", rating: entities.SafetyUnsafe, minAge: 18},
	{words: []string{"prank", "fight", "scary"}, concern: "mild peril", rating: entities.SafetyCaution, minAge: 13},
	{words: []string{"swear", "explicit", "uncensored"}, concern: "strong language", rating: entities.SafetyUnsafe, minAge: 16},
	{words: []string{"dinosaur", "science", "fossil", "space", "math", "learn"}, category: "science"},
	{words: []string{"tutorial", "how to", "lesson", "course"}, category: "education"},
	{words: []string{"song", "music", "nursery"}, category: "music"},
	{words: []string{"cartoon", "animation", "story"}, category: "entertainment"},
}

func (m *MockProvider) reviewContent(content string) entities.ContentReview {
	review := entities.ContentReview{
		SafetyRating:     entities.SafetySafe,
		Concerns:         []string{},
		Categories:       []string{},
		EducationalValue: "low",
	}

	for _, rule := range keywordRules {
		if !containsAny(content, rule.words) {
			continue
		}
		if rule.concern != "" {
			review.Concerns = append(review.Concerns, rule.concern)
		}
		if rule.category != "" {
			review.Categories = append(review.Categories, rule.category)
		}
		if severity(rule.rating) > severity(review.SafetyRating) {
			review.SafetyRating = rule.rating
		}
		if rule.minAge > review.MinimumAge {
			review.MinimumAge = rule.minAge
		}
	}

	for _, c := range review.Categories {
		if c == "science" || c == "education" {
			review.EducationalValue = "high"
		}
	}

	switch review.SafetyRating {
	case entities.SafetySafe:
		review.Summary = "No concerning content detected."
	default:
		review.Summary = "Content flagged for: " + strings.Join(review.Concerns, ", ") + "."
	}
	return review
}

func severity(r entities.SafetyRating) int {
	switch r {
	case entities.SafetyUnsafe:
		return 2
	case entities.SafetyCaution:
		return 1
	default:
		return 0
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
