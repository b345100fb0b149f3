package ports

import "context"

// LLMProvider defines the interface for generative completion providers
type LLMProvider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
	Name() string
}

// CompletionOptions configures LLM completion requests
type CompletionOptions struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	Format       string  `json:"format"` // "json" or "text"
}
