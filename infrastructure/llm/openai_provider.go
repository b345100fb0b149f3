package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalog-cache/application/ports"
	apperrors "catalog-cache/pkg/errors"
	"catalog-cache/pkg/observability"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// OpenAIConfig configures the chat-completions provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIProvider calls an OpenAI-compatible chat-completions endpoint
type OpenAIProvider struct {
	cfg     OpenAIConfig
	client  *openai.Client
	breaker *gobreaker.CircuitBreaker
	tracer  *observability.Tracer
	logger  *zap.Logger
}

var _ ports.LLMProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider. A missing API key is a configuration error.
func NewOpenAIProvider(cfg OpenAIConfig, tracer *observability.Tracer, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigurationError("OPENAI_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = tracer.InstrumentClient(&http.Client{Timeout: cfg.Timeout})

	return &OpenAIProvider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openai",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		tracer: tracer,
		logger: logger,
	}, nil
}

// IsAvailable reports whether the provider is configured
func (p *OpenAIProvider) IsAvailable() bool {
	return p.cfg.APIKey != ""
}

// Name is the model recorded on generated reviews
func (p *OpenAIProvider) Name() string {
	return p.cfg.Model
}

// Complete sends one chat completion and returns the first choice's content
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, options ports.CompletionOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
	}
	if options.SystemPrompt != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.SystemPrompt,
		})
	}
	req.Messages = append(req.Messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	if options.Format == "json" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.tracer.TraceFunction(ctx, "openai.chat", func(ctx context.Context) error {
			var err error
			content, err = p.send(ctx, req)
			return err
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", apperrors.NewUnavailableError("openai")
	}
	return content, err
}

func (p *OpenAIProvider) send(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewParseError("chat completion returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors: an undecodable body is a parse failure,
// everything else is a failing external dependency.
func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &apiErr):
		p.logger.Warn("Chat completion failed",
			zap.Int("status", apiErr.HTTPStatusCode),
			zap.String("type", apiErr.Type),
			zap.String("message", apiErr.Message),
		)
	case errors.As(err, &reqErr):
		p.logger.Warn("Chat completion failed", zap.Int("status", reqErr.HTTPStatusCode), zap.Error(reqErr.Err))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return apperrors.NewParseError("invalid chat completion body", err)
	}
	return apperrors.NewExternalError("openai", err)
}
