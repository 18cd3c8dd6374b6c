// Package genai provides GenAI-enhanced chat replies using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/capshealth/healthbot/internal/models"
)

// Completion tuning applied to every chat call.
const (
	DefaultModel            = openai.ChatModelGPT4TurboPreview
	DefaultMaxTokens        = 500
	DefaultTemperature      = 0.7
	DefaultPresencePenalty  = 0.1
	DefaultFrequencyPenalty = 0.1
)

// ClientInterface defines the reply generation operation used by the API
// server, allowing tests to substitute a fake.
type ClientInterface interface {
	GenerateReply(ctx context.Context, hc models.HealthcareContext, ps models.PrivacyStyle, userInput string) (string, error)
}

// Opts holds client configuration options.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat completion model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient initializes a GenAI client from options, falling back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	slog.Debug("genai.NewClient: creating OpenAI client", "model", cfg.Model)
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.Model,
	}, nil
}

// GenerateReply produces the bot reply for one user message, with the system
// prompt assembled from the healthcare context and privacy style.
func (c *Client) GenerateReply(ctx context.Context, hc models.HealthcareContext, ps models.PrivacyStyle, userInput string) (string, error) {
	systemPrompt, err := BuildSystemPrompt(hc, ps)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userInput),
		},
		MaxTokens:        openai.Int(DefaultMaxTokens),
		Temperature:      openai.Float(DefaultTemperature),
		PresencePenalty:  openai.Float(DefaultPresencePenalty),
		FrequencyPenalty: openai.Float(DefaultFrequencyPenalty),
	})
	if err != nil {
		slog.Error("genai.GenerateReply: chat completion failed", "error", err, "healthcareContext", hc)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.GenerateReply: no choices returned", "healthcareContext", hc)
		return "", fmt.Errorf("no choices returned")
	}
	reply := resp.Choices[0].Message.Content
	slog.Debug("genai.GenerateReply: reply generated", "healthcareContext", hc, "replyLength", len(reply))
	return reply, nil
}
