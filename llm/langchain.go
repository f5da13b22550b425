package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain adapts any langchaingo llms.Model to Client.
type LangChain struct {
	model llms.Model
}

var _ Client = (*LangChain)(nil)

// NewLangChain wraps an existing langchaingo model.
func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{model: model}
}

// NewGoogleAI creates a Gemini-backed client through langchaingo's googleai provider.
func NewGoogleAI(ctx context.Context, apiKey, model string) (*LangChain, error) {
	opts := []googleai.Option{googleai.WithAPIKey(apiKey)}
	if model != "" {
		opts = append(opts, googleai.WithDefaultModel(model))
	}
	m, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create googleai model: %w", err)
	}
	return NewLangChain(m), nil
}

// NewLangChainOpenAI creates an OpenAI-compatible client through langchaingo.
// baseURL may be empty to use the public endpoint.
func NewLangChainOpenAI(apiKey, model, baseURL string) (*LangChain, error) {
	opts := []openai.Option{openai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return NewLangChain(m), nil
}

// Invoke implements the Client interface
func (c *LangChain) Invoke(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.model.GenerateContent(ctx, toLangChain(messages), llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func toLangChain(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAI:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
