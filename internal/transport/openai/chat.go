package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// ChatConfig holds chat-completion settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// Chat generates completions via the OpenAI-compatible /chat/completions endpoint.
type Chat struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewChat creates a chat-completion client.
func NewChat(cfg *ChatConfig) *Chat {
	return &Chat{
		client:      newClient(&Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Complete sends a system instruction and one user message and returns the first choice.
// Failures and empty responses wrap domain.ErrSynthesis.
func (c *Chat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrSynthesis, ctxErr)
		}
		return "", parseAPIError("chat", err, domain.ErrSynthesis)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrSynthesis)
	}

	c.logger.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
