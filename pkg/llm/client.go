// Package llm builds the language-model clients the agents share: a
// langchaingo chat model for plain completions and embeddings, and a
// schema-constrained client for structured outputs.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/jemygraw/deepresearch/pkg/config"
)

// Completer produces a plain-text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StructuredCompleter fills out with a completion constrained to the JSON
// schema derived from out's type.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, name, prompt string, out any) error
}

// ChatModel wraps a langchaingo model behind the Completer interface.
type ChatModel struct {
	model llms.Model
}

var _ Completer = (*ChatModel)(nil)

// NewChatModel builds the chat model from the configuration.
func NewChatModel(cfg config.LLMConfig) (*ChatModel, error) {
	model, err := newOpenAI(cfg)
	if err != nil {
		return nil, err
	}
	return &ChatModel{model: model}, nil
}

// WrapModel adapts an existing langchaingo model.
func WrapModel(model llms.Model) *ChatModel {
	return &ChatModel{model: model}
}

// Model exposes the underlying langchaingo model for callers that drive the
// message-level API directly.
func (c *ChatModel) Model() llms.Model {
	return c.model
}

// Complete generates a single completion for the prompt.
func (c *ChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	return strings.TrimSpace(completion), nil
}

// CompleteWithSystem generates a completion for the user prompt under a
// system prompt.
func (c *ChatModel) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// NewEmbedder builds the embedding client from the configuration.
func NewEmbedder(cfg config.LLMConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build embedding model: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(model)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	return embedder, nil
}

func newOpenAI(cfg config.LLMConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.ChatModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build chat model: %w", err)
	}
	return model, nil
}
