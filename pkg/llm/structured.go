package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/jemygraw/deepresearch/pkg/config"
)

// StructuredClient produces completions constrained to a JSON schema, so
// planner and grading replies parse into typed structs instead of free text.
type StructuredClient struct {
	client *sdk.Client
	model  string
}

var _ StructuredCompleter = (*StructuredClient)(nil)

// NewStructuredClient builds the schema-constrained client from the
// configuration.
func NewStructuredClient(cfg config.LLMConfig) *StructuredClient {
	clientConfig := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &StructuredClient{
		client: sdk.NewClientWithConfig(clientConfig),
		model:  cfg.ChatModel,
	}
}

// CompleteStructured asks for a reply matching the JSON schema generated from
// out's type and unmarshals the reply into out. name labels the schema for
// the API.
func (s *StructuredClient) CompleteStructured(ctx context.Context, name, prompt string, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("generate schema for %s: %w", name, err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model: s.model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("structured completion %s: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("structured completion %s: no choices returned", name)
	}

	content := CleanJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("parse structured completion %s: %w", name, err)
	}
	return nil
}

// CleanJSON strips a markdown code fence around a JSON reply. Models wrap
// JSON in fences often enough that every parse goes through this first.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// CleanLabel normalizes a single-word classification reply: lowercased, with
// surrounding space, quotes and trailing punctuation removed.
func CleanLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}
