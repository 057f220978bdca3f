package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
)

// DefaultModel is the model used when Config.Model is empty.
const DefaultModel = "claude-3-5-sonnet-20240620"

// DefaultMaxTokens caps the response when neither the config nor the request sets a limit.
const DefaultMaxTokens = 4096

var (
	// ErrEmptyAPIKey is returned when the API key is missing.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrNoToolCall is returned when the model answers without calling the schema tool.
	ErrNoToolCall = errors.New("model response contains no tool call")
)

// Config holds the configuration for the Anthropic adapter.
type Config struct {
	// APIKey is the Anthropic API key.
	APIKey string
	// Model is the model to use, e.g. "claude-3-5-sonnet-20240620".
	Model string
	// MaxTokens is the default response limit.
	MaxTokens int
	// BaseURL is the base URL for the Anthropic API (for testing).
	BaseURL string
	// HTTPClient replaces the default HTTP client (for testing).
	HTTPClient *http.Client
}

// AnthropicAdapter implements the reasoning.Engine interface using the
// Anthropic Messages API. Structured output is obtained by forcing a call to a
// single tool whose input schema is the requested schema.
type AnthropicAdapter struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(config Config) (*AnthropicAdapter, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}

	return &AnthropicAdapter{
		client:    anthropic.NewClient(opts...),
		model:     config.Model,
		maxTokens: config.MaxTokens,
	}, nil
}

// Model returns the model the adapter was constructed with.
func (a *AnthropicAdapter) Model() string {
	return a.model
}

// GenerateStructured implements the reasoning.Engine interface.
func (a *AnthropicAdapter) GenerateStructured(ctx context.Context, messages []reasoning.Message, schema reasoning.Schema, opts ...reasoning.Option) (json.RawMessage, error) {
	options := reasoning.ApplyOptions(opts...)

	model := a.model
	if options.Model != "" {
		model = options.Model
	}
	maxTokens := a.maxTokens
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}

	properties, required, err := schema.Properties()
	if err != nil {
		return nil, err
	}

	// System messages travel out of band; everything else is a user turn
	var system []anthropic.TextBlockParam
	var conv []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == reasoning.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			continue
		}
		conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
	}

	tool := anthropic.ToolParam{
		Name: schema.Name,
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: properties,
			Required:   required,
		},
	}
	if schema.Description != "" {
		tool.Description = anthropic.String(schema.Description)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		System:      system,
		Messages:    conv,
		Temperature: anthropic.Float(options.Temperature),
		Tools:       []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
		},
	}

	log.DebugContext(ctx, "Requesting structured output", "provider", "anthropic", "model", model, "schema", schema.Name, "messages", len(messages))

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		log.ErrorContext(ctx, "Failed to generate structured output", "provider", "anthropic", "error", err)
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			if v.Name != schema.Name {
				continue
			}
			log.DebugContext(ctx, "Received structured output",
				"provider", "anthropic",
				"input_tokens", msg.Usage.InputTokens,
				"output_tokens", msg.Usage.OutputTokens)
			return json.RawMessage(v.JSON.Input.Raw()), nil
		}
	}

	return nil, fmt.Errorf("anthropic: %w (stop reason %q)", ErrNoToolCall, msg.StopReason)
}

var _ reasoning.Engine = (*AnthropicAdapter)(nil)
