package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when Config.ChatModel is empty.
const DefaultModel = "gpt-4o"

var (
	// ErrEmptyAPIKey is returned when the API key is missing.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrNoChoices is returned when the API answers without any choice.
	ErrNoChoices = errors.New("no response choices returned")
)

// Config holds the configuration for the OpenAI adapter.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// ChatModel is the model to use for chat completions, e.g., "gpt-4o".
	ChatModel string
	// MaxTokens is the default response limit, 0 leaves it to the API.
	MaxTokens int
	// BaseURL is the base URL for the OpenAI API (for testing).
	BaseURL string
}

// OpenAIAdapter implements the reasoning.Engine interface using the OpenAI API.
type OpenAIAdapter struct {
	client    *openai.Client
	chatModel string
	maxTokens int
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(config Config) (*OpenAIAdapter, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	// Set default model if not specified
	if config.ChatModel == "" {
		config.ChatModel = DefaultModel
	}

	// Create OpenAI client configuration
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIAdapter{
		client:    openai.NewClientWithConfig(clientConfig),
		chatModel: config.ChatModel,
		maxTokens: config.MaxTokens,
	}, nil
}

// Model returns the chat model the adapter was constructed with.
func (a *OpenAIAdapter) Model() string {
	return a.chatModel
}

// GenerateStructured implements the reasoning.Engine interface using a
// strict json_schema response format.
func (a *OpenAIAdapter) GenerateStructured(ctx context.Context, messages []reasoning.Message, schema reasoning.Schema, opts ...reasoning.Option) (json.RawMessage, error) {
	options := reasoning.ApplyOptions(opts...)

	// Override model if specified in options
	model := a.chatModel
	if options.Model != "" {
		model = options.Model
	}
	maxTokens := a.maxTokens
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}

	// go-openai omits a zero temperature, which the API reads as its default of 1
	temperature := float32(options.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	request := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        schema.Name,
				Description: schema.Description,
				Schema:      schema.Definition,
				Strict:      true,
			},
		},
	}

	log.DebugContext(ctx, "Requesting structured output", "provider", "openai", "model", model, "schema", schema.Name, "messages", len(messages))

	response, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		log.ErrorContext(ctx, "Failed to generate chat completion", "provider", "openai", "error", err)
		return nil, fmt.Errorf("openai: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w", ErrNoChoices)
	}

	choice := response.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("openai: model refused: %s", choice.Message.Refusal)
	}
	content := strings.TrimSpace(choice.Message.Content)

	log.DebugContext(ctx, "Received structured output",
		"provider", "openai",
		"tokens", response.Usage.TotalTokens,
		"model", model)

	return json.RawMessage(content), nil
}

var _ reasoning.Engine = (*OpenAIAdapter)(nil)
