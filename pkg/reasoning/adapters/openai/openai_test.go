package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexlapax/canvasmem/pkg/reasoning"
	"github.com/lexlapax/canvasmem/pkg/reasoning/adapters/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOpenAIServer creates a mock OpenAI server for testing. The last request
// body is written to captured when it is non-nil.
func mockOpenAIServer(t *testing.T, statusCode int, responseBody string, captured *[]byte) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			*captured = body
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, err := w.Write([]byte(responseBody))
		require.NoError(t, err)
	}))
	return server
}

func testSchema(t *testing.T) reasoning.Schema {
	type output struct {
		StyleRules []string `json:"styleRules"`
		Content    []string `json:"content"`
	}
	s, err := reasoning.SchemaFor[output]("generate_reflections", "Generate reflections")
	require.NoError(t, err)
	return s
}

func chatResponse(content string) string {
	encoded, _ := json.Marshal(content)
	return `{
		"id": "chatcmpl-123",
		"object": "chat.completion",
		"created": 1677858242,
		"model": "gpt-4o",
		"choices": [
			{
				"message": {
					"role": "assistant",
					"content": ` + string(encoded) + `
				},
				"finish_reason": "stop",
				"index": 0
			}
		],
		"usage": {
			"prompt_tokens": 10,
			"completion_tokens": 10,
			"total_tokens": 20
		}
	}`
}

// TestGenerateStructured_Success tests a schema-constrained completion.
func TestGenerateStructured_Success(t *testing.T) {
	var captured []byte
	server := mockOpenAIServer(t, http.StatusOK, chatResponse(`{"styleRules":["Be concise"],"content":["Likes concise code"]}`), &captured)
	defer server.Close()

	adapter, err := openai.NewOpenAIAdapter(openai.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	messages := []reasoning.Message{
		{Role: reasoning.RoleSystem, Content: "system prompt"},
		{Role: reasoning.RoleUser, Content: "user prompt"},
	}
	out, err := adapter.GenerateStructured(context.Background(), messages, testSchema(t), reasoning.WithTemperature(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"styleRules":["Be concise"],"content":["Likes concise code"]}`, string(out))

	var body struct {
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string         `json:"name"`
				Strict bool           `json:"strict"`
				Schema map[string]any `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	require.NoError(t, json.Unmarshal(captured, &body), "body=%s", captured)

	assert.Equal(t, openai.DefaultModel, body.Model)
	require.NotNil(t, body.Temperature, "temperature must be sent even when zero")
	assert.InDelta(t, 0.0, *body.Temperature, 1e-6)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "system prompt", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "json_schema", body.ResponseFormat.Type)
	assert.Equal(t, "generate_reflections", body.ResponseFormat.JSONSchema.Name)
	assert.True(t, body.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, false, body.ResponseFormat.JSONSchema.Schema["additionalProperties"])
}

// TestGenerateStructured_Temperature checks that non-zero temperatures are sent as given.
func TestGenerateStructured_Temperature(t *testing.T) {
	var captured []byte
	server := mockOpenAIServer(t, http.StatusOK, chatResponse(`{"styleRules":[],"content":[]}`), &captured)
	defer server.Close()

	adapter, err := openai.NewOpenAIAdapter(openai.Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.GenerateStructured(context.Background(), []reasoning.Message{{Role: reasoning.RoleUser, Content: "hi"}}, testSchema(t), reasoning.WithTemperature(0.5))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	require.Contains(t, body, "temperature")
	assert.InDelta(t, 0.5, body["temperature"], 1e-6)
}

// TestGenerateStructured_APIError tests handling of API errors.
func TestGenerateStructured_APIError(t *testing.T) {
	errorResponse := `{
		"error": {
			"message": "Rate limit exceeded",
			"type": "rate_limit_error",
			"param": null,
			"code": "rate_limit_exceeded"
		}
	}`

	server := mockOpenAIServer(t, http.StatusTooManyRequests, errorResponse, nil)
	defer server.Close()

	adapter, err := openai.NewOpenAIAdapter(openai.Config{
		APIKey:    "test-key",
		ChatModel: "gpt-4o",
		BaseURL:   server.URL,
	})
	require.NoError(t, err)

	out, err := adapter.GenerateStructured(context.Background(), []reasoning.Message{{Role: reasoning.RoleUser, Content: "hi"}}, testSchema(t))
	assert.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "Rate limit")
}

// TestGenerateStructured_NoChoices tests an empty choice list.
func TestGenerateStructured_NoChoices(t *testing.T) {
	server := mockOpenAIServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","model":"gpt-4o","choices":[]}`, nil)
	defer server.Close()

	adapter, err := openai.NewOpenAIAdapter(openai.Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.GenerateStructured(context.Background(), []reasoning.Message{{Role: reasoning.RoleUser, Content: "hi"}}, testSchema(t))
	assert.ErrorIs(t, err, openai.ErrNoChoices)
}

// TestInitialization tests initialization with different configurations.
func TestInitialization(t *testing.T) {
	adapter, err := openai.NewOpenAIAdapter(openai.Config{APIKey: "test-key"})
	assert.NoError(t, err)
	require.NotNil(t, adapter)
	assert.Equal(t, openai.DefaultModel, adapter.Model())

	adapter, err = openai.NewOpenAIAdapter(openai.Config{APIKey: "test-key", ChatModel: "gpt-4o-mini"})
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", adapter.Model())

	adapter, err = openai.NewOpenAIAdapter(openai.Config{APIKey: ""})
	assert.ErrorIs(t, err, openai.ErrEmptyAPIKey)
	assert.Nil(t, adapter)
}
