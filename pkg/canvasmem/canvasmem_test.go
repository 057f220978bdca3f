package canvasmem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexlapax/canvasmem/pkg/config"
	"github.com/lexlapax/canvasmem/pkg/errors"
	reasoningAnthropic "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/anthropic"
	reasoningMock "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/mock"
	reasoningOpenAI "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/openai"
	"github.com/lexlapax/canvasmem/pkg/reflection"
	"github.com/lexlapax/canvasmem/pkg/store/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, response string) (*Client, *reasoningMock.MockEngine) {
	engine := reasoningMock.NewMockEngine(reasoningMock.WithDefaultResponse(response))
	client, err := NewClient(memory.NewMemoryStore(), engine)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, engine
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, reasoningMock.NewMockEngine())
	assert.ErrorIs(t, err, errors.ErrMissingStore)

	_, err = NewClient(memory.NewMemoryStore(), nil)
	assert.ErrorIs(t, err, errors.ErrEngineUnavailable)
}

func TestClient_ReflectAndReadBack(t *testing.T) {
	ctx := context.Background()
	client, engine := newTestClient(t, `{"styleRules":["Be concise"],"content":["Likes concise code"]}`)

	r, err := client.Reflections(ctx, "agent-1")
	require.NoError(t, err)
	assert.Nil(t, r)

	err = client.Reflect(ctx, "agent-1", reflection.State{
		Messages: []reflection.Message{{Role: reflection.RoleHuman, Content: "I like concise code"}},
	})
	require.NoError(t, err)
	assert.Len(t, engine.GetCallHistory(), 1)

	r, err = client.Reflections(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"Be concise"}, r.StyleRules)
	assert.Equal(t, []string{"Likes concise code"}, r.Content)

	// Other assistants see nothing
	r, err = client.Reflections(ctx, "agent-2")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestClient_Forget(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, `{"styleRules":["a"],"content":["b"]}`)

	require.NoError(t, client.Reflect(ctx, "agent-1", reflection.State{}))
	require.NoError(t, client.Forget(ctx, "agent-1"))

	r, err := client.Reflections(ctx, "agent-1")
	require.NoError(t, err)
	assert.Nil(t, r)

	// Forgetting twice is fine
	require.NoError(t, client.Forget(ctx, "agent-1"))
}

func TestClient_MissingAssistantID(t *testing.T) {
	ctx := context.Background()
	client, engine := newTestClient(t, `{"styleRules":[],"content":[]}`)

	assert.ErrorIs(t, client.Reflect(ctx, "", reflection.State{}), errors.ErrMissingAssistantID)
	_, err := client.Reflections(ctx, "")
	assert.ErrorIs(t, err, errors.ErrMissingAssistantID)
	assert.ErrorIs(t, client.Forget(ctx, ""), errors.ErrMissingAssistantID)
	assert.Empty(t, engine.GetCallHistory())
}

func TestClient_EngineErrorPropagates(t *testing.T) {
	engine := reasoningMock.NewMockEngine(reasoningMock.WithShouldError(true))
	client, err := NewClient(memory.NewMemoryStore(), engine)
	require.NoError(t, err)
	defer client.Close()

	err = client.Reflect(context.Background(), "agent-1", reflection.State{})
	assert.ErrorIs(t, err, reasoningMock.ErrMock)
}

func TestNew_Default(t *testing.T) {
	client, err := New(nil)
	require.NoError(t, err)
	defer client.Close()

	require.NotNil(t, client.Config())
	assert.IsType(t, &memory.MemoryStore{}, client.Store())

	ctx := context.Background()
	require.NoError(t, client.Reflect(ctx, "agent-1", reflection.State{}))
	r, err := client.Reflections(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"Keep answers short and direct."}, r.StyleRules)
}

func TestNew_FileStores(t *testing.T) {
	for _, storeType := range []string{config.StoreBoltDB, config.StoreSQLite} {
		t.Run(storeType, func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.Default()
			cfg.Store.Type = storeType
			cfg.Store.BoltDB.Path = filepath.Join(dir, "nested", "reflections.bolt.db")
			cfg.Store.SQLite.Path = filepath.Join(dir, "nested", "reflections.db")

			ctx := context.Background()
			client, err := New(cfg)
			require.NoError(t, err)
			require.NoError(t, client.Reflect(ctx, "agent-1", reflection.State{}))
			require.NoError(t, client.Close())

			// Reflections survive reopening
			client, err = New(cfg)
			require.NoError(t, err)
			defer client.Close()

			r, err := client.Reflections(ctx, "agent-1")
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, []string{"Uses canvasmem from the command line."}, r.Content)
		})
	}
}

func TestNew_Engines(t *testing.T) {
	cfg := config.Default()
	cfg.Reasoning.Provider = config.ProviderAnthropic
	cfg.Reasoning.Anthropic = config.ProviderConfig{APIKey: "k", Model: "claude-x"}
	client, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &reasoningAnthropic.AnthropicAdapter{}, client.engine)
	client.Close()

	cfg.Reasoning.Provider = config.ProviderOpenAI
	cfg.Reasoning.OpenAI = config.ProviderConfig{APIKey: "k"}
	client, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &reasoningOpenAI.OpenAIAdapter{}, client.engine)
	client.Close()
}

func TestNew_EngineUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{"anthropic without key", config.ProviderAnthropic},
		{"openai without key", config.ProviderOpenAI},
		{"unknown provider", "llama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Reasoning.Provider = tt.provider
			client, err := New(cfg)
			assert.ErrorIs(t, err, errors.ErrEngineUnavailable)
			assert.Nil(t, client)
		})
	}
}

func TestNew_UnsupportedStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Type = "redis"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Setenv("CANVASMEM_SQLITE_PATH", "")
	t.Setenv("CANVASMEM_LOG_LEVEL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "canvasmem.yaml")
	yaml := "store:\n  type: sqlite\n  sqlite:\n    path: " + filepath.Join(dir, "c.db") + "\nreasoning:\n  provider: mock\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	client, err := NewFromConfig(path)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, config.StoreSQLite, client.Config().Store.Type)

	_, err = NewFromConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
