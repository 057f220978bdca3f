// Package canvasmem wires a store and a reasoning engine from configuration
// and exposes the reflection step with read-back helpers around it.
package canvasmem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexlapax/canvasmem/pkg/config"
	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
	reasoningAnthropic "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/anthropic"
	reasoningMock "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/mock"
	reasoningOpenAI "github.com/lexlapax/canvasmem/pkg/reasoning/adapters/openai"
	"github.com/lexlapax/canvasmem/pkg/reflection"
	"github.com/lexlapax/canvasmem/pkg/store"
	"github.com/lexlapax/canvasmem/pkg/store/adapters/boltdb"
	"github.com/lexlapax/canvasmem/pkg/store/adapters/memory"
	"github.com/lexlapax/canvasmem/pkg/store/adapters/postgres"
	"github.com/lexlapax/canvasmem/pkg/store/adapters/sqlite"
)

// MockReflections is what the mock provider answers when built from config.
const MockReflections = `{"styleRules":["Keep answers short and direct."],"content":["Uses canvasmem from the command line."]}`

// Client is the main facade for canvasmem.
type Client struct {
	// store persists reflections
	store store.Store

	// engine generates reflections
	engine reasoning.Engine

	// reflector runs the reflection step
	reflector *reflection.Reflector

	// config is nil for clients built with NewClient
	config *config.Config
}

// NewClient creates a Client from already opened collaborators. The client
// takes ownership of st and closes it in Close.
func NewClient(st store.Store, engine reasoning.Engine) (*Client, error) {
	if st == nil {
		return nil, errors.ErrMissingStore
	}
	reflector, err := reflection.NewReflector(engine)
	if err != nil {
		return nil, err
	}

	log.Debug("canvasmem client initialized", "store", fmt.Sprintf("%T", st), "engine", fmt.Sprintf("%T", engine))

	return &Client{
		store:     st,
		engine:    engine,
		reflector: reflector,
	}, nil
}

// NewFromConfig loads the YAML configuration at configPath and builds a Client.
func NewFromConfig(configPath string) (*Client, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New builds a Client from cfg, opening the configured store and engine.
func New(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	ctx := context.Background()

	engine, err := initReasoningEngine(cfg)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(st, engine)
	if err != nil {
		st.Close()
		return nil, err
	}
	client.config = cfg
	return client, nil
}

// Config returns the configuration the client was built from, or nil.
func (c *Client) Config() *config.Config {
	return c.config
}

// Store returns the underlying store.
func (c *Client) Store() store.Store {
	return c.store
}

// Reflect runs the reflection step for assistantID over state.
func (c *Client) Reflect(ctx context.Context, assistantID string, state reflection.State) error {
	_, err := c.reflector.Reflect(ctx, state, reflection.RunConfig{
		AssistantID: assistantID,
		Store:       c.store,
	})
	return err
}

// Reflections returns the stored reflections for assistantID, or nil when
// none have been generated yet.
func (c *Client) Reflections(ctx context.Context, assistantID string) (*reflection.Reflections, error) {
	if assistantID == "" {
		return nil, errors.ErrMissingAssistantID
	}

	item, err := c.store.Get(ctx, reflection.Namespace(assistantID), reflection.Key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var r reflection.Reflections
	if err := item.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode reflections: %w", err)
	}
	return &r, nil
}

// Forget deletes the stored reflections for assistantID.
func (c *Client) Forget(ctx context.Context, assistantID string) error {
	if assistantID == "" {
		return errors.ErrMissingAssistantID
	}

	if err := c.store.Delete(ctx, reflection.Namespace(assistantID), reflection.Key); err != nil {
		return err
	}
	log.InfoContext(ctx, "Reflections forgotten", "assistant_id", assistantID)
	return nil
}

// Close releases the store.
func (c *Client) Close() error {
	return c.store.Close()
}

// initStore opens the store selected by configuration
func initStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case config.StoreMemory, "":
		log.Info("Using in-memory store")
		return memory.NewMemoryStore(), nil

	case config.StoreBoltDB:
		path := cfg.Store.BoltDB.Path
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		log.Info("Using BoltDB store", "path", path)
		s, err := boltdb.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.StoreSQLite:
		path := cfg.Store.SQLite.Path
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		log.Info("Using SQLite store", "path", path)
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.StorePostgres:
		log.Info("Using PostgreSQL store", "migrate", cfg.Store.Postgres.Migrate)
		s, err := postgres.Open(ctx, cfg.Store.Postgres.DSN, cfg.Store.Postgres.Migrate)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}

// initReasoningEngine initializes the reasoning engine based on configuration
func initReasoningEngine(cfg *config.Config) (reasoning.Engine, error) {
	switch cfg.Reasoning.Provider {
	case config.ProviderAnthropic:
		p := cfg.Reasoning.Anthropic
		adapter, err := reasoningAnthropic.NewAnthropicAdapter(reasoningAnthropic.Config{
			APIKey:    p.APIKey,
			Model:     p.Model,
			MaxTokens: p.MaxTokens,
			BaseURL:   p.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: anthropic: %v", errors.ErrEngineUnavailable, err)
		}
		log.Info("Using Anthropic reasoning engine", "model", adapter.Model())
		return adapter, nil

	case config.ProviderOpenAI:
		p := cfg.Reasoning.OpenAI
		adapter, err := reasoningOpenAI.NewOpenAIAdapter(reasoningOpenAI.Config{
			APIKey:    p.APIKey,
			ChatModel: p.Model,
			MaxTokens: p.MaxTokens,
			BaseURL:   p.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: openai: %v", errors.ErrEngineUnavailable, err)
		}
		log.Info("Using OpenAI reasoning engine", "model", adapter.Model())
		return adapter, nil

	case config.ProviderMock, "":
		log.Info("Using mock reasoning engine")
		return reasoningMock.NewMockEngine(reasoningMock.WithDefaultResponse(MockReflections)), nil

	default:
		return nil, fmt.Errorf("%w: unsupported provider %s", errors.ErrEngineUnavailable, cfg.Reasoning.Provider)
	}
}
