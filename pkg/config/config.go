package config

import (
	"github.com/lexlapax/canvasmem/pkg/log"
)

// Store types
const (
	StoreMemory   = "memory"
	StoreBoltDB   = "boltdb"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Reasoning providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

// Defaults applied by validation
const (
	DefaultBoltPath       = "./data/canvasmem.bolt.db"
	DefaultSQLitePath     = "./data/canvasmem.db"
	DefaultAnthropicModel = "claude-3-5-sonnet-20240620"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultMaxTokens      = 4096
)

// Config represents the top-level configuration for canvasmem.
type Config struct {
	// Store configures where reflections are persisted
	Store StoreConfig `yaml:"store"`

	// Reasoning configures the reasoning engine (LLM)
	Reasoning ReasoningConfig `yaml:"reasoning"`

	// Logging configures the logging behavior
	Logging log.Config `yaml:"logging"`
}

// StoreConfig configures the reflections store.
type StoreConfig struct {
	// Type specifies the backend ("memory", "boltdb", "sqlite", "postgres")
	Type string `yaml:"type"`

	// BoltDB configures the BoltDB file store
	BoltDB FileStoreConfig `yaml:"boltdb"`

	// SQLite configures the SQLite file store
	SQLite FileStoreConfig `yaml:"sqlite"`

	// Postgres configures the PostgreSQL store
	Postgres PostgresConfig `yaml:"postgres"`
}

// FileStoreConfig configures a single-file embedded database.
type FileStoreConfig struct {
	// Path is the database file; parent directories are created on open
	Path string `yaml:"path"`
}

// PostgresConfig configures PostgreSQL storage.
type PostgresConfig struct {
	// DSN is the data source name (connection string)
	DSN string `yaml:"dsn"`

	// Migrate applies pending schema migrations on open
	Migrate bool `yaml:"migrate"`
}

// ReasoningConfig configures the reasoning engine (LLM).
type ReasoningConfig struct {
	// Provider is the LLM provider ("anthropic", "openai", "mock")
	Provider string `yaml:"provider"`

	// Anthropic configures Anthropic integration
	Anthropic ProviderConfig `yaml:"anthropic"`

	// OpenAI configures OpenAI integration
	OpenAI ProviderConfig `yaml:"openai"`
}

// ProviderConfig configures one hosted model provider.
type ProviderConfig struct {
	// APIKey is the provider API key
	APIKey string `yaml:"api_key"`

	// Model is the model identity, fixed for the lifetime of the engine
	Model string `yaml:"model"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `yaml:"max_tokens"`

	// BaseURL overrides the API endpoint
	BaseURL string `yaml:"base_url"`
}

// Default returns a configuration that needs no external services: an
// in-memory store and the mock reasoning engine.
func Default() *Config {
	cfg := &Config{
		Store:     StoreConfig{Type: StoreMemory},
		Reasoning: ReasoningConfig{Provider: ProviderMock},
		Logging:   log.DefaultConfig(),
	}
	// Defaults never fail validation
	_ = validateConfig(cfg)
	return cfg
}
