package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lexlapax/canvasmem/pkg/log"
	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(&config)

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadDotEnv loads variables from the given files, or ".env" when none are
// given, without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
		log.Debug("Loaded environment file", "path", file)
	}
	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(config *Config) {
	// PostgreSQL DSN override
	if dsn := os.Getenv("CANVASMEM_STORE_DSN"); dsn != "" {
		config.Store.Postgres.DSN = dsn
	}

	// Embedded database paths
	if path := os.Getenv("CANVASMEM_BOLT_PATH"); path != "" {
		config.Store.BoltDB.Path = path
	}
	if path := os.Getenv("CANVASMEM_SQLITE_PATH"); path != "" {
		config.Store.SQLite.Path = path
	}

	// Anthropic API key override
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Reasoning.Anthropic.APIKey = apiKey
	}

	// OpenAI API key override
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Reasoning.OpenAI.APIKey = apiKey
	}

	if level := os.Getenv("CANVASMEM_LOG_LEVEL"); level != "" {
		config.Logging.Level = log.Level(level)
	}
}

// validateConfig validates the configuration and applies defaults.
func validateConfig(config *Config) error {
	config.Store.Type = strings.ToLower(config.Store.Type)
	switch config.Store.Type {
	case "":
		config.Store.Type = StoreMemory
	case StoreMemory:
	case StoreBoltDB:
		if config.Store.BoltDB.Path == "" {
			config.Store.BoltDB.Path = DefaultBoltPath
		}
	case StoreSQLite:
		if config.Store.SQLite.Path == "" {
			config.Store.SQLite.Path = DefaultSQLitePath
		}
	case StorePostgres:
		if config.Store.Postgres.DSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres store type")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", config.Store.Type)
	}

	config.Reasoning.Provider = strings.ToLower(config.Reasoning.Provider)
	switch config.Reasoning.Provider {
	case "":
		config.Reasoning.Provider = ProviderMock
	case ProviderMock:
	case ProviderAnthropic:
		// API key can be provided via environment variable, so it is checked
		// when the engine is built
		applyProviderDefaults(&config.Reasoning.Anthropic, DefaultAnthropicModel)
	case ProviderOpenAI:
		applyProviderDefaults(&config.Reasoning.OpenAI, DefaultOpenAIModel)
	default:
		return fmt.Errorf("unsupported reasoning provider: %s", config.Reasoning.Provider)
	}

	config.Logging.Level = log.Level(strings.ToLower(string(config.Logging.Level)))
	config.Logging.Format = log.Format(strings.ToLower(string(config.Logging.Format)))
	if config.Logging.Level == "" {
		config.Logging.Level = log.InfoLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = log.TextFormat
	}
	switch config.Logging.Level {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		return fmt.Errorf("unsupported log level: %s", config.Logging.Level)
	}
	switch config.Logging.Format {
	case log.TextFormat, log.JSONFormat:
	default:
		return fmt.Errorf("unsupported log format: %s", config.Logging.Format)
	}

	return nil
}

func applyProviderDefaults(p *ProviderConfig, model string) {
	if p.Model == "" {
		p.Model = model
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
}
