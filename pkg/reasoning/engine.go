package reasoning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Message roles understood by every adapter.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single role-tagged prompt message.
type Message struct {
	Role    string
	Content string
}

// Schema declares the shape a structured response must take.
type Schema struct {
	// Name identifies the schema to the provider, e.g. a tool name
	Name string

	// Description is passed to providers that accept one
	Description string

	// Definition is a JSON Schema object document
	Definition json.RawMessage
}

// SchemaFor builds a Schema from the exported fields of T. Field descriptions
// come from jsonschema_description tags; every field without omitempty is
// required and additional properties are rejected.
func SchemaFor[T any](name, description string) (Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	s := reflector.Reflect(&v)
	s.Version = ""

	def, err := json.Marshal(s)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to marshal schema %s: %w", name, err)
	}

	return Schema{
		Name:        name,
		Description: description,
		Definition:  def,
	}, nil
}

// Properties splits the definition into its properties object and required
// list, the two parts tool-calling providers ask for.
func (s Schema) Properties() (map[string]any, []string, error) {
	var doc struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(s.Definition, &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid schema %s: %w", s.Name, err)
	}
	return doc.Properties, doc.Required, nil
}

// Option is a function that configures a reasoning process.
type Option func(*Options)

// Options holds configuration for a reasoning request.
type Options struct {
	// Temperature controls randomness in generation (0.0-1.0)
	Temperature float64

	// MaxTokens limits the length of the generated response, 0 means the adapter's default
	MaxTokens int

	// Model specifies which model variant to use
	Model string
}

// DefaultOptions returns default reasoning options.
func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		MaxTokens:   0,
		Model:       "", // Empty means use the adapter's default
	}
}

// ApplyOptions folds opts over DefaultOptions.
func ApplyOptions(opts ...Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithTemperature sets the temperature option.
func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the max tokens option.
func WithMaxTokens(tokens int) Option {
	return func(o *Options) {
		o.MaxTokens = tokens
	}
}

// WithModel sets the model option.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Engine is the interface for reasoning engines (LLMs).
type Engine interface {
	// GenerateStructured sends messages to the model constrained to schema and
	// returns the raw JSON object it produced. The result is not validated
	// beyond being a JSON document; callers parse it.
	GenerateStructured(ctx context.Context, messages []Message, schema Schema, opts ...Option) (json.RawMessage, error)
}
