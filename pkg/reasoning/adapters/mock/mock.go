package mock

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
)

// ErrMock is returned by a MockEngine configured to fail.
var ErrMock = errors.New("mock reasoning engine error")

// Call represents a recorded GenerateStructured call on the mock engine.
type Call struct {
	// Messages are the prompt messages, in order.
	Messages []reasoning.Message

	// Schema is the requested output schema.
	Schema reasoning.Schema

	// Options are the resolved request options.
	Options reasoning.Options
}

// MockEngine implements the reasoning.Engine interface with canned responses.
type MockEngine struct {
	// cannedResponses maps schema names to predetermined JSON responses
	cannedResponses map[string]json.RawMessage

	// defaultResponse is returned when no schema-specific response is found
	defaultResponse json.RawMessage

	// err is returned instead of a response when non-nil
	err error

	// mutex protects the fields above and the call history
	mutex sync.RWMutex

	// callHistory records all calls to GenerateStructured
	callHistory []Call
}

// MockOption is a function that configures a MockEngine.
type MockOption func(*MockEngine)

// WithDefaultResponse sets the default response for the mock engine.
func WithDefaultResponse(resp string) MockOption {
	return func(m *MockEngine) {
		m.defaultResponse = json.RawMessage(resp)
	}
}

// WithShouldError configures whether the mock engine returns ErrMock.
func WithShouldError(shouldErr bool) MockOption {
	return func(m *MockEngine) {
		if shouldErr {
			m.err = ErrMock
		} else {
			m.err = nil
		}
	}
}

// WithError makes every call fail with err.
func WithError(err error) MockOption {
	return func(m *MockEngine) {
		m.err = err
	}
}

// NewMockEngine creates a new MockEngine with the given options.
func NewMockEngine(opts ...MockOption) *MockEngine {
	m := &MockEngine{
		cannedResponses: make(map[string]json.RawMessage),
		defaultResponse: json.RawMessage(`{}`),
		callHistory:     make([]Call, 0),
	}

	// Apply options
	for _, opt := range opts {
		opt(m)
	}

	log.Debug("Created mock reasoning engine", "should_error", m.err != nil)
	return m
}

// GenerateStructured implements the reasoning.Engine interface.
func (m *MockEngine) GenerateStructured(ctx context.Context, messages []reasoning.Message, schema reasoning.Schema, opts ...reasoning.Option) (json.RawMessage, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	options := reasoning.ApplyOptions(opts...)

	// Record the call
	m.callHistory = append(m.callHistory, Call{
		Messages: append([]reasoning.Message(nil), messages...),
		Schema:   schema,
		Options:  options,
	})

	if m.err != nil {
		return nil, m.err
	}

	log.DebugContext(ctx, "Generating structured output with mock engine",
		"schema", schema.Name,
		"messages", len(messages),
		"temperature", options.Temperature)

	if response, ok := m.cannedResponses[schema.Name]; ok {
		return append(json.RawMessage(nil), response...), nil
	}
	return append(json.RawMessage(nil), m.defaultResponse...), nil
}

// AddResponse adds a canned response for a specific schema name.
func (m *MockEngine) AddResponse(schemaName, response string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.cannedResponses[schemaName] = json.RawMessage(response)
	log.Debug("Added canned response", "schema", schemaName)
}

// SetDefaultResponse sets the default response.
func (m *MockEngine) SetDefaultResponse(response string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.defaultResponse = json.RawMessage(response)
}

// SetShouldError configures whether the engine returns ErrMock.
func (m *MockEngine) SetShouldError(shouldErr bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if shouldErr {
		m.err = ErrMock
	} else {
		m.err = nil
	}
	log.Debug("Set should error mode", "should_error", shouldErr)
}

// GetCallHistory returns a copy of the call history.
func (m *MockEngine) GetCallHistory() []Call {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	// Return a copy to prevent race conditions
	history := make([]Call, len(m.callHistory))
	copy(history, m.callHistory)

	return history
}

// ClearHistory clears the call history.
func (m *MockEngine) ClearHistory() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.callHistory = make([]Call, 0)
}

var _ reasoning.Engine = (*MockEngine)(nil)
