package reflection

import (
	"github.com/lexlapax/canvasmem/pkg/store"
)

// Message roles as reported by the conversation framework.
const (
	RoleHuman  = "human"
	RoleAI     = "ai"
	RoleSystem = "system"
	RoleTool   = "tool"
)

// Reflections are the style rules and user facts kept for one assistant.
// A stored value is always replaced whole, never merged.
type Reflections struct {
	StyleRules []string `json:"styleRules" jsonschema_description:"The complete new list of style rules and guidelines."`
	Content    []string `json:"content" jsonschema_description:"The complete new list of memories/facts about the user."`
}

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// Artifact is the piece of work produced earlier in the session.
type Artifact struct {
	Content string
}

// State is the conversation state handed to the step.
type State struct {
	// Messages in conversation order, possibly empty
	Messages []Message

	// Artifact is nil when nothing has been generated yet
	Artifact *Artifact
}

// RunConfig carries the per-invocation collaborators.
type RunConfig struct {
	// AssistantID selects the memories namespace; required
	AssistantID string

	// Store holds the reflections; required
	Store store.Store
}

// Result is the step's contribution to conversation state. It is always empty.
type Result struct{}

// Namespace returns the store namespace holding an assistant's reflections.
func Namespace(assistantID string) store.Namespace {
	return store.Namespace{NamespaceLabel, assistantID}
}

const (
	// NamespaceLabel is the first namespace segment of every reflections entry
	NamespaceLabel = "memories"

	// Key is the key of the reflections entry inside its namespace
	Key = "reflection"
)
