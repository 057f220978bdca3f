package reflection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
)

// SchemaName names the structured output the model is asked for.
const SchemaName = "generate_reflections"

const schemaDescription = "Generate the complete, updated list of style rules and memories/facts about the user."

// Schema returns the structured output schema for Reflections.
func Schema() (reasoning.Schema, error) {
	return reasoning.SchemaFor[Reflections](SchemaName, schemaDescription)
}

// ParseReflections validates a model response against the reflections schema.
// Unknown fields are ignored. Any shape mismatch is reported as an
// *errors.SchemaViolationError.
func ParseReflections(raw json.RawMessage) (Reflections, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Reflections{}, violation("", "expected a JSON object")
	}

	styleRules, err := stringList(fields, "styleRules")
	if err != nil {
		return Reflections{}, err
	}
	content, err := stringList(fields, "content")
	if err != nil {
		return Reflections{}, err
	}

	return Reflections{StyleRules: styleRules, Content: content}, nil
}

func stringList(fields map[string]json.RawMessage, name string) ([]string, error) {
	value, ok := fields[name]
	if !ok {
		return nil, violation(name, "missing required field")
	}

	var elems []json.RawMessage
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) || json.Unmarshal(value, &elems) != nil {
		return nil, violation(name, "expected an array of strings")
	}

	out := make([]string, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &out[i]); err != nil || bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			return nil, violation(fmt.Sprintf("%s[%d]", name, i), "expected a string")
		}
	}
	return out, nil
}

func violation(field, reason string) error {
	return &errors.SchemaViolationError{Schema: SchemaName, Field: field, Reason: reason}
}
