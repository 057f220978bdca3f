package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrap(ErrStoreUnavailable, "failed to read %s", "reflections")
	assert.EqualError(t, err, "failed to read reflections: store unavailable")
	assert.True(t, Is(err, ErrStoreUnavailable))
}

func TestSchemaViolationError(t *testing.T) {
	err := fmt.Errorf("reflect: %w", &SchemaViolationError{
		Schema: "generate_reflections",
		Field:  "styleRules",
		Reason: "missing required field",
	})

	assert.True(t, Is(err, ErrSchemaViolation))

	var sv *SchemaViolationError
	assert.True(t, As(err, &sv))
	assert.Equal(t, "styleRules", sv.Field)
	assert.Contains(t, err.Error(), "generate_reflections.styleRules: missing required field")

	whole := &SchemaViolationError{Schema: "generate_reflections", Reason: "not a JSON object"}
	assert.Equal(t, "response does not match schema: generate_reflections: not a JSON object", whole.Error())
	assert.False(t, errors.Is(whole, ErrInvalidInput))
}
