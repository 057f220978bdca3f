package errors

import (
	"errors"
	"fmt"
)

// Standard errors
var (
	// ErrInvalidInput is returned when the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingAssistantID is returned when a run configuration carries no assistant identifier
	ErrMissingAssistantID = errors.New("`open_canvas_assistant_id` not found in configurable")

	// ErrMissingStore is returned when a run configuration carries no store handle
	ErrMissingStore = errors.New("store not found in configurable")

	// ErrSchemaViolation is returned when a model response does not match the declared schema
	ErrSchemaViolation = errors.New("response does not match schema")

	// ErrStoreUnavailable is returned when the backing store is closed or unreachable
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEngineUnavailable is returned when no reasoning engine can be constructed
	ErrEngineUnavailable = errors.New("reasoning engine unavailable")
)

// SchemaViolationError describes why a structured model response was rejected.
type SchemaViolationError struct {
	// Schema is the name of the schema the response was checked against
	Schema string

	// Field is the offending field, empty when the whole document is malformed
	Field string

	// Reason is a short human-readable explanation
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchemaViolation, e.Schema, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrSchemaViolation, e.Schema, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrSchemaViolation.
func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// Wrap wraps an error with additional context
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience function that wraps errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target, and if so, sets
// target to that error value and returns true. Otherwise, it returns false.
// This is a convenience function that wraps errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
