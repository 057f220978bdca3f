// Package reflection implements the reflection step of a canvas agent: it
// reads an assistant's stored reflections, asks a model for an updated set
// based on the latest conversation and artifact, and writes the result back.
//
// Concurrent steps for the same assistant are not coordinated. Each one
// overwrites the entry with its own result, so the last writer wins.
package reflection

import (
	"context"

	"github.com/google/uuid"
	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/reasoning"
)

// Reflector runs the reflection step against a reasoning engine. It holds no
// per-run state and is safe for concurrent use.
type Reflector struct {
	engine reasoning.Engine
	schema reasoning.Schema
}

// NewReflector creates a Reflector backed by engine.
func NewReflector(engine reasoning.Engine) (*Reflector, error) {
	if engine == nil {
		return nil, errors.ErrEngineUnavailable
	}

	schema, err := Schema()
	if err != nil {
		return nil, err
	}

	return &Reflector{
		engine: engine,
		schema: schema,
	}, nil
}

// Reflect regenerates the reflections for cfg.AssistantID from state.
//
// It performs one store read, one model call and one store write, in that
// order. A missing store or assistant identifier fails before any of them.
// Store and model errors are returned wrapped, with nothing written.
func (r *Reflector) Reflect(ctx context.Context, state State, cfg RunConfig) (Result, error) {
	if cfg.Store == nil {
		return Result{}, errors.ErrMissingStore
	}
	if cfg.AssistantID == "" {
		return Result{}, errors.ErrMissingAssistantID
	}

	logger := log.WithRun(log.WithAssistant(log.FromContext(ctx), cfg.AssistantID), uuid.NewString())
	ctx = log.WithLogger(ctx, logger)

	ns := Namespace(cfg.AssistantID)

	item, err := cfg.Store.Get(ctx, ns, Key)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read reflections", "error", err)
		return Result{}, errors.Wrap(err, "failed to read reflections")
	}

	reflections := NoReflectionsFound
	if item != nil {
		var prior Reflections
		if err := item.Decode(&prior); err != nil {
			return Result{}, errors.Wrap(err, "failed to decode stored reflections")
		}
		reflections = FormatReflections(prior)
	}
	logger.DebugContext(ctx, "Loaded prior reflections", "found", item != nil)

	artifact := NoArtifactFound
	if state.Artifact != nil {
		artifact = state.Artifact.Content
	}

	messages := []reasoning.Message{
		{Role: reasoning.RoleSystem, Content: RenderSystemPrompt(artifact, reflections)},
		{Role: reasoning.RoleUser, Content: RenderUserPrompt(FormatConversation(state.Messages))},
	}

	logger.DebugContext(ctx, "Requesting reflections",
		"messages", len(state.Messages),
		"has_artifact", state.Artifact != nil)

	raw, err := r.engine.GenerateStructured(ctx, messages, r.schema, reasoning.WithTemperature(0))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate reflections", "error", err)
		return Result{}, errors.Wrap(err, "failed to generate reflections")
	}

	updated, err := ParseReflections(raw)
	if err != nil {
		logger.WarnContext(ctx, "Rejected model response", "error", err)
		return Result{}, err
	}

	if err := cfg.Store.Put(ctx, ns, Key, updated); err != nil {
		logger.ErrorContext(ctx, "Failed to write reflections", "error", err)
		return Result{}, errors.Wrap(err, "failed to write reflections")
	}

	logger.InfoContext(ctx, "Reflections updated",
		"style_rules", len(updated.StyleRules),
		"facts", len(updated.Content))

	return Result{}, nil
}
