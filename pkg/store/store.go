// Package store defines the namespaced key-value contract used to persist
// reflections between sessions, together with helpers shared by adapters.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lexlapax/canvasmem/pkg/errors"
)

// Separator joins namespace segments when an adapter needs a flat key.
const Separator = "/"

// Namespace scopes a key. Segments are ordered from most to least general,
// e.g. ["memories", "agent-1"].
type Namespace []string

// String returns the namespace segments joined with Separator. Segments are
// path-escaped, so a segment containing Separator stays a single segment.
func (ns Namespace) String() string {
	segs := make([]string, len(ns))
	for i, seg := range ns {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, Separator)
}

// Validate checks that the namespace can be stored by every adapter.
func (ns Namespace) Validate() error {
	if len(ns) == 0 {
		return fmt.Errorf("%w: namespace must have at least one segment", errors.ErrInvalidInput)
	}
	for i, seg := range ns {
		if seg == "" {
			return fmt.Errorf("%w: namespace segment %d is empty", errors.ErrInvalidInput, i)
		}
	}
	return nil
}

// ParseNamespace splits a flat key produced by Namespace.String.
func ParseNamespace(s string) Namespace {
	if s == "" {
		return nil
	}
	segs := strings.Split(s, Separator)
	ns := make(Namespace, len(segs))
	for i, seg := range segs {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		ns[i] = seg
	}
	return ns
}

// Item is a stored value together with its location and timestamps.
type Item struct {
	// Namespace is the namespace the item lives in
	Namespace Namespace `json:"namespace"`

	// Key identifies the item within its namespace
	Key string `json:"key"`

	// Value is the JSON encoded payload
	Value json.RawMessage `json:"value"`

	// CreatedAt is when the key was first written
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the key was last overwritten
	UpdatedAt time.Time `json:"updated_at"`
}

// Decode unmarshals the item value into v.
func (i *Item) Decode(v any) error {
	if err := json.Unmarshal(i.Value, v); err != nil {
		return fmt.Errorf("failed to decode item %s/%s: %w", i.Namespace, i.Key, err)
	}
	return nil
}

// Store is the interface all store adapters implement.
//
// Writes are plain upserts: two concurrent Puts to the same namespace/key
// resolve as last-writer-wins.
type Store interface {
	// Get returns the item stored at ns/key, or nil and no error when absent.
	Get(ctx context.Context, ns Namespace, key string) (*Item, error)

	// Put JSON-encodes value and stores it at ns/key, replacing any previous value.
	Put(ctx context.Context, ns Namespace, key string, value any) error

	// Delete removes ns/key. Deleting an absent key is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// CheckKey validates a namespace/key pair before it reaches an adapter.
func CheckKey(ns Namespace, key string) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", errors.ErrInvalidInput)
	}
	return nil
}

// EncodeValue marshals a value for storage. A json.RawMessage is stored as-is
// after a validity check.
func EncodeValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: value is not valid JSON", errors.ErrInvalidInput)
		}
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return data, nil
}
