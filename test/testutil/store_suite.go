package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory opens a fresh, empty store for one subtest.
type StoreFactory func(t *testing.T) store.Store

// RunStoreSuite exercises the behaviour every store adapter must share.
func RunStoreSuite(t *testing.T, newStore StoreFactory) {
	ctx := context.Background()
	ns := store.Namespace{"memories", "agent-1"}

	t.Run("get absent returns nil", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		value := map[string][]string{"styleRules": {"Be concise"}, "content": {"Likes concise code"}}
		require.NoError(t, s.Put(ctx, ns, "reflection", value))

		item, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, ns, item.Namespace)
		assert.Equal(t, "reflection", item.Key)
		assert.JSONEq(t, `{"styleRules":["Be concise"],"content":["Likes concise code"]}`, string(item.Value))
		assert.False(t, item.CreatedAt.IsZero())
		assert.False(t, item.UpdatedAt.IsZero())
	})

	t.Run("put replaces the whole value", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, ns, "reflection", map[string][]string{"styleRules": {"Old rule"}, "content": {"Old fact"}}))
		first, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		require.NotNil(t, first)

		require.NoError(t, s.Put(ctx, ns, "reflection", map[string][]string{"styleRules": {"New rule"}, "content": {}}))
		item, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.JSONEq(t, `{"styleRules":["New rule"],"content":[]}`, string(item.Value))
		assert.NotContains(t, string(item.Value), "Old")
		assert.False(t, item.UpdatedAt.Before(first.UpdatedAt))
		assert.True(t, item.CreatedAt.Equal(first.CreatedAt), "created_at survives overwrite")
	})

	t.Run("raw json is stored verbatim", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, ns, "raw", json.RawMessage(`{"a":[1,2,3]}`)))
		item, err := s.Get(ctx, ns, "raw")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.JSONEq(t, `{"a":[1,2,3]}`, string(item.Value))
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		s := newStore(t)
		other := store.Namespace{"memories", "agent-2"}
		parent := store.Namespace{"memories"}
		require.NoError(t, s.Put(ctx, ns, "reflection", []string{"one"}))
		require.NoError(t, s.Put(ctx, other, "reflection", []string{"two"}))
		require.NoError(t, s.Put(ctx, parent, "agent-1", []string{"three"}))

		a, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		b, err := s.Get(ctx, other, "reflection")
		require.NoError(t, err)
		c, err := s.Get(ctx, parent, "agent-1")
		require.NoError(t, err)
		require.NotNil(t, a)
		require.NotNil(t, b)
		require.NotNil(t, c)
		assert.JSONEq(t, `["one"]`, string(a.Value))
		assert.JSONEq(t, `["two"]`, string(b.Value))
		assert.JSONEq(t, `["three"]`, string(c.Value))
	})

	t.Run("separator inside a segment", func(t *testing.T) {
		s := newStore(t)
		slashed := store.Namespace{"memories", "team/agent-1"}
		split := store.Namespace{"memories", "team", "agent-1"}
		require.NoError(t, s.Put(ctx, slashed, "reflection", []string{"slashed"}))
		require.NoError(t, s.Put(ctx, split, "reflection", []string{"split"}))

		item, err := s.Get(ctx, slashed, "reflection")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, slashed, item.Namespace)
		assert.JSONEq(t, `["slashed"]`, string(item.Value))

		item, err = s.Get(ctx, split, "reflection")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.JSONEq(t, `["split"]`, string(item.Value))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, ns, "reflection", []string{"x"}))
		require.NoError(t, s.Delete(ctx, ns, "reflection"))

		item, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		assert.Nil(t, item)

		// deleting again, or in an unknown namespace, is fine
		require.NoError(t, s.Delete(ctx, ns, "reflection"))
		require.NoError(t, s.Delete(ctx, store.Namespace{"nowhere"}, "reflection"))
	})

	t.Run("invalid keys are rejected", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Put(ctx, nil, "reflection", 1), errors.ErrInvalidInput)
		assert.ErrorIs(t, s.Put(ctx, ns, "", 1), errors.ErrInvalidInput)
		_, err := s.Get(ctx, store.Namespace{"memories", ""}, "reflection")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		assert.ErrorIs(t, s.Delete(ctx, ns, ""), errors.ErrInvalidInput)
	})

	t.Run("concurrent writers resolve to one value", func(t *testing.T) {
		s := newStore(t)
		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Put(ctx, ns, "reflection", []string{fmt.Sprintf("writer-%d", i)}))
			}(i)
		}
		wg.Wait()

		item, err := s.Get(ctx, ns, "reflection")
		require.NoError(t, err)
		require.NotNil(t, item)

		var got []string
		require.NoError(t, json.Unmarshal(item.Value, &got))
		require.Len(t, got, 1)
		assert.Regexp(t, `^writer-\d$`, got[0])
	})

	t.Run("closed store fails", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		_, err := s.Get(ctx, ns, "reflection")
		assert.Error(t, err)
		assert.Error(t, s.Put(ctx, ns, "reflection", 1))
	})
}
