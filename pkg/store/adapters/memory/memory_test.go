package memory

import (
	"context"
	"testing"

	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/store"
	"github.com/lexlapax/canvasmem/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Suite(t *testing.T) {
	testutil.RunStoreSuite(t, func(t *testing.T) store.Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ns := store.Namespace{"memories", "agent-1"}
	require.NoError(t, s.Put(ctx, ns, "reflection", []string{"a"}))

	item, err := s.Get(ctx, ns, "reflection")
	require.NoError(t, err)
	item.Value[2] = 'z'
	item.Namespace[0] = "changed"

	again, err := s.Get(ctx, ns, "reflection")
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(again.Value))
	assert.Equal(t, ns, again.Namespace)
}

func TestMemoryStore_LenAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, store.Namespace{"memories", "a"}, "reflection", 1))
	require.NoError(t, s.Put(ctx, store.Namespace{"memories", "b"}, "reflection", 2))
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Delete(ctx, store.Namespace{"memories", "a"}, "reflection"))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Delete(ctx, store.Namespace{"memories", "b"}, "reflection"), errors.ErrStoreUnavailable)
}
