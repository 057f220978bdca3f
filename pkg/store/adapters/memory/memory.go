package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lexlapax/canvasmem/pkg/errors"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/store"
)

// MemoryStore is an in-memory implementation of the Store interface
// used for testing and development.
type MemoryStore struct {
	// items[namespace][key] = Item, namespace joined with store.Separator
	items map[string]map[string]store.Item

	closed bool

	// Mutex for safe concurrent access
	mutex sync.RWMutex
}

// NewMemoryStore creates a new, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]map[string]store.Item),
	}

	log.Debug("Initialized in-memory store adapter")
	return s
}

// Get implements the Store interface.
func (m *MemoryStore) Get(ctx context.Context, ns store.Namespace, key string) (*store.Item, error) {
	if err := store.CheckKey(ns, key); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, errors.ErrStoreUnavailable
	}

	bucket, ok := m.items[ns.String()]
	if !ok {
		return nil, nil
	}
	item, ok := bucket[key]
	if !ok {
		return nil, nil
	}

	// Hand out a copy so callers cannot mutate stored bytes
	out := item
	out.Namespace = append(store.Namespace(nil), item.Namespace...)
	out.Value = append([]byte(nil), item.Value...)
	return &out, nil
}

// Put implements the Store interface.
func (m *MemoryStore) Put(ctx context.Context, ns store.Namespace, key string, value any) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}
	data, err := store.EncodeValue(value)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return errors.ErrStoreUnavailable
	}

	nsKey := ns.String()
	bucket, ok := m.items[nsKey]
	if !ok {
		bucket = make(map[string]store.Item)
		m.items[nsKey] = bucket
	}

	now := time.Now().UTC()
	item := store.Item{
		Namespace: append(store.Namespace(nil), ns...),
		Key:       key,
		Value:     append([]byte(nil), data...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, ok := bucket[key]; ok {
		item.CreatedAt = existing.CreatedAt
	}
	bucket[key] = item

	log.DebugContext(ctx, "Stored item in memory", "namespace", nsKey, "key", key, "bytes", len(data))
	return nil
}

// Delete implements the Store interface.
func (m *MemoryStore) Delete(ctx context.Context, ns store.Namespace, key string) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return errors.ErrStoreUnavailable
	}

	nsKey := ns.String()
	if bucket, ok := m.items[nsKey]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(m.items, nsKey)
		}
	}
	return nil
}

// Close implements the Store interface. Subsequent calls fail with
// errors.ErrStoreUnavailable.
func (m *MemoryStore) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}

// Len returns the number of items across all namespaces.
func (m *MemoryStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, bucket := range m.items {
		n += len(bucket)
	}
	return n
}

// String is used in debug output.
func (m *MemoryStore) String() string {
	return fmt.Sprintf("MemoryStore(%d items)", m.Len())
}

var _ store.Store = (*MemoryStore)(nil)
