package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/store"
	bolt "go.etcd.io/bbolt"
)

// rootBucket holds one child bucket per namespace, named by Namespace.String.
// Namespaces are flattened so a key and a child namespace with the same name
// never collide inside one bucket.
var rootBucket = []byte("namespaces")

// BoltStore implements the Store interface using a BoltDB database.
type BoltStore struct {
	db *bolt.DB
}

// record is the on-disk representation of an item.
type record struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewBoltStore creates a new BoltStore with the given database connection.
func NewBoltStore(db *bolt.DB) *BoltStore {
	s := &BoltStore{
		db: db,
	}

	log.Debug("Initialized BoltDB store adapter",
		"db_path", db.Path(),
		"read_only", db.IsReadOnly(),
	)

	return s
}

// Open opens (creating if needed) the database file at path and initializes it.
func Open(ctx context.Context, path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB database: %w", err)
	}

	s := NewBoltStore(db)
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Initialize creates the root bucket if it doesn't exist.
func (b *BoltStore) Initialize(ctx context.Context) error {
	log.DebugContext(ctx, "Initializing BoltDB store buckets")

	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize BoltDB buckets", "error", err)
		return fmt.Errorf("failed to initialize BoltDB buckets: %w", err)
	}

	return nil
}

// Get implements the Store interface.
func (b *BoltStore) Get(ctx context.Context, ns store.Namespace, key string) (*store.Item, error) {
	if err := store.CheckKey(ns, key); err != nil {
		return nil, err
	}

	var item *store.Item
	err := b.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return nil
		}
		nsBucket := root.Bucket([]byte(ns.String()))
		if nsBucket == nil {
			return nil
		}
		data := nsBucket.Get([]byte(key))
		if data == nil {
			return nil
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		// data is only valid inside the transaction; Unmarshal copied it
		item = &store.Item{
			Namespace: append(store.Namespace(nil), ns...),
			Key:       key,
			Value:     rec.Value,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ns, key, err)
	}

	return item, nil
}

// Put implements the Store interface.
func (b *BoltStore) Put(ctx context.Context, ns store.Namespace, key string, value any) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}
	data, err := store.EncodeValue(value)
	if err != nil {
		return err
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(rootBucket)
		if err != nil {
			return fmt.Errorf("failed to create root bucket: %w", err)
		}
		nsBucket, err := root.CreateBucketIfNotExists([]byte(ns.String()))
		if err != nil {
			return fmt.Errorf("failed to create namespace bucket %s: %w", ns, err)
		}

		now := time.Now().UTC()
		rec := record{Value: data, CreatedAt: now, UpdatedAt: now}
		if existing := nsBucket.Get([]byte(key)); existing != nil {
			var prev record
			if err := json.Unmarshal(existing, &prev); err == nil {
				rec.CreatedAt = prev.CreatedAt
			}
		}

		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		return nsBucket.Put([]byte(key), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", ns, key, err)
	}

	log.DebugContext(ctx, "Stored item in BoltDB", "namespace", ns.String(), "key", key, "bytes", len(data))
	return nil
}

// Delete implements the Store interface.
func (b *BoltStore) Delete(ctx context.Context, ns store.Namespace, key string) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return nil
		}
		nsBucket := root.Bucket([]byte(ns.String()))
		if nsBucket == nil {
			return nil
		}
		if err := nsBucket.Delete([]byte(key)); err != nil {
			return err
		}

		// Drop empty namespace buckets
		if k, _ := nsBucket.Cursor().First(); k == nil {
			return root.DeleteBucket([]byte(ns.String()))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Close implements the Store interface.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

var _ store.Store = (*BoltStore)(nil)
