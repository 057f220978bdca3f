package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/store"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Schema creates the table backing the store.
const Schema = `
CREATE TABLE IF NOT EXISTS store_items (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (namespace, key)
);
`

// SQLiteStore implements the Store interface using a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// itemRow maps a store_items row.
type itemRow struct {
	Namespace string `db:"namespace"`
	Key       string `db:"key"`
	Value     string `db:"value"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// NewSQLiteStore creates a new SQLiteStore with the given database connection.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,
	}
}

// Open opens the SQLite file at path and creates the schema.
// The pool is limited to one connection so concurrent writers queue instead
// of failing with SQLITE_BUSY.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("Initialized SQLite store adapter", "path", path)
	return s, nil
}

// connParams are appended to every path handed to Open.
const connParams = "_busy_timeout=5000&_foreign_keys=on"

// dsn appends connParams to path, keeping any query string already present.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connParams
	}
	return path + "?" + connParams
}

// Initialize creates the store_items table if it doesn't exist.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create store_items table: %w", err)
	}
	return nil
}

// Get implements the Store interface.
func (s *SQLiteStore) Get(ctx context.Context, ns store.Namespace, key string) (*store.Item, error) {
	if err := store.CheckKey(ns, key); err != nil {
		return nil, err
	}

	var row itemRow
	err := s.db.GetContext(ctx, &row,
		`SELECT namespace, key, value, created_at, updated_at
		FROM store_items
		WHERE namespace = ? AND key = ?`,
		ns.String(), key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ns, key, err)
	}

	return row.toItem()
}

// Put implements the Store interface.
func (s *SQLiteStore) Put(ctx context.Context, ns store.Namespace, key string, value any) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}
	data, err := store.EncodeValue(value)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO store_items (namespace, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		ns.String(), key, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", ns, key, err)
	}

	log.DebugContext(ctx, "Stored item in SQLite", "namespace", ns.String(), "key", key, "bytes", len(data))
	return nil
}

// Delete implements the Store interface.
func (s *SQLiteStore) Delete(ctx context.Context, ns store.Namespace, key string) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM store_items WHERE namespace = ? AND key = ?`,
		ns.String(), key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Close implements the Store interface.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (r itemRow) toItem() (*store.Item, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &store.Item{
		Namespace: store.ParseNamespace(r.Namespace),
		Key:       r.Key,
		Value:     []byte(r.Value),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

var _ store.Store = (*SQLiteStore)(nil)
