package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexlapax/canvasmem/pkg/log"
	"github.com/lexlapax/canvasmem/pkg/store"
	"github.com/lexlapax/canvasmem/pkg/store/migrations"
)

// PostgresStore implements the Store interface using a PostgreSQL database.
// The store_items table is created by the migrations package.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
	}
}

// Open connects to dsn, optionally applying migrations first.
func Open(ctx context.Context, dsn string, migrate bool) (*PostgresStore, error) {
	if migrate {
		if err := migrations.Up(dsn); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Initialized PostgreSQL store adapter", "migrated", migrate)
	return NewPostgresStore(pool), nil
}

// Get implements the Store interface.
func (p *PostgresStore) Get(ctx context.Context, ns store.Namespace, key string) (*store.Item, error) {
	if err := store.CheckKey(ns, key); err != nil {
		return nil, err
	}

	var (
		value     []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := p.pool.QueryRow(ctx,
		`SELECT value, created_at, updated_at
		FROM store_items
		WHERE namespace = $1 AND key = $2`,
		ns.String(), key,
	).Scan(&value, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ns, key, err)
	}

	return &store.Item{
		Namespace: append(store.Namespace(nil), ns...),
		Key:       key,
		Value:     value,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Put implements the Store interface.
func (p *PostgresStore) Put(ctx context.Context, ns store.Namespace, key string, value any) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}
	data, err := store.EncodeValue(value)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO store_items (namespace, key, value)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`,
		ns.String(), key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", ns, key, err)
	}

	log.DebugContext(ctx, "Stored item in PostgreSQL", "namespace", ns.String(), "key", key, "bytes", len(data))
	return nil
}

// Delete implements the Store interface.
func (p *PostgresStore) Delete(ctx context.Context, ns store.Namespace, key string) error {
	if err := store.CheckKey(ns, key); err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx,
		`DELETE FROM store_items WHERE namespace = $1 AND key = $2`,
		ns.String(), key,
	); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", ns, key, err)
	}
	return nil
}

// Close implements the Store interface.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

var _ store.Store = (*PostgresStore)(nil)
