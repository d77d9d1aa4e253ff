package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cyphervault/internal/dbx"
)

const (
	pgGet       = `SELECT value FROM metadata WHERE key = $1`
	pgGetLocked = `SELECT value FROM metadata WHERE key = $1 FOR UPDATE`
	pgSet       = `INSERT INTO metadata (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	pgDelete    = `DELETE FROM metadata WHERE key = $1`
	pgLockKey   = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

// PostgresRepository keeps the durable store in a shared PostgreSQL database.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, r.db, pgGet, key)
}

func (r *PostgresRepository) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, r.db, pgSet, key, value)
}

func (r *PostgresRepository) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// FOR UPDATE locks nothing while the key is absent, so first writers
		// serialise on a transaction-scoped advisory lock for the key.
		if _, err := tx.ExecContext(ctx, pgLockKey, key); err != nil {
			return fmt.Errorf("failed to lock metadata[%s]: %w", key, err)
		}
		current, err := get(ctx, tx, pgGetLocked, key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return set(ctx, tx, pgSet, key, next)
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, pgDelete, key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
