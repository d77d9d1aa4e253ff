package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cyphervault/internal/dbx"
)

const (
	sqliteGet = `SELECT value FROM metadata WHERE key = ?`
	sqliteSet = `INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	sqliteDelete = `DELETE FROM metadata WHERE key = ?`
)

// SQLiteRepository keeps the store in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open database whose migrations have run.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, r.db, sqliteGet, key)
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return set(ctx, r.db, sqliteSet, key, value)
}

func (r *SQLiteRepository) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := get(ctx, tx, sqliteGet, key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return set(ctx, tx, sqliteSet, key, next)
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, sqliteDelete, key); err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// get and set are shared by the SQL dialects; only the statements differ.

func get(ctx context.Context, q dbx.DBTX, query, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, q dbx.DBTX, query, key string, value []byte) error {
	if _, err := q.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
