package kv

import (
	"context"
)

// UpdateFunc receives the current value (nil if absent) and returns the new one.
type UpdateFunc func(current []byte) ([]byte, error)

// Repository is a byte store keyed by string. Absent keys read as nil.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
