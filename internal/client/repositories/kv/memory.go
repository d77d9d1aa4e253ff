package kv

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepository is an in-process store for tests.
type MemoryRepository struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = slices.Clone(value)
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, key string, fn UpdateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current []byte
	if v, ok := r.data[key]; ok {
		current = slices.Clone(v)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	r.data[key] = slices.Clone(next)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}
