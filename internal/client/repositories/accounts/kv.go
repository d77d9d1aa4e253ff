package accounts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/kv"
)

type directory map[string]models.Account

func decode(raw []byte) (directory, error) {
	dir := make(directory)
	if raw == nil {
		return dir, nil
	}
	if err := json.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("decode account directory: %w", err)
	}
	return dir, nil
}

// KVRepository stores the whole account directory as one JSON value.
type KVRepository struct {
	store kv.Repository
}

// NewKVRepository constructs a KVRepository on top of store.
func NewKVRepository(store kv.Repository) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Get(ctx context.Context, id string) (models.Account, error) {
	raw, err := r.store.Get(ctx, DirectoryKey)
	if err != nil {
		return models.Account{}, fmt.Errorf("load account directory: %w", err)
	}
	dir, err := decode(raw)
	if err != nil {
		return models.Account{}, err
	}
	acc, ok := dir[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *KVRepository) Insert(ctx context.Context, account models.Account) error {
	return r.store.Update(ctx, DirectoryKey, func(raw []byte) ([]byte, error) {
		dir, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := dir[account.ID]; ok {
			return nil, ErrAccountExists
		}
		dir[account.ID] = account
		return json.Marshal(dir)
	})
}
