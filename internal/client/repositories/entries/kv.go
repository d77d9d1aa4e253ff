package entries

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/kv"
)

const keyPrefix = "vault_"

// Key returns the store key holding accountID's records.
func Key(accountID string) string {
	return keyPrefix + accountID
}

// KVRepository stores each account's sealed records as one JSON array under
// Key(accountID).
type KVRepository struct {
	store kv.Repository
}

// NewKVRepository constructs a KVRepository on top of store.
func NewKVRepository(store kv.Repository) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Load(ctx context.Context, accountID string) ([]models.StoredRecord, error) {
	raw, err := r.store.Get(ctx, Key(accountID))
	if err != nil {
		return nil, fmt.Errorf("load vault %s: %w", accountID, err)
	}

	records := make([]models.StoredRecord, 0)
	if raw == nil {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode vault %s: %w", accountID, err)
	}
	return records, nil
}

func (r *KVRepository) Save(ctx context.Context, accountID string, records []models.StoredRecord) error {
	if records == nil {
		records = []models.StoredRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode vault %s: %w", accountID, err)
	}
	if err := r.store.Set(ctx, Key(accountID), raw); err != nil {
		return fmt.Errorf("save vault %s: %w", accountID, err)
	}
	return nil
}
