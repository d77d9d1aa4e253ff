package entries

import (
	"context"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
)

type Repository interface {
	// Load returns the account's records in insertion order; an account
	// without a vault yields an empty, non-nil slice.
	Load(ctx context.Context, accountID string) ([]models.StoredRecord, error)
	Save(ctx context.Context, accountID string, records []models.StoredRecord) error
}
