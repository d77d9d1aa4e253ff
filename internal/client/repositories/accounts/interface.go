// Package accounts is the Account Directory: a single JSON map from account
// id to account secrets, stored under one well-known key.
package accounts

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
)

// DirectoryKey is the store key holding the whole directory.
const DirectoryKey = "cyphervault_users"

var (
	ErrNotFound      = errors.New("account not found")
	ErrAccountExists = errors.New("account already exists")
)

type Repository interface {
	// Get returns ErrNotFound if id is unknown. Ids are case-sensitive.
	Get(ctx context.Context, id string) (models.Account, error)
	// Insert adds a new account; an existing id yields ErrAccountExists.
	Insert(ctx context.Context, account models.Account) error
}
