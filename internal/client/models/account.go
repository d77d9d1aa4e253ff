package models

import (
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/cryptox"
)

// Account is a vault owner. Neither the credential nor the master key is
// kept; only salted Argon2id verifiers are. Accounts are immutable once created.
type Account struct {
	ID string `json:"id"`

	CredentialSalt     []byte `json:"credentialSalt"`
	CredentialVerifier []byte `json:"credentialVerifier"`

	MasterKeySalt     []byte `json:"masterKeySalt"`
	MasterKeyVerifier []byte `json:"masterKeyVerifier"`

	KDF       cryptox.Params `json:"kdf"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Session records which account is logged in. The master key is never part of it.
type Session struct {
	AccountID string `json:"accountId"`
}
