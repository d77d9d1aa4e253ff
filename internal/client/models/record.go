package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/dmitrijs2005/cyphervault/internal/cryptox"
)

// MaskedSecret replaces a secret in list views until it is revealed.
const MaskedSecret = "••••••••"

type Category string

const (
	CategoryPersonal  Category = "PERSONAL"
	CategoryFinancial Category = "FINANCIAL"
	CategorySystem    Category = "SYSTEM"
)

// DefaultCategory is used when a record is added without a category.
const DefaultCategory = CategoryPersonal

type StrengthTier string

const (
	StrengthWeak   StrengthTier = "weak"
	StrengthMedium StrengthTier = "medium"
	StrengthStrong StrengthTier = "strong"
	StrengthUltra  StrengthTier = "ultra"
)

// StrengthFor classifies a secret by its length in UTF-16 code units:
// more than 16 is ultra, more than 12 is strong, anything else medium.
// Characters outside the BMP count twice. StrengthWeak is never produced.
func StrengthFor(secret string) StrengthTier {
	n := utf16Len(secret)
	switch {
	case n > 16:
		return StrengthUltra
	case n > 12:
		return StrengthStrong
	default:
		return StrengthMedium
	}
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

var ErrCorruptRecord = errors.New("corrupt record")

// CredentialRecord is a decrypted vault record. It only exists in memory
// while the vault is unlocked.
type CredentialRecord struct {
	ID           string
	Site         string
	LoginName    string
	Secret       string
	Category     Category
	CreatedAt    time.Time
	StrengthTier StrengthTier
}

// StoredRecord is the persisted form of a CredentialRecord. Everything but
// the secret stays readable so search works on a locked vault snapshot.
type StoredRecord struct {
	ID           string       `json:"id"`
	Site         string       `json:"site"`
	LoginName    string       `json:"loginName"`
	Secret       []byte       `json:"secret"`
	Nonce        []byte       `json:"nonce"`
	Category     Category     `json:"category"`
	CreatedAt    time.Time    `json:"createdAt"`
	StrengthTier StrengthTier `json:"strengthTier"`
}

// Seal encrypts the secret of r under key.
func (r CredentialRecord) Seal(key []byte) (StoredRecord, error) {
	ct, nonce, err := cryptox.EncryptEntry(r.Secret, key)
	if err != nil {
		return StoredRecord{}, fmt.Errorf("seal record %s: %w", r.ID, err)
	}
	return StoredRecord{
		ID:           r.ID,
		Site:         r.Site,
		LoginName:    r.LoginName,
		Secret:       ct,
		Nonce:        nonce,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
		StrengthTier: r.StrengthTier,
	}, nil
}

// Open decrypts s with key. A wrong key or tampered payload yields ErrCorruptRecord.
func (s StoredRecord) Open(key []byte) (CredentialRecord, error) {
	var secret string
	if err := cryptox.DecryptEntry(s.Secret, s.Nonce, key, &secret); err != nil {
		return CredentialRecord{}, fmt.Errorf("open record %s: %w: %v", s.ID, ErrCorruptRecord, err)
	}
	return CredentialRecord{
		ID:           s.ID,
		Site:         s.Site,
		LoginName:    s.LoginName,
		Secret:       secret,
		Category:     s.Category,
		CreatedAt:    s.CreatedAt,
		StrengthTier: s.StrengthTier,
	}, nil
}

// RecordView is how a record is shown in a list: the secret is masked
// unless the record was explicitly revealed.
type RecordView struct {
	ID           string
	Site         string
	LoginName    string
	Secret       string
	Revealed     bool
	Category     Category
	CreatedAt    time.Time
	StrengthTier StrengthTier
}

func NewRecordView(r CredentialRecord, revealed bool) RecordView {
	secret := MaskedSecret
	if revealed {
		secret = r.Secret
	}
	return RecordView{
		ID:           r.ID,
		Site:         r.Site,
		LoginName:    r.LoginName,
		Secret:       secret,
		Revealed:     revealed,
		Category:     r.Category,
		CreatedAt:    r.CreatedAt,
		StrengthTier: r.StrengthTier,
	}
}

// VaultSnapshot is a point-in-time export of an account's sealed records.
type VaultSnapshot struct {
	AccountID string         `json:"accountId"`
	CreatedAt time.Time      `json:"createdAt"`
	Records   []StoredRecord `json:"records"`
}
