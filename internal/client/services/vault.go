package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/google/uuid"
)

const maxIDAttempts = 8

var errIDExhausted = errors.New("could not allocate a unique record id")

// IDGenerator hands out record ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random (v4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Advisor audits a single record. It must not fail; see advisory.Client.
type Advisor interface {
	AuditRecord(ctx context.Context, site, loginName string) models.AdvisoryResult
}

// VaultController operates on the records of the account the gate has
// unlocked. Every method fails with ErrInvalidState outside StateVault.
type VaultController struct {
	gate    *Gate
	advisor Advisor
	ids     IDGenerator
}

type VaultOption func(*VaultController)

func WithIDGenerator(ids IDGenerator) VaultOption {
	return func(v *VaultController) { v.ids = ids }
}

// NewVaultController binds a controller to gate. A nil advisor behaves like
// an unreachable oracle: every audit yields the fallback result.
func NewVaultController(gate *Gate, advisor Advisor, opts ...VaultOption) *VaultController {
	if advisor == nil {
		advisor = advisory.NewClient(nil)
	}
	v := &VaultController{gate: gate, advisor: advisor, ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (g *Gate) requireVault() error {
	if g.state != StateVault {
		return ErrInvalidState
	}
	return nil
}

func (g *Gate) indexOf(id string) int {
	return slices.IndexFunc(g.records, func(r models.CredentialRecord) bool { return r.ID == id })
}

func (v *VaultController) newID(g *Gate) (string, error) {
	for range maxIDAttempts {
		id := v.ids.NewID()
		if id != "" && g.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", errIDExhausted
}

// AddRecord appends a record and persists the account's whole vault. Any
// field may be empty; an empty category becomes PERSONAL.
func (v *VaultController) AddRecord(ctx context.Context, site, loginName, secret, category string) (models.CredentialRecord, error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return models.CredentialRecord{}, err
	}
	id, err := v.newID(g)
	if err != nil {
		return models.CredentialRecord{}, err
	}

	cat := models.Category(strings.TrimSpace(category))
	if cat == "" {
		cat = models.DefaultCategory
	}

	rec := models.CredentialRecord{
		ID:           id,
		Site:         site,
		LoginName:    loginName,
		Secret:       secret,
		Category:     cat,
		CreatedAt:    g.now().UTC(),
		StrengthTier: models.StrengthFor(secret),
	}

	sealed, err := rec.Seal(g.vaultKey)
	if err != nil {
		return models.CredentialRecord{}, err
	}

	next := append(slices.Clone(g.sealed), sealed)
	if err := g.vaults.Save(ctx, g.account.ID, next); err != nil {
		return models.CredentialRecord{}, fmt.Errorf("add record: %w", err)
	}

	g.sealed = next
	g.records = append(g.records, rec)
	g.logger.Debug(ctx, "record added", "id", id, "tier", rec.StrengthTier)
	return rec, nil
}

// RemoveRecord deletes the record with id. Removing an absent id is a no-op.
func (v *VaultController) RemoveRecord(ctx context.Context, id string) error {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return err
	}
	if g.indexOf(id) < 0 {
		return nil
	}

	next := slices.DeleteFunc(slices.Clone(g.sealed), func(s models.StoredRecord) bool { return s.ID == id })
	if err := g.vaults.Save(ctx, g.account.ID, next); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}

	g.sealed = next
	g.records = slices.DeleteFunc(g.records, func(r models.CredentialRecord) bool { return r.ID == id })
	delete(g.revealed, id)
	g.logger.Debug(ctx, "record removed", "id", id)
	return nil
}

func matches(r models.CredentialRecord, q string) bool {
	return q == "" ||
		strings.Contains(strings.ToLower(r.Site), q) ||
		strings.Contains(strings.ToLower(r.LoginName), q)
}

// Search yields, in store order, the records whose site or login name
// contains query case-insensitively. The sequence iterates over a snapshot
// taken at call time and can be ranged over any number of times.
func (v *VaultController) Search(query string) (iter.Seq[models.CredentialRecord], error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return nil, err
	}

	snapshot := slices.Clone(g.records)
	q := strings.ToLower(query)

	return func(yield func(models.CredentialRecord) bool) {
		for _, r := range snapshot {
			if !matches(r, q) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}, nil
}

// View is Search rendered for display, secrets masked unless revealed.
func (v *VaultController) View(query string) ([]models.RecordView, error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	out := make([]models.RecordView, 0, len(g.records))
	for _, r := range g.records {
		if !matches(r, q) {
			continue
		}
		_, shown := g.revealed[r.ID]
		out = append(out, models.NewRecordView(r, shown))
	}
	return out, nil
}

// ToggleVisibility flips whether id's secret is shown and returns the new
// visibility. Stored data is not touched.
func (v *VaultController) ToggleVisibility(id string) (bool, error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return false, err
	}
	if g.indexOf(id) < 0 {
		return false, ErrRecordNotFound
	}

	if _, ok := g.revealed[id]; ok {
		delete(g.revealed, id)
		return false, nil
	}
	g.revealed[id] = struct{}{}
	return true, nil
}

// Snapshot returns the sealed records of the active account for export.
// Secrets stay encrypted under the vault key.
func (v *VaultController) Snapshot() (models.VaultSnapshot, error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return models.VaultSnapshot{}, err
	}
	return models.VaultSnapshot{
		AccountID: g.account.ID,
		CreatedAt: g.now().UTC(),
		Records:   slices.Clone(g.sealed),
	}, nil
}
