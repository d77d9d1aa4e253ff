// Package services holds the client's application logic: the access gate
// that moves a user from logged out to an unlocked vault, and the vault
// controller that operates on records once unlocked.
//
// Both share one mutex, so gate transitions, record mutations and the
// application of audit results never interleave.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/entries"
	"github.com/dmitrijs2005/cyphervault/internal/common"
	"github.com/dmitrijs2005/cyphervault/internal/cryptox"
	"github.com/dmitrijs2005/cyphervault/internal/logging"
)

// State is the gate's position in the LOGIN, SIGNUP, MASTER_UNLOCK, VAULT cycle.
type State string

const (
	StateLogin        State = "LOGIN"
	StateSignup       State = "SIGNUP"
	StateMasterUnlock State = "MASTER_UNLOCK"
	StateVault        State = "VAULT"
)

// SessionStore persists which account is logged in.
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

// Gate is the access state machine:
//
//	LOGIN  --SubmitCredential-->  MASTER_UNLOCK  --SubmitMasterKey-->  VAULT
//	LOGIN <--SwitchToLogin/SwitchToSignup--> SIGNUP
//	SIGNUP --SubmitNewAccount--> LOGIN
//	VAULT  --Relock--> MASTER_UNLOCK
//	MASTER_UNLOCK | VAULT --Logout--> LOGIN
//
// Operations called from any other state fail with ErrInvalidState. A failed
// operation leaves the state, session and stores untouched.
type Gate struct {
	mu sync.Mutex

	accounts accounts.Repository
	vaults   entries.Repository
	sessions SessionStore
	kdf      cryptox.Params
	logger   logging.Logger
	now      func() time.Time

	state   State
	account models.Account
	sealed  []models.StoredRecord

	// set only in StateVault
	vaultKey []byte
	records  []models.CredentialRecord
	revealed map[string]struct{}

	// epoch identifies the current view session; bumped on relock and logout.
	epoch uint64
	audit auditSlot
}

// GateOption configures a Gate in NewGate.
type GateOption func(*Gate)

// WithKDFParams sets the Argon2id cost for newly created accounts.
func WithKDFParams(p cryptox.Params) GateOption {
	return func(g *Gate) { g.kdf = p }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// WithClock replaces time.Now for every timestamp the gate records.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate constructs a Gate in StateLogin. Call Restore to resume a saved
// session.
func NewGate(accountsRepo accounts.Repository, vaults entries.Repository, sessions SessionStore, opts ...GateOption) *Gate {
	g := &Gate{
		accounts: accountsRepo,
		vaults:   vaults,
		sessions: sessions,
		kdf:      cryptox.DefaultParams,
		logger:   logging.NewNopLogger(),
		now:      time.Now,
		state:    StateLogin,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// ActiveAccount returns the sessioned account id, or "" when logged out.
func (g *Gate) ActiveAccount() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.account.ID
}

// Restore computes the initial state from the persisted session: a valid
// session for an existing account lands on MASTER_UNLOCK, anything else on
// LOGIN. A session whose account is gone is cleared.
func (g *Gate) Restore(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if s == nil {
		g.state = StateLogin
		return nil
	}

	acc, err := g.accounts.Get(ctx, s.AccountID)
	if errors.Is(err, accounts.ErrNotFound) {
		g.logger.Warn(ctx, "session references unknown account, discarding", "account", s.AccountID)
		if err := g.sessions.Clear(ctx); err != nil {
			return err
		}
		g.state = StateLogin
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	sealed, err := g.vaults.Load(ctx, acc.ID)
	if err != nil {
		return err
	}

	g.account = acc
	g.sealed = sealed
	g.state = StateMasterUnlock
	g.logger.Info(ctx, "session restored", "account", acc.ID)
	return nil
}

// SwitchToSignup moves LOGIN to SIGNUP; any other state is ErrInvalidState.
func (g *Gate) SwitchToSignup() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateLogin {
		return ErrInvalidState
	}
	g.state = StateSignup
	return nil
}

// SwitchToLogin moves SIGNUP back to LOGIN.
func (g *Gate) SwitchToLogin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateSignup {
		return ErrInvalidState
	}
	g.state = StateLogin
	return nil
}

// SubmitNewAccount registers an account and returns to LOGIN without
// logging in. The credential and master key are kept only as verifiers.
func (g *Gate) SubmitNewAccount(ctx context.Context, id string, credential, confirm, masterKey []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateSignup {
		return ErrInvalidState
	}
	if strings.TrimSpace(id) == "" || len(credential) == 0 || len(masterKey) == 0 {
		return ErrMissingFields
	}
	if !bytes.Equal(credential, confirm) {
		return ErrCredentialMismatch
	}

	acc := models.Account{
		ID:             id,
		CredentialSalt: cryptox.NewSalt(),
		MasterKeySalt:  cryptox.NewSalt(),
		KDF:            g.kdf,
		CreatedAt:      g.now().UTC(),
	}

	credKey := cryptox.DeriveKey(credential, acc.CredentialSalt, acc.KDF)
	acc.CredentialVerifier = cryptox.MakeVerifier(credKey)
	common.WipeByteArray(credKey)

	vaultKey := cryptox.DeriveKey(masterKey, acc.MasterKeySalt, acc.KDF)
	acc.MasterKeyVerifier = cryptox.MakeVerifier(vaultKey)
	common.WipeByteArray(vaultKey)

	if err := g.accounts.Insert(ctx, acc); err != nil {
		if errors.Is(err, accounts.ErrAccountExists) {
			return ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}

	g.state = StateLogin
	g.logger.Info(ctx, "account created", "account", id)
	return nil
}

// SubmitCredential checks the account credential, opens a session and moves
// to MASTER_UNLOCK.
func (g *Gate) SubmitCredential(ctx context.Context, id string, credential []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLogin {
		return ErrInvalidState
	}

	acc, err := g.accounts.Get(ctx, id)
	if errors.Is(err, accounts.ErrNotFound) {
		// spend the same work as a real check so unknown ids are not cheaper
		common.WipeByteArray(cryptox.DeriveKey(credential, cryptox.NewSalt(), g.kdf))
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	key := cryptox.DeriveKey(credential, acc.CredentialSalt, acc.KDF)
	ok := cryptox.CheckVerifier(key, acc.CredentialVerifier)
	common.WipeByteArray(key)
	if !ok {
		return ErrInvalidCredentials
	}

	sealed, err := g.vaults.Load(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := g.sessions.Save(ctx, models.Session{AccountID: acc.ID}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	g.account = acc
	g.sealed = sealed
	g.state = StateMasterUnlock
	g.logger.Info(ctx, "logged in", "account", acc.ID)
	return nil
}

// SubmitMasterKey derives the vault key and decrypts the account's records.
// A wrong key yields ErrDecryptionFailed and keeps the gate at MASTER_UNLOCK.
func (g *Gate) SubmitMasterKey(ctx context.Context, masterKey []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateMasterUnlock {
		return ErrInvalidState
	}

	key := cryptox.DeriveKey(masterKey, g.account.MasterKeySalt, g.account.KDF)
	if !cryptox.CheckVerifier(key, g.account.MasterKeyVerifier) {
		common.WipeByteArray(key)
		return ErrDecryptionFailed
	}

	sealed, err := g.vaults.Load(ctx, g.account.ID)
	if err != nil {
		common.WipeByteArray(key)
		return fmt.Errorf("unlock: %w", err)
	}

	records := make([]models.CredentialRecord, 0, len(sealed))
	for _, s := range sealed {
		rec, err := s.Open(key)
		if err != nil {
			common.WipeByteArray(key)
			return fmt.Errorf("unlock: %w", err)
		}
		records = append(records, rec)
	}

	g.sealed = sealed
	g.vaultKey = key
	g.records = records
	g.revealed = make(map[string]struct{})
	g.state = StateVault
	g.logger.Info(ctx, "vault unlocked", "account", g.account.ID, "records", len(records))
	return nil
}

// Relock drops the decrypted vault but keeps the session.
func (g *Gate) Relock(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateVault {
		return ErrInvalidState
	}
	g.endViewSession()
	g.state = StateMasterUnlock
	g.logger.Info(ctx, "vault relocked", "account", g.account.ID)
	return nil
}

// Logout destroys the session and every piece of in-memory account state.
// Persisted accounts and vaults are left alone.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateMasterUnlock && g.state != StateVault {
		return ErrInvalidState
	}
	if err := g.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	id := g.account.ID
	g.endViewSession()
	g.account = models.Account{}
	g.sealed = nil
	g.state = StateLogin
	g.logger.Info(ctx, "logged out", "account", id)
	return nil
}

// endViewSession invalidates everything tied to the unlocked view: revealed
// secrets, the vault key, the plaintext records and any running audit.
// Callers hold g.mu.
func (g *Gate) endViewSession() {
	g.epoch++
	g.audit.reset()
	common.WipeByteArray(g.vaultKey)
	g.vaultKey = nil
	g.records = nil
	g.revealed = nil
}

func (g *Gate) token() viewToken {
	return viewToken{accountID: g.account.ID, epoch: g.epoch}
}

func (g *Gate) tokenValid(t viewToken) bool {
	return g.state == StateVault && g.account.ID == t.accountID && g.epoch == t.epoch
}
