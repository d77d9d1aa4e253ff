// Package session keeps the "who is logged in" record in an ephemeral store.
//
// The record is a signed JWT carrying the account id. It never holds the
// master key, so a restored session always lands on the master-key prompt.
// Tokens that fail verification or have expired are dropped on read.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cyphervault/internal/common"
	"github.com/dmitrijs2005/cyphervault/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Key is the ephemeral store key holding the signed session.
	Key = "cyphervault_session"
	// SigningKeyName is the durable store key holding the HMAC key.
	SigningKeyName = "cyphervault_session_key"

	signingKeySize = 32
)

// Claims is the JWT payload of a session.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"accountId"`
}

type Manager struct {
	store  kv.Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

type Option func(*Manager)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(store kv.Repository, secret []byte, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save replaces the current session with one for s.AccountID.
func (m *Manager) Save(ctx context.Context, s models.Session) error {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		AccountID: s.AccountID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	if err := m.store.Set(ctx, Key, []byte(signed)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the current session, or nil when there is none. An invalid
// token is removed and reported as no session.
func (m *Manager) Load(ctx context.Context) (*models.Session, error) {
	raw, err := m.store.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	accountID, err := m.parse(string(raw))
	if err != nil {
		m.logger.Warn(ctx, "discarding session", "error", err)
		if err := m.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &models.Session{AccountID: accountID}, nil
}

func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) parse(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.AccountID, nil
}

// SigningKey loads the session HMAC key from the durable store, creating it
// on first use.
func SigningKey(ctx context.Context, store kv.Repository) ([]byte, error) {
	var key []byte
	err := store.Update(ctx, SigningKeyName, func(current []byte) ([]byte, error) {
		if len(current) == signingKeySize {
			key = current
			return current, nil
		}
		key = common.GenerateRandByteArray(signingKeySize)
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session signing key: %w", err)
	}
	return key, nil
}
