package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/entries"
	"github.com/dmitrijs2005/cyphervault/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cyphervault/internal/client/session"
	"github.com/dmitrijs2005/cyphervault/internal/cryptox"
	"github.com/stretchr/testify/require"
)

var testKDF = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("rec-%d", s.n)
}

type scriptedIDs struct{ ids []string }

func (s *scriptedIDs) NewID() string {
	if len(s.ids) == 0 {
		return ""
	}
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id
}

// fakeAdvisor returns result, optionally blocking until release is closed.
type fakeAdvisor struct {
	result  models.AdvisoryResult
	release chan struct{}
}

func (f *fakeAdvisor) AuditRecord(ctx context.Context, site, loginName string) models.AdvisoryResult {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return advisory.FallbackAudit()
		}
	}
	return f.result
}

type fixture struct {
	durable   *kv.MemoryRepository
	ephemeral *kv.MemoryRepository
	sessions  *session.Manager
	gate      *Gate
	vault     *VaultController
	advisor   *fakeAdvisor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		durable:   kv.NewMemoryRepository(),
		ephemeral: kv.NewMemoryRepository(),
		advisor: &fakeAdvisor{result: models.AdvisoryResult{
			Score:           12,
			Vulnerabilities: []string{"credential stuffing"},
			Recommendations: []string{"enable 2FA"},
		}},
	}
	f.sessions = session.NewManager(f.ephemeral, []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	f.reopen(t)
	return f
}

// reopen builds a fresh gate and controller over the same stores, as a
// process restart would.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	f.gate = NewGate(
		accounts.NewKVRepository(f.durable),
		entries.NewKVRepository(f.durable),
		f.sessions,
		WithKDFParams(testKDF),
		WithClock(func() time.Time { return testNow }),
	)
	f.vault = NewVaultController(f.gate, f.advisor, WithIDGenerator(&seqIDs{}))
	require.NoError(t, f.gate.Restore(context.Background()))
}

func (f *fixture) signup(t *testing.T, id, cred, mk string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.gate.SwitchToSignup())
	require.NoError(t, f.gate.SubmitNewAccount(ctx, id, []byte(cred), []byte(cred), []byte(mk)))
}

func (f *fixture) login(t *testing.T, id, cred string) {
	t.Helper()
	require.NoError(t, f.gate.SubmitCredential(context.Background(), id, []byte(cred)))
}

func (f *fixture) unlock(t *testing.T, mk string) {
	t.Helper()
	require.NoError(t, f.gate.SubmitMasterKey(context.Background(), []byte(mk)))
}

// unlocked returns a fixture with neo/pw1/mk1 signed up, logged in and unlocked.
func unlocked(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.signup(t, "neo", "pw1", "mk1")
	f.login(t, "neo", "pw1")
	f.unlock(t, "mk1")
	return f
}

func collect(t *testing.T, v *VaultController, q string) []models.CredentialRecord {
	t.Helper()
	seq, err := v.Search(q)
	require.NoError(t, err)
	var out []models.CredentialRecord
	for r := range seq {
		out = append(out, r)
	}
	return out
}
