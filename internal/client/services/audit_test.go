package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/advisory"
	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitTask(t *testing.T, task *AuditTask) (models.AdvisoryResult, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, applied, err := task.Wait(ctx)
	require.NoError(t, err)
	return res, applied
}

func TestRequestAudit_AttachesResult(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	rec, err := f.vault.AddRecord(ctx, "example.com", "neo@x", "s3cr3t!!", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, rec.ID)
	require.NoError(t, err)

	res, applied := waitTask(t, task)
	assert.True(t, applied)
	assert.Equal(t, f.advisor.result, res)
	assert.False(t, f.vault.Auditing())

	got, ok := f.vault.ActiveAudit()
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.RecordID)
	assert.Equal(t, 12, got.Result.Score)
}

func TestRequestAudit_SingleOutstanding(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	f.advisor.release = make(chan struct{})

	a, err := f.vault.AddRecord(ctx, "a.com", "", "p", "")
	require.NoError(t, err)
	b, err := f.vault.AddRecord(ctx, "b.com", "", "p", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, f.vault.Auditing())

	_, err = f.vault.RequestAudit(ctx, b.ID)
	require.ErrorIs(t, err, ErrAuditInProgress)

	// the vault stays usable while the audit runs
	_, err = f.vault.AddRecord(ctx, "c.com", "", "p", "")
	require.NoError(t, err)
	assert.Len(t, collect(t, f.vault, ""), 3)

	close(f.advisor.release)
	_, applied := waitTask(t, task)
	assert.True(t, applied)

	task, err = f.vault.RequestAudit(ctx, b.ID)
	require.NoError(t, err)
	waitTask(t, task)

	got, ok := f.vault.ActiveAudit()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.RecordID, "a newer audit replaces the attached one")
}

func TestRequestAudit_UnknownRecord(t *testing.T) {
	f := unlocked(t)
	_, err := f.vault.RequestAudit(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.False(t, f.vault.Auditing())
}

func TestRequestAudit_RelockDiscardsResult(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	f.advisor.release = make(chan struct{})
	rec, err := f.vault.AddRecord(ctx, "example.com", "neo@x", "p", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, rec.ID)
	require.NoError(t, err)

	require.NoError(t, f.gate.Relock(ctx))
	_, applied := waitTask(t, task)
	assert.False(t, applied)

	f.unlock(t, "mk1")
	_, ok := f.vault.ActiveAudit()
	assert.False(t, ok)
	assert.False(t, f.vault.Auditing())
}

func TestRequestAudit_LogoutDiscardsResult(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	f.advisor.release = make(chan struct{})
	rec, err := f.vault.AddRecord(ctx, "example.com", "neo@x", "p", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, rec.ID)
	require.NoError(t, err)
	require.NoError(t, f.gate.Logout(ctx))

	_, applied := waitTask(t, task)
	assert.False(t, applied)
}

func TestRequestAudit_RemovedRecordDiscardsResult(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	f.advisor.release = make(chan struct{})
	rec, err := f.vault.AddRecord(ctx, "example.com", "neo@x", "p", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, rec.ID)
	require.NoError(t, err)
	require.NoError(t, f.vault.RemoveRecord(ctx, rec.ID))
	close(f.advisor.release)

	_, applied := waitTask(t, task)
	assert.False(t, applied)
	_, ok := f.vault.ActiveAudit()
	assert.False(t, ok)
}

func TestRequestAudit_UnreachableOracleAttachesFallback(t *testing.T) {
	ctx := context.Background()
	f := unlocked(t)
	f.vault = NewVaultController(f.gate, nil)

	rec, err := f.vault.AddRecord(ctx, "example.com", "neo@x", "s3cr3t!!", "")
	require.NoError(t, err)

	task, err := f.vault.RequestAudit(ctx, rec.ID)
	require.NoError(t, err)
	res, applied := waitTask(t, task)

	assert.True(t, applied)
	assert.Equal(t, advisory.FallbackAudit(), res)
	assert.Len(t, collect(t, f.vault, ""), 1, "vault unchanged by a failed audit")
}
