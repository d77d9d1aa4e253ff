package services

import (
	"context"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
)

// viewToken ties an audit to the unlocked view that started it.
type viewToken struct {
	accountID string
	epoch     uint64
}

// AuditTask is a running audit. Done is closed once the result is known
// and either attached or discarded.
type AuditTask struct {
	RecordID string

	done    chan struct{}
	result  models.AdvisoryResult
	applied bool
}

func (t *AuditTask) Done() <-chan struct{} { return t.done }

// Result reports the advisory result and whether it was attached to the
// vault. Only meaningful after Done is closed.
func (t *AuditTask) Result() (models.AdvisoryResult, bool) {
	<-t.done
	return t.result, t.applied
}

// Wait blocks until the task finishes or ctx ends.
func (t *AuditTask) Wait(ctx context.Context) (models.AdvisoryResult, bool, error) {
	select {
	case <-t.done:
		return t.result, t.applied, nil
	case <-ctx.Done():
		return models.AdvisoryResult{}, false, ctx.Err()
	}
}

// auditSlot holds the single in-flight audit and the single attached result.
type auditSlot struct {
	task     *AuditTask
	cancel   context.CancelFunc
	attached *models.AttachedAudit
}

func (s *auditSlot) reset() {
	if s.cancel != nil {
		s.cancel()
	}
	s.task = nil
	s.cancel = nil
	s.attached = nil
}

// RequestAudit starts an asynchronous audit of record id. Only one audit
// runs at a time. The task lives as long as ctx, and is cancelled early by
// Relock or Logout, in which case its result is discarded.
func (v *VaultController) RequestAudit(ctx context.Context, id string) (*AuditTask, error) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireVault(); err != nil {
		return nil, err
	}
	if g.audit.task != nil {
		return nil, ErrAuditInProgress
	}
	idx := g.indexOf(id)
	if idx < 0 {
		return nil, ErrRecordNotFound
	}
	rec := g.records[idx]

	actx, cancel := context.WithCancel(ctx)
	task := &AuditTask{RecordID: id, done: make(chan struct{})}
	g.audit.task = task
	g.audit.cancel = cancel

	go v.runAudit(actx, cancel, task, g.token(), rec.Site, rec.LoginName)
	g.logger.Debug(ctx, "audit started", "id", id)
	return task, nil
}

func (v *VaultController) runAudit(ctx context.Context, cancel context.CancelFunc, task *AuditTask, token viewToken, site, loginName string) {
	defer close(task.done)
	defer cancel()

	res := v.advisor.AuditRecord(ctx, site, loginName)

	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.audit.task == task {
		g.audit.task = nil
		g.audit.cancel = nil
	}
	task.result = res

	if ctx.Err() != nil || !g.tokenValid(token) || g.indexOf(task.RecordID) < 0 {
		g.logger.Warn(ctx, "discarding stale audit result", "id", task.RecordID)
		return
	}

	g.audit.attached = &models.AttachedAudit{
		RecordID:    task.RecordID,
		Result:      res,
		CompletedAt: g.now().UTC(),
	}
	task.applied = true
}

// Auditing reports whether an audit is in flight.
func (v *VaultController) Auditing() bool {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.audit.task != nil
}

// ActiveAudit returns the most recently attached audit result, if any.
func (v *VaultController) ActiveAudit() (models.AttachedAudit, bool) {
	g := v.gate
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateVault || g.audit.attached == nil {
		return models.AttachedAudit{}, false
	}
	return *g.audit.attached, true
}
