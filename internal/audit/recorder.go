// Package audit records state-changing actions to the append-only audit log.
// Recording is best-effort: a failed write must never fail the operation that
// triggered it, so failures are logged with the action name and swallowed.
package audit

import (
	"context"
	"log"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/repository"
)

type Recorder struct {
	logs *repository.AuditLogs
}

func NewRecorder(logs *repository.AuditLogs) *Recorder {
	return &Recorder{logs: logs}
}

// Record appends one audit entry. The write failure, if any, is reported to the
// caller so it can be logged in context, but callers are expected to ignore it.
func (r *Recorder) Record(ctx context.Context, e domain.AuditEntry) error {
	if _, err := r.logs.Append(ctx, e); err != nil {
		log.Printf("[Audit] dropped entry action=%s resource=%s: %v", e.Action, e.ResourceID, err)
		return err
	}
	return nil
}
