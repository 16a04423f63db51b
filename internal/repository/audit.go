package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type AuditLogs struct {
	store store.Store
}

func NewAuditLogs(s store.Store) *AuditLogs {
	return &AuditLogs{store: s}
}

// Append inserts an audit entry. The collection is append-only; this repo
// exposes no update or delete.
func (r *AuditLogs) Append(ctx context.Context, e domain.AuditEntry) (*domain.AuditEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := r.store.Insert(ctx, store.CollectionAuditLogs, e.ID, e); err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return &e, nil
}

func (r *AuditLogs) List(ctx context.Context) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	if err := r.store.Find(ctx, store.CollectionAuditLogs, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
