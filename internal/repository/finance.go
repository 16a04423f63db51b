package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Finances struct {
	store store.Store
}

func NewFinances(s store.Store) *Finances {
	return &Finances{store: s}
}

func (r *Finances) Create(ctx context.Context, f domain.FinanceRecord) (*domain.FinanceRecord, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionFinances, f.ID, f); err != nil {
		return nil, fmt.Errorf("create finance record: %w", err)
	}
	return &f, nil
}

func (r *Finances) ListByOrder(ctx context.Context, orderID string) ([]domain.FinanceRecord, error) {
	var records []domain.FinanceRecord
	if err := r.store.Find(ctx, store.CollectionFinances, map[string]any{"order_id": orderID}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Finances) List(ctx context.Context) ([]domain.FinanceRecord, error) {
	var records []domain.FinanceRecord
	if err := r.store.Find(ctx, store.CollectionFinances, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
