package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Production struct {
	store store.Store
}

func NewProduction(s store.Store) *Production {
	return &Production{store: s}
}

func (r *Production) Create(ctx context.Context, p domain.ProductionRecord) (*domain.ProductionRecord, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionProduction, p.ID, p); err != nil {
		return nil, fmt.Errorf("create production record: %w", err)
	}
	return &p, nil
}

func (r *Production) ListByProduct(ctx context.Context, productID string) ([]domain.ProductionRecord, error) {
	var records []domain.ProductionRecord
	if err := r.store.Find(ctx, store.CollectionProduction, map[string]any{"product_id": productID}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Production) List(ctx context.Context) ([]domain.ProductionRecord, error) {
	var records []domain.ProductionRecord
	if err := r.store.Find(ctx, store.CollectionProduction, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
