package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Deliveries struct {
	store store.Store
}

func NewDeliveries(s store.Store) *Deliveries {
	return &Deliveries{store: s}
}

func (r *Deliveries) Create(ctx context.Context, d domain.Delivery) (*domain.Delivery, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = domain.DeliveryStatusPending
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionDeliveries, d.ID, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}
	return &d, nil
}

func (r *Deliveries) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	var d domain.Delivery
	if err := r.store.Get(ctx, store.CollectionDeliveries, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Deliveries) ListByOrder(ctx context.Context, orderID string) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	if err := r.store.Find(ctx, store.CollectionDeliveries, map[string]any{"order_id": orderID}, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *Deliveries) List(ctx context.Context) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	if err := r.store.Find(ctx, store.CollectionDeliveries, nil, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *Deliveries) SetStatus(ctx context.Context, id string, status domain.DeliveryStatus) error {
	return r.store.Update(ctx, store.CollectionDeliveries, id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}
