package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Orders struct {
	store store.Store
}

func NewOrders(s store.Store) *Orders {
	return &Orders{store: s}
}

// Create persists a new order. Status is forced to pending: orders enter the
// system in their initial state and only move via SetStatus.
func (r *Orders) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Status = domain.OrderStatusPending
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionOrders, o.ID, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &o, nil
}

func (r *Orders) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.store.Get(ctx, store.CollectionOrders, id, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Orders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := r.store.Find(ctx, store.CollectionOrders, map[string]any{"user_id": userID}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Orders) List(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := r.store.Find(ctx, store.CollectionOrders, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetStatus moves an order along the status machine. Terminal statuses are
// final: confirmed and failed orders never change again.
func (r *Orders) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.Status, status)
	}
	return r.store.Update(ctx, store.CollectionOrders, id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
}
