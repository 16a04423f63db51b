package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Products struct {
	store store.Store
}

func NewProducts(s store.Store) *Products {
	return &Products{store: s}
}

func (r *Products) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionProducts, p.ID, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (r *Products) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.store.Get(ctx, store.CollectionProducts, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Products) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var products []domain.Product
	if err := r.store.Find(ctx, store.CollectionProducts, map[string]any{"slug": slug}, &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, store.ErrNotFound
	}
	return &products[0], nil
}

func (r *Products) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.store.Find(ctx, store.CollectionProducts, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
