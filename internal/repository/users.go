// Package repository provides typed data access over the document store. Repos
// are thin: identity and timestamps are assigned here, business rules live in
// the callers.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

type Users struct {
	store store.Store
}

func NewUsers(s store.Store) *Users {
	return &Users{store: s}
}

func (r *Users) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.UID == "" {
		u.UID = u.ID
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := r.store.Insert(ctx, store.CollectionUsers, u.ID, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (r *Users) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.store.Get(ctx, store.CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var users []domain.User
	if err := r.store.Find(ctx, store.CollectionUsers, map[string]any{"email": email}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return &users[0], nil
}

func (r *Users) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.store.Find(ctx, store.CollectionUsers, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Users) UpdateRole(ctx context.Context, id, newRole string) error {
	return r.store.Update(ctx, store.CollectionUsers, id, map[string]any{
		"role":       newRole,
		"updated_at": time.Now().UTC(),
	})
}
