// Package stock is the exclusive arbiter of product stock. All stock changes
// go through the ledger; nothing else writes the products.stock field.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

const stockField = "stock"

type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Decrement reserves quantity units of a product with one conditional write:
// "subtract quantity if and only if stock >= quantity", evaluated atomically by
// the store. Two buyers racing for the last unit resolve there: exactly one
// wins. The ledger never retries; that policy belongs to the caller.
func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	next, err := l.store.IncrementIf(ctx, store.CollectionProducts, productID, stockField, -quantity, quantity)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	case errors.Is(err, store.ErrConditionFailed):
		// The backend may not distinguish a missing product from a failed
		// guard; re-read to report the right error.
		var p domain.Product
		if getErr := l.store.Get(ctx, store.CollectionProducts, productID, &p); errors.Is(getErr, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return 0, fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	default:
		return 0, fmt.Errorf("decrement stock for %s: %w", productID, err)
	}
}

// Restore reverses a prior Decrement with an unconditional increment. Adding
// back toward the pre-decrement value is always safe relative to the decrement
// being compensated, so no guard is needed.
func (l *Ledger) Restore(ctx context.Context, productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	next, err := l.store.Increment(ctx, store.CollectionProducts, productID, stockField, quantity)
	if errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("restore stock for %s: %w", productID, err)
	}
	return next, nil
}
