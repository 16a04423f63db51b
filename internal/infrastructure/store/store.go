// Package store provides the document store used by every component. Documents
// are schemaless JSON values addressed by collection and id. The store exposes
// per-document atomic primitives only; there is no multi-document transaction,
// so cross-collection consistency is the caller's responsibility.
package store

import (
	"context"
	"errors"
)

// Collections persisted by the platform.
const (
	CollectionUsers      = "users"
	CollectionProducts   = "products"
	CollectionOrders     = "orders"
	CollectionDeliveries = "deliveries"
	CollectionFinances   = "finances"
	CollectionProduction = "production"
	CollectionAuditLogs  = "audit_logs"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateID     = errors.New("document id already exists")
	ErrConditionFailed = errors.New("conditional update failed")
)

// Store is the document store contract. Every implementation must make
// IncrementIf a single atomic operation against the backing store: two
// concurrent callers racing for the same counter resolve deterministically,
// with no read-then-write window.
type Store interface {
	// Insert stores a new document. Fails with ErrDuplicateID if the id is taken.
	Insert(ctx context.Context, collection, id string, doc any) error

	// Get decodes the document with the given id into out (a pointer).
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string, out any) error

	// Find decodes all documents matching the equality filter into out
	// (a pointer to a slice). A nil filter matches the whole collection.
	Find(ctx context.Context, collection string, filter map[string]any, out any) error

	// Update sets the given top-level fields on an existing document.
	// Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// IncrementIf atomically adds delta to a numeric field if and only if the
	// current value is at least min, returning the new value. Returns
	// ErrConditionFailed when the guard does not hold and ErrNotFound when the
	// implementation can tell the document is missing (some backends cannot
	// distinguish the two and report ErrConditionFailed for both).
	IncrementIf(ctx context.Context, collection, id, field string, delta, min int) (int, error)

	// Increment atomically adds delta to a numeric field unconditionally,
	// returning the new value. Returns ErrNotFound if the document is missing.
	Increment(ctx context.Context, collection, id, field string, delta int) (int, error)

	// Close releases the underlying connection, if any.
	Close() error
}
