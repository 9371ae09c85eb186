// Package store persists product records. Stores are interface-driven to
// keep the ledger service testable and to allow swapping in-memory and
// PostgreSQL persistence without rewiring business code.
package store

import (
	"context"

	"agritrace/internal/ledger/models"
	id "agritrace/pkg/domain"
)

// ProductStore owns the product table, the per-product ownership history, and
// the monotonic product counter.
//
// IDs are dense integers in [1, counter]; the counter only increases and no
// product is ever deleted.
type ProductStore interface {
	// Create allocates the next sequential ID, assigns it to the product,
	// and persists the record. Returns the allocated ID.
	Create(ctx context.Context, product *models.Product) (id.ProductID, error)

	// FindByID returns a snapshot copy of the product, or
	// sentinel.ErrNotFound when the ID is outside [1, counter].
	FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error)

	// Execute runs fn against the product under an exclusive lock (mutex in
	// memory, SELECT ... FOR UPDATE in PostgreSQL). Mutations made by fn are
	// persisted if and only if fn returns nil; any error discards every
	// change. fn may call out to external collaborators (the payment
	// primitive) while the lock is held — this is what makes
	// transfer-with-payment a single atomic transaction with no visible
	// intermediate state.
	//
	// Returns the committed snapshot, or sentinel.ErrNotFound.
	Execute(ctx context.Context, productID id.ProductID, fn func(product *models.Product) error) (*models.Product, error)

	// Count returns the product counter (the highest allocated ID).
	Count(ctx context.Context) (uint64, error)
}
