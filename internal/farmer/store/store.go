// Package store persists the verified-farmer set. The set only grows; there
// is no revocation operation.
package store

import (
	"context"

	id "agritrace/pkg/domain"
)

// FarmerStore tracks which principals may register products.
type FarmerStore interface {
	// Add marks a principal as verified. Returns sentinel.ErrConflict when
	// the principal is already in the set.
	Add(ctx context.Context, farmer id.Principal) error

	// Contains reports membership.
	Contains(ctx context.Context, farmer id.Principal) (bool, error)
}
