package domain

import (
	"strconv"

	dErrors "agritrace/pkg/domain-errors"
)

// ProductID identifies a product record in the ledger.
//
// Invariant: valid IDs are dense positive integers assigned sequentially from
// 1 by the product store; 0 is never a valid ID.
type ProductID uint64

// ParseProductID constructs a ProductID from external input (path params).
//
// Errors: returns CodeInvalidInput for non-numeric or zero values.
func ParseProductID(s string) (ProductID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "product id must be a positive integer")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "product id must be a positive integer")
	}
	return ProductID(n), nil
}

// IsZero reports whether the ID is unassigned.
func (id ProductID) IsZero() bool {
	return id == 0
}

// String returns the decimal representation of the ID.
func (id ProductID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
