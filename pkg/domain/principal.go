package domain

import (
	"strings"

	dErrors "agritrace/pkg/domain-errors"
)

// Principal is an opaque, comparable identifier for a caller or actor
// (farmer, distributor, retailer, admin). The ledger never interprets the
// value beyond equality; identity resolution belongs to the auth layer.
//
// Usage: construct via ParsePrincipal at trust boundaries; direct casting
// bypasses the non-empty check.
type Principal string

// ParsePrincipal constructs a Principal from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or whitespace-only.
func ParsePrincipal(s string) (Principal, error) {
	p := Principal(strings.TrimSpace(s))
	if p.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal cannot be empty")
	}
	return p, nil
}

// IsZero reports whether the principal is the zero (absent) principal.
func (p Principal) IsZero() bool {
	return p == ""
}

// String returns the string representation of the principal.
func (p Principal) String() string {
	return string(p)
}
