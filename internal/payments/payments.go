// Package payments models the external value-transfer primitive the ledger
// relies on during ownership transfers. The ledger never implements currency
// logic itself; it only requires that Transfer moves value atomically or
// fails without side effects.
package payments

import (
	"context"
	"errors"

	id "agritrace/pkg/domain"
)

// Transferer atomically moves value between principals. Implementations must
// guarantee all-or-nothing semantics: when Transfer returns an error, no
// balance has changed.
type Transferer interface {
	Transfer(ctx context.Context, from, to id.Principal, amount uint64) error
}

// ErrInsufficientFunds is returned when the payer cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrUnknownAccount is returned when the payer has no account.
var ErrUnknownAccount = errors.New("unknown account")
