package payments

import (
	"context"
	"sync"

	id "agritrace/pkg/domain"
)

// MemoryBank is an in-process Transferer keeping balances in a map. It backs
// tests, demos, and single-node deployments; production deployments plug in
// a real payment rail behind the same interface.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[id.Principal]uint64
}

// NewMemoryBank constructs an empty bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[id.Principal]uint64)}
}

// Deposit credits an account. Used to seed balances.
func (b *MemoryBank) Deposit(account id.Principal, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// Balance returns the current balance of an account.
func (b *MemoryBank) Balance(account id.Principal) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Transfer moves amount from one account to the other under a single lock,
// so the debit and credit are observed together or not at all.
func (b *MemoryBank) Transfer(_ context.Context, from, to id.Principal, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance, ok := b.balances[from]
	if !ok {
		return ErrUnknownAccount
	}
	if balance < amount {
		return ErrInsufficientFunds
	}
	b.balances[from] = balance - amount
	b.balances[to] += amount
	return nil
}
