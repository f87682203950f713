// Package ledger defines the credit/quota collaborator contract consumed by
// the workflow engine. Billing bookkeeping itself lives outside this system;
// the in-memory implementation backs tests and single-user deployments.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInsufficientQuota indicates the account balance cannot cover a charge.
// It is surfaced with a distinguishable status so callers can prompt for
// payment.
var ErrInsufficientQuota = errors.New("insufficient quota")

// Ledger charges generation credits against an account.
type Ledger interface {
	// Charge deducts amount from the account and returns the remaining
	// balance, or ErrInsufficientQuota.
	Charge(ctx context.Context, account string, amount int64) (int64, error)
}

// MemoryLedger is an in-memory Ledger.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

// NewMemoryLedger creates a ledger with no accounts.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int64)}
}

// Credit adds balance to an account.
func (l *MemoryLedger) Credit(account string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Balance returns the current balance for an account.
func (l *MemoryLedger) Balance(account string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Charge deducts amount, failing without side effects when the balance is
// too low.
func (l *MemoryLedger) Charge(_ context.Context, account string, amount int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[account]
	if balance < amount {
		return balance, fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientQuota, account, balance, amount)
	}
	l.balances[account] = balance - amount
	return balance - amount, nil
}

// Unlimited is a Ledger that never refuses a charge. It is the default when
// no external ledger is wired.
type Unlimited struct{}

// Charge always succeeds.
func (Unlimited) Charge(context.Context, string, int64) (int64, error) { return 0, nil }

var (
	_ Ledger = (*MemoryLedger)(nil)
	_ Ledger = Unlimited{}
)
