// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger tracks native-currency balances for the bounty economy.
// The vault never holds raw numbers itself: every fee, stake and payout is
// a transfer between ledger accounts, so value is conserved by construction.
package ledger

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Payer executes an outbound value transfer. The vault pays bounties
// through this interface so a recipient that rejects the transfer (or a
// test that injects a failure) unwinds the whole solving operation.
type Payer interface {
	Pay(from, to string, amount decimal.Decimal) error
}

// Ledger is an in-memory account book. Accounts are created on first
// credit; balances never go negative.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[string]decimal.Decimal),
	}
}

// Mint credits an account out of thin air. Used for genesis funding and
// tests; the vault itself never mints.
func (l *Ledger) Mint(account string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balances[account].Add(amount)
	return nil
}

// Transfer moves amount from one account to another. It either fully
// applies or fully fails; there is no partial debit.
func (l *Ledger) Transfer(from, to string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[from]
	if !exists || balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	l.balances[from] = balance.Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}

// Pay implements Payer via a plain transfer.
func (l *Ledger) Pay(from, to string, amount decimal.Decimal) error {
	return l.Transfer(from, to, amount)
}

// Balance returns the current balance of an account (zero if unknown).
func (l *Ledger) Balance(account string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// SetBalance overwrites an account balance. For tests and state recovery.
func (l *Ledger) SetBalance(account string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = amount
}
