// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import "errors"

var (
	// ErrReentrantCall is returned when an entry point is invoked while
	// another entry point still holds the vault lock, e.g. a payout
	// recipient calling back into the vault mid-transfer.
	ErrReentrantCall = errors.New("reentrant call")

	ErrNotOracle           = errors.New("caller is not the oracle")
	ErrAlreadyInscribed    = errors.New("player already inscribed")
	ErrNotInscribed        = errors.New("player not inscribed")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrEmptyHash           = errors.New("hash must not be empty")

	ErrMysteryExists   = errors.New("mystery already exists")
	ErrMysteryNotFound = errors.New("mystery not found")
	ErrMysterySolved   = errors.New("mystery already solved")
	ErrMysteryExpired  = errors.New("mystery expired")

	ErrProofNotReady = errors.New("proof not ready: mystery neither solved nor expired")
	ErrProofRevealed = errors.New("proof already revealed")
	ErrProofMismatch = errors.New("proof hash mismatch")

	ErrPlayerNotFound = errors.New("player not found")
)
