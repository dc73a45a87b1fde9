// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veilgame/bountyvault/pkg/ids"
)

// Ledger accounts owned by the vault. The escrow account backs every
// bounty pool; the treasury account collects inscription-fee halves and
// split remainders.
const (
	EscrowAccount   = "vault:escrow"
	TreasuryAccount = "vault:treasury"
)

// Fee constants. Fixed at deployment; changing them means a new deployment.
var (
	// InscriptionFee is the one-time anti-sybil registration fee.
	InscriptionFee = decimal.NewFromInt(10)

	// BaseFee anchors the quadratic submission fee schedule.
	BaseFee = decimal.NewFromInt(1)
)

// ReputationPerDifficulty scales the reputation reward for a solve.
const ReputationPerDifficulty = 100

// Mystery is one puzzle instance under escrow. The vault never learns the
// plaintext answer or proof; it stores digests and verifies byte-exact.
type Mystery struct {
	ID            ids.ID
	AnswerHash    [32]byte
	ProofHash     [32]byte
	BountyPool    decimal.Decimal
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Difficulty    uint8
	Solved        bool
	Solver        string
	ProofRevealed bool
	ProofData     []byte

	// Metadata is an opaque blob for the frontend (question text, document
	// counts). Verification never consults it.
	Metadata json.RawMessage
}

// Expired reports whether the mystery's contest window has closed at t.
func (m *Mystery) Expired(t time.Time) bool {
	return t.After(m.ExpiresAt)
}

// Active reports whether the mystery can still accept submissions at t.
func (m *Mystery) Active(t time.Time) bool {
	return !m.Solved && t.Before(m.ExpiresAt)
}

// PlayerStats tracks one inscribed address. All counters are
// monotonically non-decreasing.
type PlayerStats struct {
	Address          string
	InscribedAt      time.Time
	MysteriesSolved  uint64
	TotalBountyWon   decimal.Decimal
	TotalSubmissions uint64
	Reputation       uint64
}

// LeaderboardEntry pairs an address with its current standing.
type LeaderboardEntry struct {
	Address         string `json:"address"`
	Reputation      uint64 `json:"reputation"`
	MysteriesSolved uint64 `json:"mysteries_solved"`
}

// InscriptionReceipt reports how an inscription fee was split.
type InscriptionReceipt struct {
	Player           string
	Payment          decimal.Decimal
	PoolContribution decimal.Decimal // per active mystery
	PoolsFunded      int
	TreasuryShare    decimal.Decimal
}

// SubmissionResult reports the outcome of a syntactically valid
// submission. A wrong answer is a successful call with Correct=false.
type SubmissionResult struct {
	Correct bool
	Attempt uint64          // attempt index used for the fee (0-based)
	Fee     decimal.Decimal // minimum fee that was due
	Paid    decimal.Decimal // value actually attached
	Payout  decimal.Decimal // full pool on a win, zero otherwise
	Pool    decimal.Decimal // pool after the submission
}

// FeeForAttempt computes the quadratic submission fee:
// fee(n) = BaseFee + n^2 * BaseFee, so 1, 2, 5, 10, 17, ... times BaseFee.
func FeeForAttempt(n uint64) decimal.Decimal {
	nd := decimal.NewFromInt(int64(n))
	return BaseFee.Add(nd.Mul(nd).Mul(BaseFee))
}

func attemptKey(player string, id ids.ID) string {
	return player + "/" + id.String()
}
