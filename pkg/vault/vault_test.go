// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/ids"
	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/storage"
)

const oracleAddr = "0xoracle"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	vault  *Vault
	ledger *ledger.Ledger
	store  *storage.Store
	clock  *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ledger: ledger.New(),
		store:  storage.NewMemory(),
		clock:  &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	v, err := New(Config{
		Oracle: oracleAddr,
		Ledger: env.ledger,
		Store:  env.store,
		Log:    log.NoOp(),
		Now:    env.clock.Now,
	})
	require.NoError(t, err)
	env.vault = v

	require.NoError(t, env.ledger.Mint(oracleAddr, decimal.NewFromInt(1000)))
	return env
}

func (env *testEnv) fund(t *testing.T, addr string, amount int64) {
	t.Helper()
	require.NoError(t, env.ledger.Mint(addr, decimal.NewFromInt(amount)))
}

func (env *testEnv) inscribe(t *testing.T, addr string) {
	t.Helper()
	env.fund(t, addr, 100)
	_, err := env.vault.InscribePlayer(addr, InscriptionFee)
	require.NoError(t, err)
}

// createMystery registers a mystery whose answer/proof plaintexts are
// known to the test, returning its id.
func (env *testEnv) createMystery(t *testing.T, name, answerText, proofText string, duration time.Duration, difficulty uint8, stake int64) ids.ID {
	t.Helper()
	id := answer.DeriveMysteryID(name)
	_, err := env.vault.CreateMystery(oracleAddr, CreateMysteryRequest{
		ID:         id,
		AnswerHash: answer.Hash(answerText),
		ProofHash:  answer.HashProof([]byte(proofText)),
		Duration:   duration,
		Difficulty: difficulty,
		Stake:      decimal.NewFromInt(stake),
	})
	require.NoError(t, err)
	return id
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestInscribeSplitsFeeAcrossActivePools(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	m1 := env.createMystery(t, "m1", "a", "p1", time.Hour, 1, 10)
	m2 := env.createMystery(t, "m2", "b", "p2", time.Hour, 1, 10)

	env.fund(t, "alice", 100)
	receipt, err := env.vault.InscribePlayer("alice", dec(10))
	require.NoError(err)

	// 10 splits into treasury half 5 and pool half 5; floor(5/2)=2 per
	// pool, remainder 1 back to treasury.
	require.True(receipt.PoolContribution.Equal(dec(2)))
	require.Equal(2, receipt.PoolsFunded)
	require.True(receipt.TreasuryShare.Equal(dec(6)))
	require.True(env.vault.TreasuryBalance().Equal(dec(6)))

	for _, id := range []ids.ID{m1, m2} {
		m, err := env.vault.GetMystery(id)
		require.NoError(err)
		require.True(m.BountyPool.Equal(dec(12)))
	}

	// Escrow backs exactly the sum of the pools.
	require.True(env.ledger.Balance(EscrowAccount).Equal(dec(24)))
	require.True(env.ledger.Balance(TreasuryAccount).Equal(dec(6)))
}

func TestInscribeWithNoActiveMysteriesFallsBackToTreasury(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	env.fund(t, "alice", 100)
	receipt, err := env.vault.InscribePlayer("alice", dec(10))
	require.NoError(err)

	require.Equal(0, receipt.PoolsFunded)
	require.True(receipt.TreasuryShare.Equal(dec(10)))
	require.True(env.vault.TreasuryBalance().Equal(dec(10)))
	require.True(env.ledger.Balance(EscrowAccount).IsZero())
}

func TestInscribePreconditions(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	env.fund(t, "alice", 100)

	_, err := env.vault.InscribePlayer("alice", dec(9))
	require.ErrorIs(err, ErrInsufficientPayment)

	_, err = env.vault.InscribePlayer("alice", dec(10))
	require.NoError(err)

	_, err = env.vault.InscribePlayer("alice", dec(10))
	require.ErrorIs(err, ErrAlreadyInscribed)

	// Failed inscription takes no payment.
	env.fund(t, "poor", 5)
	_, err = env.vault.InscribePlayer("poor", dec(10))
	require.Error(err)
	require.True(env.ledger.Balance("poor").Equal(dec(5)))
}

func TestInscribeOverpaymentIsSplitInFull(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	env.createMystery(t, "m1", "a", "p1", time.Hour, 1, 0)

	env.fund(t, "alice", 100)
	receipt, err := env.vault.InscribePlayer("alice", dec(11))
	require.NoError(err)

	// 11 -> treasury half 5.5, pool half 5.5, share floor(5.5/1)=5,
	// treasury gets the remaining 6.
	require.True(receipt.PoolContribution.Equal(dec(5)))
	require.True(receipt.TreasuryShare.Equal(dec(6)))
	require.True(env.vault.TreasuryBalance().Equal(dec(6)))
}

func TestExpiredMysteryReceivesNoInscriptionShare(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)

	stale := env.createMystery(t, "stale", "a", "p", time.Minute, 1, 10)
	env.clock.Advance(2 * time.Minute)
	live := env.createMystery(t, "live", "b", "p2", time.Hour, 1, 10)

	env.fund(t, "alice", 100)
	receipt, err := env.vault.InscribePlayer("alice", dec(10))
	require.NoError(err)
	require.Equal(1, receipt.PoolsFunded)

	m, err := env.vault.GetMystery(stale)
	require.NoError(err)
	require.True(m.BountyPool.Equal(dec(10)))

	m, err = env.vault.GetMystery(live)
	require.NoError(err)
	require.True(m.BountyPool.Equal(dec(15)))
}
