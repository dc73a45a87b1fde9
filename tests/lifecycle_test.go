// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package tests

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/events"
	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/storage"
	"github.com/veilgame/bountyvault/pkg/vault"
)

const oracle = "0xoracle"

func TestFullBountyLifecycle(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	led := ledger.New()
	store := storage.NewMemory()
	v, err := vault.New(vault.Config{
		Oracle: oracle,
		Ledger: led,
		Store:  store,
		Log:    log.NewLogger("test"),
		Now:    clock,
	})
	require.NoError(err)

	var seen []events.Type
	v.Events().SubscribeAll(func(ev events.Event) {
		seen = append(seen, ev.Type)
	})

	// 1. Fund participants.
	require.NoError(led.Mint(oracle, decimal.NewFromInt(100)))
	require.NoError(led.Mint("0xalice", decimal.NewFromInt(50)))
	require.NoError(led.Mint("0xbob", decimal.NewFromInt(50)))

	// 2. Oracle registers a mystery with a staked bounty. The answer and
	// proof plaintexts never reach the vault, only their digests.
	answerText := answer.JoinFields("alice", "rob-the-bank", "greed", "lockpick")
	proof := []byte(`{"culprit":"alice","trail":["motive","method"]}`)
	id := answer.DeriveMysteryID("the-harbor-heist")
	_, err = v.CreateMystery(oracle, vault.CreateMysteryRequest{
		ID:         id,
		AnswerHash: answer.Hash(answerText),
		ProofHash:  answer.HashProof(proof),
		Duration:   24 * time.Hour,
		Difficulty: 5,
		Stake:      decimal.NewFromInt(10),
	})
	require.NoError(err)

	// 3. Two players inscribe. Each 10-unit fee splits 5 to the treasury
	// and 5 to the single active pool.
	_, err = v.InscribePlayer("0xalice", vault.InscriptionFee)
	require.NoError(err)
	_, err = v.InscribePlayer("0xbob", vault.InscriptionFee)
	require.NoError(err)

	m, err := v.GetMystery(id)
	require.NoError(err)
	require.True(m.BountyPool.Equal(decimal.NewFromInt(20)))

	// 4. Bob burns a wrong attempt; the fee enriches the pool.
	res, err := v.SubmitAnswer("0xbob", id, "alice|rob-the-bank|envy|lockpick", decimal.NewFromInt(1))
	require.NoError(err)
	require.False(res.Correct)
	require.True(res.Pool.Equal(decimal.NewFromInt(21)))

	// 5. Alice wins with a case-insensitive match and takes the whole pool.
	res, err = v.SubmitAnswer("0xalice", id, "ALICE|Rob-The-Bank|GREED|lockpick", decimal.NewFromInt(1))
	require.NoError(err)
	require.True(res.Correct)
	require.True(res.Payout.Equal(decimal.NewFromInt(22)))

	aliceBalance := led.Balance("0xalice")
	require.True(aliceBalance.Equal(decimal.NewFromInt(61))) // 50 - 10 - 1 + 22

	stats, err := v.GetPlayerStats("0xalice")
	require.NoError(err)
	require.Equal(uint64(500), stats.Reputation)
	require.Equal(uint64(1), stats.MysteriesSolved)
	require.True(stats.TotalBountyWon.Equal(decimal.NewFromInt(22)))

	// 6. The pool is drained and the mystery closed to submissions.
	_, err = v.SubmitAnswer("0xbob", id, answerText, decimal.NewFromInt(2))
	require.ErrorIs(err, vault.ErrMysterySolved)
	require.True(led.Balance(vault.EscrowAccount).IsZero())

	// 7. Oracle publishes the reasoning artifact, byte-exact.
	require.NoError(v.RevealProof(oracle, id, proof))
	m, err = v.GetMystery(id)
	require.NoError(err)
	require.True(m.ProofRevealed)
	require.Equal(proof, m.ProofData)

	// 8. Leaderboard reflects the solve.
	board := v.GetLeaderboard(0)
	require.Equal("0xalice", board[0].Address)

	// 9. Every state change hit the event feed in order.
	require.Equal([]events.Type{
		events.TypeMysteryCreated,
		events.TypePlayerInscribed,
		events.TypePlayerInscribed,
		events.TypeAnswerSubmitted,
		events.TypeAnswerSubmitted,
		events.TypeMysterySolved,
		events.TypeProofRevealed,
	}, seen)

	// 10. A restarted node agrees with all of it.
	v2, err := vault.New(vault.Config{
		Oracle: oracle,
		Ledger: led,
		Store:  store,
		Log:    log.NoOp(),
		Now:    clock,
	})
	require.NoError(err)
	m, err = v2.GetMystery(id)
	require.NoError(err)
	require.True(m.Solved)
	require.Equal("0xalice", m.Solver)
	require.True(m.ProofRevealed)
}

func TestExpiredBountyLifecycle(t *testing.T) {
	require := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v, err := vault.New(vault.Config{
		Oracle: oracle,
		Ledger: ledger.New(),
		Log:    log.NoOp(),
		Now:    func() time.Time { return now },
	})
	require.NoError(err)

	proof := []byte(`{"unsolved":true}`)
	id := answer.DeriveMysteryID("cold-case")
	_, err = v.CreateMystery(oracle, vault.CreateMysteryRequest{
		ID:         id,
		AnswerHash: answer.Hash("never-found"),
		ProofHash:  answer.HashProof(proof),
		Duration:   time.Hour,
	})
	require.NoError(err)

	now = now.Add(2 * time.Hour)

	n, err := v.SweepExpired()
	require.NoError(err)
	require.Equal(1, n)
	require.Empty(v.GetActiveMysteries())

	// Expiry unlocks revelation even without a solver.
	require.NoError(v.RevealProof(oracle, id, proof))
}
