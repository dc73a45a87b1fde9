// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/events"
	"github.com/veilgame/bountyvault/pkg/ids"
)

// SubmitAnswer processes one paid answer attempt. Preconditions are
// checked in order (inscribed, mystery exists and unsolved, unexpired,
// payment covers the quadratic fee) and the first failure aborts with no
// value taken. Past the preconditions the attached payment always joins
// the bounty pool, win or lose; overpayment is not refunded.
//
// On a correct answer the entire pool is paid to the caller through the
// external payer. A failed payout unwinds the fee intake and aborts the
// whole operation: the mystery is never left solved-but-unpaid.
func (v *Vault) SubmitAnswer(caller string, id ids.ID, answerText string, payment decimal.Decimal) (*SubmissionResult, error) {
	if !v.guard.enter() {
		return nil, ErrReentrantCall
	}
	defer v.guard.exit()

	start := time.Now()
	defer func() {
		if v.metrics != nil {
			v.metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
		}
	}()

	player, inscribed := v.players[caller]
	if !inscribed {
		return nil, ErrNotInscribed
	}
	m, exists := v.mysteries[id]
	if !exists {
		return nil, ErrMysteryNotFound
	}
	if m.Solved {
		return nil, ErrMysterySolved
	}
	now := v.now()
	if !now.Before(m.ExpiresAt) {
		return nil, ErrMysteryExpired
	}

	key := attemptKey(caller, id)
	attempt := v.attempts[key]
	fee := FeeForAttempt(attempt)
	if payment.LessThan(fee) {
		return nil, ErrInsufficientPayment
	}

	// Take the payment. This is the last failure point before the answer
	// check; an underfunded caller aborts here with nothing mutated.
	if err := v.ledger.Transfer(caller, EscrowAccount, payment); err != nil {
		return nil, fmt.Errorf("submission fee: %w", err)
	}

	newPool := m.BountyPool.Add(payment)
	correct := answer.Hash(answerText) == m.AnswerHash

	result := &SubmissionResult{
		Correct: correct,
		Attempt: attempt,
		Fee:     fee,
		Paid:    payment,
		Pool:    newPool,
	}

	if !correct {
		// A wrong answer is a successful transaction: the fee is
		// consumed and only enriches the pool.
		v.stateMu.Lock()
		v.attempts[key] = attempt + 1
		player.TotalSubmissions++
		m.BountyPool = newPool
		v.stateMu.Unlock()

		if v.metrics != nil {
			v.metrics.SubmissionsWrong.Inc()
		}

		v.commit([]*Mystery{m}, []*PlayerStats{player}, []events.Event{
			v.submissionEvent(caller, m, result, now),
		})
		return result, nil
	}

	// Winning path: pay out the whole pool (including this payment)
	// before any state is published. If the recipient rejects the
	// transfer, refund the fee intake and abort. All or nothing.
	payout := newPool
	if err := v.payer.Pay(EscrowAccount, caller, payout); err != nil {
		_ = v.ledger.Transfer(EscrowAccount, caller, payment)
		return nil, fmt.Errorf("bounty payout: %w", err)
	}

	result.Payout = payout
	result.Pool = decimal.Zero

	v.stateMu.Lock()
	v.attempts[key] = attempt + 1
	player.TotalSubmissions++
	player.MysteriesSolved++
	player.TotalBountyWon = player.TotalBountyWon.Add(payout)
	player.Reputation += ReputationPerDifficulty * uint64(m.Difficulty)
	m.Solved = true
	m.Solver = caller
	m.BountyPool = decimal.Zero
	v.removeActiveLocked(id)
	v.solved = append(v.solved, id)
	v.bubbleUpLocked(caller)
	v.stateMu.Unlock()

	if v.metrics != nil {
		v.metrics.SubmissionsCorrect.Inc()
		v.metrics.MysteriesSolved.Inc()
		v.metrics.PayoutVolume.Add(toFloat(payout))
		v.metrics.ActiveMysteries.Set(float64(len(v.active)))
		v.metrics.EscrowBalance.Set(toFloat(v.ledger.Balance(EscrowAccount)))
	}
	v.log.Info("mystery solved: " + id.String() + " by " + caller)

	v.commit([]*Mystery{m}, []*PlayerStats{player}, []events.Event{
		v.submissionEvent(caller, m, result, now),
		events.New(events.TypeMysterySolved, now, map[string]any{
			"mystery_id": id.String(),
			"solver":     caller,
			"payout":     payout.String(),
			"difficulty": m.Difficulty,
		}),
	})
	return result, nil
}

// SubmissionCost returns the fee the player's next attempt on the mystery
// must attach.
func (v *Vault) SubmissionCost(player string, id ids.ID) (decimal.Decimal, error) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	if _, exists := v.mysteries[id]; !exists {
		return decimal.Zero, ErrMysteryNotFound
	}
	return FeeForAttempt(v.attempts[attemptKey(player, id)]), nil
}

func (v *Vault) submissionEvent(caller string, m *Mystery, result *SubmissionResult, at time.Time) events.Event {
	return events.New(events.TypeAnswerSubmitted, at, map[string]any{
		"mystery_id":  m.ID.String(),
		"player":      caller,
		"attempt":     result.Attempt,
		"fee":         result.Fee.String(),
		"paid":        result.Paid.String(),
		"correct":     result.Correct,
		"bounty_pool": result.Pool.String(),
	})
}
