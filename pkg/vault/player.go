// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/events"
)

// InscribePlayer registers caller as a player for an attached payment of
// at least InscriptionFee. Half the payment goes to the treasury; the
// other half is split evenly across every currently active mystery's
// bounty pool (floor division, remainder to treasury so no value is
// lost). With zero active mysteries the player-pool half falls back to
// the treasury as well.
func (v *Vault) InscribePlayer(caller string, payment decimal.Decimal) (*InscriptionReceipt, error) {
	if !v.guard.enter() {
		return nil, ErrReentrantCall
	}
	defer v.guard.exit()

	if caller == "" {
		return nil, ErrPlayerNotFound
	}
	if payment.LessThan(InscriptionFee) {
		return nil, ErrInsufficientPayment
	}
	if _, inscribed := v.players[caller]; inscribed {
		return nil, ErrAlreadyInscribed
	}

	// Snapshot the active working set as of now; expired entries do not
	// receive a share.
	now := v.now()
	var funded []*Mystery
	for _, id := range v.active {
		if m := v.mysteries[id]; m != nil && m.Active(now) {
			funded = append(funded, m)
		}
	}

	treasuryHalf := payment.Div(decimal.NewFromInt(2))
	poolHalf := payment.Sub(treasuryHalf)

	share := decimal.Zero
	distributed := decimal.Zero
	if n := len(funded); n > 0 {
		nd := decimal.NewFromInt(int64(n))
		share = poolHalf.Div(nd).Floor()
		distributed = share.Mul(nd)
	}
	treasuryShare := payment.Sub(distributed)

	// Take the full payment into escrow, then move the treasury portion
	// on. The second hop spends funds the first just delivered, so only
	// the intake can fail, and it fails before any state change.
	if err := v.ledger.Transfer(caller, EscrowAccount, payment); err != nil {
		return nil, fmt.Errorf("inscription payment: %w", err)
	}
	if err := v.ledger.Transfer(EscrowAccount, TreasuryAccount, treasuryShare); err != nil {
		// Unreachable with a well-formed ledger; unwind to be safe.
		_ = v.ledger.Transfer(EscrowAccount, caller, payment)
		return nil, fmt.Errorf("treasury split: %w", err)
	}

	player := &PlayerStats{
		Address:        caller,
		InscribedAt:    now,
		TotalBountyWon: decimal.Zero,
	}

	v.stateMu.Lock()
	v.players[caller] = player
	v.leaderboard = append(v.leaderboard, caller)
	for _, m := range funded {
		m.BountyPool = m.BountyPool.Add(share)
	}
	v.treasury = v.treasury.Add(treasuryShare)
	v.stateMu.Unlock()

	if v.metrics != nil {
		v.metrics.PlayersInscribed.Inc()
		v.metrics.EscrowBalance.Set(toFloat(v.ledger.Balance(EscrowAccount)))
	}
	v.log.Info("player inscribed: " + caller)

	v.commit(funded, []*PlayerStats{player}, []events.Event{
		events.New(events.TypePlayerInscribed, now, map[string]any{
			"player":            caller,
			"payment":           payment.String(),
			"pool_contribution": share.String(),
			"pools_funded":      len(funded),
			"treasury_share":    treasuryShare.String(),
		}),
	})

	return &InscriptionReceipt{
		Player:           caller,
		Payment:          payment,
		PoolContribution: share,
		PoolsFunded:      len(funded),
		TreasuryShare:    treasuryShare,
	}, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
