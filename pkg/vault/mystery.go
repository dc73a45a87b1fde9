// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/events"
	"github.com/veilgame/bountyvault/pkg/ids"
)

// CreateMysteryRequest carries the oracle's registration of one puzzle
// instance. AnswerHash and ProofHash are pre-computed off-chain; the
// vault never sees plaintext at creation time.
type CreateMysteryRequest struct {
	ID         ids.ID
	AnswerHash [32]byte
	ProofHash  [32]byte
	Duration   time.Duration
	Difficulty uint8
	Stake      decimal.Decimal // initial bounty, attached by the oracle
	Metadata   json.RawMessage // opaque frontend blob
}

// CreateMystery registers a mystery and seeds its bounty pool with the
// oracle's stake. Expiry is fixed at creation; there are no extensions.
func (v *Vault) CreateMystery(caller string, req CreateMysteryRequest) (*Mystery, error) {
	if !v.guard.enter() {
		return nil, ErrReentrantCall
	}
	defer v.guard.exit()

	if caller != v.oracle {
		return nil, ErrNotOracle
	}
	if req.ID.IsZero() {
		return nil, ErrMysteryNotFound
	}
	if _, exists := v.mysteries[req.ID]; exists {
		return nil, ErrMysteryExists
	}
	if req.AnswerHash == [32]byte{} || req.ProofHash == [32]byte{} {
		return nil, ErrEmptyHash
	}
	if req.Duration <= 0 {
		return nil, ErrInvalidDuration
	}

	stake := req.Stake
	if stake.IsNegative() {
		return nil, ErrInsufficientPayment
	}
	if stake.IsPositive() {
		if err := v.ledger.Transfer(caller, EscrowAccount, stake); err != nil {
			return nil, fmt.Errorf("oracle stake: %w", err)
		}
	}

	now := v.now()
	m := &Mystery{
		ID:         req.ID,
		AnswerHash: req.AnswerHash,
		ProofHash:  req.ProofHash,
		BountyPool: stake,
		CreatedAt:  now,
		ExpiresAt:  now.Add(req.Duration),
		Difficulty: req.Difficulty,
		Metadata:   req.Metadata,
	}

	v.stateMu.Lock()
	v.mysteries[req.ID] = m
	v.activeIdx[req.ID] = len(v.active)
	v.active = append(v.active, req.ID)
	v.stateMu.Unlock()

	if v.metrics != nil {
		v.metrics.MysteriesCreated.Inc()
		v.metrics.ActiveMysteries.Set(float64(len(v.active)))
	}
	v.log.Info("mystery created: " + req.ID.String())

	v.commit([]*Mystery{m}, nil, []events.Event{
		events.New(events.TypeMysteryCreated, now, map[string]any{
			"mystery_id": req.ID.String(),
			"stake":      stake.String(),
			"expires_at": m.ExpiresAt,
			"difficulty": req.Difficulty,
		}),
	})

	copy := *m
	return &copy, nil
}

// RevealProof publishes the solution-reasoning artifact once a mystery's
// contest is over, by solve or by expiry. The stored digest is the
// arbiter: a proof whose hash does not match is rejected regardless of
// mystery state, and revelation happens at most once.
func (v *Vault) RevealProof(caller string, id ids.ID, proof []byte) error {
	if !v.guard.enter() {
		return ErrReentrantCall
	}
	defer v.guard.exit()

	if caller != v.oracle {
		return ErrNotOracle
	}
	m, exists := v.mysteries[id]
	if !exists {
		return ErrMysteryNotFound
	}
	now := v.now()
	if !m.Solved && !m.Expired(now) {
		return ErrProofNotReady
	}
	if m.ProofRevealed {
		return ErrProofRevealed
	}
	if answer.HashProof(proof) != m.ProofHash {
		return ErrProofMismatch
	}

	v.stateMu.Lock()
	m.ProofRevealed = true
	m.ProofData = append([]byte{}, proof...)
	v.stateMu.Unlock()

	if v.metrics != nil {
		v.metrics.ProofsRevealed.Inc()
	}
	v.log.Info("proof revealed: " + id.String())

	v.commit([]*Mystery{m}, nil, []events.Event{
		events.New(events.TypeProofRevealed, now, map[string]any{
			"mystery_id": id.String(),
			"solved":     m.Solved,
		}),
	})
	return nil
}

// SweepExpired compacts the active working set, dropping mysteries whose
// contest window has closed unsolved. Expiry is authoritative at
// submission time regardless; the sweep only trims the ordered index.
func (v *Vault) SweepExpired() (int, error) {
	if !v.guard.enter() {
		return 0, ErrReentrantCall
	}
	defer v.guard.exit()

	now := v.now()
	var expired []*Mystery
	v.stateMu.Lock()
	for i := 0; i < len(v.active); {
		m := v.mysteries[v.active[i]]
		if m != nil && !m.Solved && m.Expired(now) {
			expired = append(expired, m)
			v.removeActiveLocked(m.ID)
			continue // the swapped-in id now sits at index i
		}
		i++
	}
	v.stateMu.Unlock()

	if len(expired) == 0 {
		return 0, nil
	}

	if v.metrics != nil {
		v.metrics.ActiveMysteries.Set(float64(len(v.active)))
	}

	evs := make([]events.Event, 0, len(expired))
	for _, m := range expired {
		evs = append(evs, events.New(events.TypeMysteryExpired, now, map[string]any{
			"mystery_id":  m.ID.String(),
			"bounty_pool": m.BountyPool.String(),
		}))
	}
	v.commit(nil, nil, evs)
	return len(expired), nil
}

// removeActiveLocked swap-and-pops id from the active set. Caller holds
// stateMu and must ensure id is present.
func (v *Vault) removeActiveLocked(id ids.ID) {
	idx, ok := v.activeIdx[id]
	if !ok {
		return
	}
	last := len(v.active) - 1
	moved := v.active[last]
	v.active[idx] = moved
	v.activeIdx[moved] = idx
	v.active = v.active[:last]
	delete(v.activeIdx, id)
}
