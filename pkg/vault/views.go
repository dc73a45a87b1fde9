// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/ids"
)

// GetMystery returns a copy of the mystery's current state. Solved and
// expired mysteries stay queryable forever.
func (v *Vault) GetMystery(id ids.ID) (Mystery, error) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	m, exists := v.mysteries[id]
	if !exists {
		return Mystery{}, ErrMysteryNotFound
	}
	return copyMystery(m), nil
}

// GetPlayerStats returns a copy of an inscribed player's stats.
func (v *Vault) GetPlayerStats(addr string) (PlayerStats, error) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	p, exists := v.players[addr]
	if !exists {
		return PlayerStats{}, ErrPlayerNotFound
	}
	return *p, nil
}

// IsInscribed reports whether addr has paid the inscription fee.
func (v *Vault) IsInscribed(addr string) bool {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	_, ok := v.players[addr]
	return ok
}

// GetActiveMysteries returns the mysteries still accepting submissions.
// Entries past expiry are filtered from the view even before a sweep
// compacts the working set.
func (v *Vault) GetActiveMysteries() []Mystery {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	now := v.now()
	out := make([]Mystery, 0, len(v.active))
	for _, id := range v.active {
		if m := v.mysteries[id]; m != nil && m.Active(now) {
			out = append(out, copyMystery(m))
		}
	}
	return out
}

// GetSolvedMysteries returns solved mysteries in solve order.
func (v *Vault) GetSolvedMysteries() []Mystery {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	out := make([]Mystery, 0, len(v.solved))
	for _, id := range v.solved {
		if m := v.mysteries[id]; m != nil {
			out = append(out, copyMystery(m))
		}
	}
	return out
}

// TreasuryBalance returns the accumulated treasury value.
func (v *Vault) TreasuryBalance() decimal.Decimal {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.treasury
}

func copyMystery(m *Mystery) Mystery {
	out := *m
	if m.ProofData != nil {
		out.ProofData = append([]byte{}, m.ProofData...)
	}
	if m.Metadata != nil {
		out.Metadata = append([]byte{}, m.Metadata...)
	}
	return out
}
