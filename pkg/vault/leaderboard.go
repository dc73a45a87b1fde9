// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

// The leaderboard is a full address array kept sorted descending by
// reputation. Only one entry's key changes per solve, so a single bubble
// pass restores order in O(n); at the scale of this system that beats
// maintaining a heap or tree index.

// bubbleUpLocked moves addr toward the front while its reputation beats
// its predecessor's. Caller holds stateMu.
func (v *Vault) bubbleUpLocked(addr string) {
	idx := -1
	for i, a := range v.leaderboard {
		if a == addr {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	rep := v.players[addr].Reputation
	for idx > 0 && v.players[v.leaderboard[idx-1]].Reputation < rep {
		v.leaderboard[idx-1], v.leaderboard[idx] = v.leaderboard[idx], v.leaderboard[idx-1]
		idx--
	}
}

// GetLeaderboard returns the top limit entries with their current
// reputation and solve counts. Sorting already happened at write time;
// this is a slice copy.
func (v *Vault) GetLeaderboard(limit int) []LeaderboardEntry {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()

	if limit <= 0 || limit > len(v.leaderboard) {
		limit = len(v.leaderboard)
	}
	entries := make([]LeaderboardEntry, 0, limit)
	for _, addr := range v.leaderboard[:limit] {
		p := v.players[addr]
		entries = append(entries, LeaderboardEntry{
			Address:         addr,
			Reputation:      p.Reputation,
			MysteriesSolved: p.MysteriesSolved,
		})
	}
	return entries
}
