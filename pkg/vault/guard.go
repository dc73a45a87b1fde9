// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// guard gives every mutating entry point transaction semantics. Independent
// callers block on the mutex and serialize; each sees the previous
// transaction's effects through the normal precondition checks (a racing
// second solver gets ErrMysterySolved, not a spurious failure). Only the
// goroutine already inside a transaction is refused entry: a payout
// recipient calling back into the vault mid-transfer would deadlock on the
// mutex it already holds, so that call fails fast with ErrReentrantCall.
type guard struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine id of the transaction in flight, 0 if none
}

func (g *guard) enter() bool {
	id := goid()
	if g.owner.Load() == id {
		return false
	}
	g.mu.Lock()
	g.owner.Store(id)
	return true
}

func (g *guard) exit() {
	g.owner.Store(0)
	g.mu.Unlock()
}

// goid extracts the current goroutine's id from the stack header
// ("goroutine N [running]:"). The runtime numbers goroutines from 1, so 0
// is free to mean no owner.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
