// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the bounty escrow and answer-verification
// engine for the mystery economy: player inscription, oracle-only mystery
// registration, quadratic-fee answer submission with atomic payout to the
// first correct solver, and delayed proof revelation.
//
// Every entry point behaves like one transaction: preconditions are
// checked in order, the first failure aborts with no state change and no
// value moved, and a failed payout unwinds the whole operation.
package vault

import (
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/events"
	"github.com/veilgame/bountyvault/pkg/ids"
	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/metric"
	"github.com/veilgame/bountyvault/pkg/storage"
)

// Config wires the vault's collaborators. Oracle and Ledger are required;
// everything else has a working default.
type Config struct {
	Oracle  string
	Admin   string
	Ledger  *ledger.Ledger
	Payer   ledger.Payer   // payout path; defaults to Ledger
	Store   *storage.Store // durable state + event journal; nil = memory only
	Log     log.Logger
	Metrics *metric.Metrics
	Now     func() time.Time
}

// Vault is the escrow engine. All mutating entry points are serialized by
// the reentrancy guard; views take the state lock and may run while a
// payout's external transfer is in flight.
type Vault struct {
	guard   guard
	stateMu sync.RWMutex

	oracle  string
	admin   string
	ledger  *ledger.Ledger
	payer   ledger.Payer
	store   *storage.Store
	log     log.Logger
	metrics *metric.Metrics
	emitter *events.Emitter
	now     func() time.Time

	mysteries map[ids.ID]*Mystery
	players   map[string]*PlayerStats

	leaderboard []string
	active      []ids.ID
	activeIdx   map[ids.ID]int
	solved      []ids.ID
	attempts    map[string]uint64
	treasury    decimal.Decimal
	eventSeq    uint64
}

// New creates a vault, recovering prior state from the store if one is
// given.
func New(cfg Config) (*Vault, error) {
	if cfg.Oracle == "" {
		return nil, ErrNotOracle
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.New()
	}
	if cfg.Payer == nil {
		cfg.Payer = cfg.Ledger
	}
	if cfg.Log == nil {
		cfg.Log = log.NoOp()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	v := &Vault{
		oracle:    cfg.Oracle,
		admin:     cfg.Admin,
		ledger:    cfg.Ledger,
		payer:     cfg.Payer,
		store:     cfg.Store,
		log:       cfg.Log,
		metrics:   cfg.Metrics,
		emitter:   events.NewEmitter(cfg.Log),
		now:       cfg.Now,
		mysteries: make(map[ids.ID]*Mystery),
		players:   make(map[string]*PlayerStats),
		activeIdx: make(map[ids.ID]int),
		attempts:  make(map[string]uint64),
		treasury:  decimal.Zero,
	}

	if v.store != nil {
		if err := v.load(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Events exposes the emitter so indexers and the API can subscribe.
func (v *Vault) Events() *events.Emitter {
	return v.emitter
}

// load reconstructs in-memory state from the store.
func (v *Vault) load() error {
	state, err := v.store.GetState()
	if err != nil {
		return err
	}
	if state != nil {
		v.leaderboard = state.Leaderboard
		v.solved = nil
		for _, s := range state.Solved {
			id, err := ids.FromString(s)
			if err != nil {
				return err
			}
			v.solved = append(v.solved, id)
		}
		for _, s := range state.Active {
			id, err := ids.FromString(s)
			if err != nil {
				return err
			}
			v.activeIdx[id] = len(v.active)
			v.active = append(v.active, id)
		}
		v.attempts = state.Attempts
		if v.attempts == nil {
			v.attempts = make(map[string]uint64)
		}
		if state.Treasury != "" {
			v.treasury, err = decimal.NewFromString(state.Treasury)
			if err != nil {
				return err
			}
		}
		v.eventSeq = state.EventSeq
	}

	mysteries, err := v.store.Mysteries()
	if err != nil {
		return err
	}
	for _, rec := range mysteries {
		m, err := mysteryFromRecord(rec)
		if err != nil {
			return err
		}
		v.mysteries[m.ID] = m
	}

	players, err := v.store.Players()
	if err != nil {
		return err
	}
	for _, rec := range players {
		p, err := playerFromRecord(rec)
		if err != nil {
			return err
		}
		v.players[p.Address] = p
	}

	v.log.Info("vault state recovered")
	return nil
}

// commit persists the changed records and journals the pending events in
// one batch, then delivers the events to subscribers. In-memory state is
// already applied; a persistence failure is logged, not propagated. The
// store is a journal of committed transactions, not their arbiter.
func (v *Vault) commit(changed []*Mystery, changedPlayers []*PlayerStats, evs []events.Event) {
	v.stateMu.Lock()
	for i := range evs {
		v.eventSeq++
		evs[i].Seq = v.eventSeq
	}
	state := v.snapshotStateLocked()
	v.stateMu.Unlock()

	if v.store != nil {
		batch := v.store.NewBatch()
		ok := true
		for _, m := range changed {
			if err := storage.PutMystery(batch, mysteryToRecord(m)); err != nil {
				v.log.Error("stage mystery record: " + err.Error())
				ok = false
				break
			}
		}
		for _, p := range changedPlayers {
			if !ok {
				break
			}
			if err := storage.PutPlayer(batch, playerToRecord(p)); err != nil {
				v.log.Error("stage player record: " + err.Error())
				ok = false
				break
			}
		}
		for _, ev := range evs {
			if !ok {
				break
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				v.log.Error("marshal event data: " + err.Error())
				ok = false
				break
			}
			rec := &storage.EventRecord{
				Seq:  ev.Seq,
				ID:   ev.ID,
				Type: string(ev.Type),
				Time: ev.Time,
				Data: data,
			}
			if err := storage.AppendEvent(batch, rec); err != nil {
				v.log.Error("stage event record: " + err.Error())
				ok = false
				break
			}
		}
		if ok {
			if err := storage.PutState(batch, state); err != nil {
				v.log.Error("stage state record: " + err.Error())
				ok = false
			}
		}
		if ok {
			if err := batch.Write(); err != nil {
				v.log.Error("persist transaction: " + err.Error())
			}
		}
	}

	for _, ev := range evs {
		v.emitter.Emit(ev)
	}
}

// snapshotStateLocked builds the durable state record. Caller holds stateMu.
func (v *Vault) snapshotStateLocked() *storage.StateRecord {
	state := &storage.StateRecord{
		Leaderboard: append([]string{}, v.leaderboard...),
		Attempts:    make(map[string]uint64, len(v.attempts)),
		Treasury:    v.treasury.String(),
		EventSeq:    v.eventSeq,
	}
	for _, id := range v.active {
		state.Active = append(state.Active, id.String())
	}
	for _, id := range v.solved {
		state.Solved = append(state.Solved, id.String())
	}
	for k, n := range v.attempts {
		state.Attempts[k] = n
	}
	return state
}

func mysteryToRecord(m *Mystery) *storage.MysteryRecord {
	return &storage.MysteryRecord{
		ID:            m.ID.String(),
		AnswerHash:    hex.EncodeToString(m.AnswerHash[:]),
		ProofHash:     hex.EncodeToString(m.ProofHash[:]),
		BountyPool:    m.BountyPool.String(),
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		Difficulty:    m.Difficulty,
		Solved:        m.Solved,
		Solver:        m.Solver,
		ProofRevealed: m.ProofRevealed,
		ProofData:     m.ProofData,
		Metadata:      m.Metadata,
	}
}

func mysteryFromRecord(rec *storage.MysteryRecord) (*Mystery, error) {
	id, err := ids.FromString(rec.ID)
	if err != nil {
		return nil, err
	}
	pool, err := decimal.NewFromString(rec.BountyPool)
	if err != nil {
		return nil, err
	}
	m := &Mystery{
		ID:            id,
		BountyPool:    pool,
		CreatedAt:     rec.CreatedAt,
		ExpiresAt:     rec.ExpiresAt,
		Difficulty:    rec.Difficulty,
		Solved:        rec.Solved,
		Solver:        rec.Solver,
		ProofRevealed: rec.ProofRevealed,
		ProofData:     rec.ProofData,
		Metadata:      rec.Metadata,
	}
	answerHash, err := hex.DecodeString(rec.AnswerHash)
	if err != nil || len(answerHash) != 32 {
		return nil, ErrEmptyHash
	}
	copy(m.AnswerHash[:], answerHash)
	proofHash, err := hex.DecodeString(rec.ProofHash)
	if err != nil || len(proofHash) != 32 {
		return nil, ErrEmptyHash
	}
	copy(m.ProofHash[:], proofHash)
	return m, nil
}

func playerToRecord(p *PlayerStats) *storage.PlayerRecord {
	return &storage.PlayerRecord{
		Address:          p.Address,
		InscribedAt:      p.InscribedAt,
		MysteriesSolved:  p.MysteriesSolved,
		TotalBountyWon:   p.TotalBountyWon.String(),
		TotalSubmissions: p.TotalSubmissions,
		Reputation:       p.Reputation,
	}
}

func playerFromRecord(rec *storage.PlayerRecord) (*PlayerStats, error) {
	won, err := decimal.NewFromString(rec.TotalBountyWon)
	if err != nil {
		return nil, err
	}
	return &PlayerStats{
		Address:          rec.Address,
		InscribedAt:      rec.InscribedAt,
		MysteriesSolved:  rec.MysteriesSolved,
		TotalBountyWon:   won,
		TotalSubmissions: rec.TotalSubmissions,
		Reputation:       rec.Reputation,
	}, nil
}
