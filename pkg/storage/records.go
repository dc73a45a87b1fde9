// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/binary"
	"encoding/json"
	"time"
)

// Key prefixes. Events are keyed by big-endian sequence number so the
// journal iterates in emission order.
var (
	prefixMystery = []byte("mystery/")
	prefixPlayer  = []byte("player/")
	prefixEvent   = []byte("evt/")
	keyState      = []byte("meta/state")
)

// MysteryRecord is the durable form of a mystery. Hashes are hex, money
// is a decimal string; the record stays queryable forever once written.
type MysteryRecord struct {
	ID            string          `json:"id"`
	AnswerHash    string          `json:"answer_hash"`
	ProofHash     string          `json:"proof_hash"`
	BountyPool    string          `json:"bounty_pool"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Difficulty    uint8           `json:"difficulty"`
	Solved        bool            `json:"solved"`
	Solver        string          `json:"solver,omitempty"`
	ProofRevealed bool            `json:"proof_revealed"`
	ProofData     []byte          `json:"proof_data,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// PlayerRecord is the durable form of a player's stats.
type PlayerRecord struct {
	Address          string    `json:"address"`
	InscribedAt      time.Time `json:"inscribed_at"`
	MysteriesSolved  uint64    `json:"mysteries_solved"`
	TotalBountyWon   string    `json:"total_bounty_won"`
	TotalSubmissions uint64    `json:"total_submissions"`
	Reputation       uint64    `json:"reputation"`
}

// StateRecord captures the vault's global working state: ordering indexes,
// per-(player,mystery) attempt counters and the treasury accumulator.
type StateRecord struct {
	Leaderboard []string          `json:"leaderboard"`
	Active      []string          `json:"active"`
	Solved      []string          `json:"solved"`
	Attempts    map[string]uint64 `json:"attempts"`
	Treasury    string            `json:"treasury"`
	EventSeq    uint64            `json:"event_seq"`
}

// EventRecord is a journaled event as stored for indexers.
type EventRecord struct {
	Seq  uint64          `json:"seq"`
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// MysteryKey returns the storage key for a mystery id (hex).
func MysteryKey(id string) []byte {
	return append(append([]byte{}, prefixMystery...), []byte(id)...)
}

// PlayerKey returns the storage key for a player address.
func PlayerKey(addr string) []byte {
	return append(append([]byte{}, prefixPlayer...), []byte(addr)...)
}

// EventKey returns the journal key for an event sequence number.
func EventKey(seq uint64) []byte {
	key := append([]byte{}, prefixEvent...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

// StateKey returns the key of the global state record.
func StateKey() []byte {
	return append([]byte{}, keyState...)
}

// Writer is the write surface the record helpers marshal through. Both
// *Store and database.Batch satisfy it, so the same helpers serve direct
// writes and atomic batch commits.
type Writer interface {
	Put(key, value []byte) error
}

// PutMystery persists a mystery record.
func PutMystery(w Writer, rec *MysteryRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return w.Put(MysteryKey(rec.ID), raw)
}

// PutPlayer persists a player record.
func PutPlayer(w Writer, rec *PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return w.Put(PlayerKey(rec.Address), raw)
}

// PutState persists the global state record.
func PutState(w Writer, rec *StateRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return w.Put(keyState, raw)
}

// GetState loads the global state record, or nil if none was ever written.
func (s *Store) GetState() (*StateRecord, error) {
	ok, err := s.Has(keyState)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := s.Get(keyState)
	if err != nil {
		return nil, err
	}
	var rec StateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Mysteries loads every stored mystery record.
func (s *Store) Mysteries() ([]*MysteryRecord, error) {
	iter := s.NewIteratorWithPrefix(prefixMystery)
	defer iter.Release()

	var recs []*MysteryRecord
	for iter.Next() {
		var rec MysteryRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, iter.Error()
}

// Players loads every stored player record.
func (s *Store) Players() ([]*PlayerRecord, error) {
	iter := s.NewIteratorWithPrefix(prefixPlayer)
	defer iter.Release()

	var recs []*PlayerRecord
	for iter.Next() {
		var rec PlayerRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, iter.Error()
}

// AppendEvent journals an event under its sequence number.
func AppendEvent(w Writer, rec *EventRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return w.Put(EventKey(rec.Seq), raw)
}

// Events returns journaled events with seq >= from, in sequence order.
func (s *Store) Events(from uint64) ([]*EventRecord, error) {
	iter := s.NewIteratorWithPrefix(prefixEvent)
	defer iter.Release()

	var recs []*EventRecord
	for iter.Next() {
		var rec EventRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, err
		}
		if rec.Seq < from {
			continue
		}
		recs = append(recs, &rec)
	}
	return recs, iter.Error()
}
