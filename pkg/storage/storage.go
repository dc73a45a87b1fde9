// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
)

// Store wraps luxfi's database interface and adds the vault's typed
// record helpers (see records.go).
type Store struct {
	db database.Database
}

// New creates a new store backed by luxfi/database
func New(dbType string, path string) (*Store, error) {
	var db database.Database
	var err error

	switch dbType {
	case "memory":
		db = memdb.New()
	case "badger":
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	default:
		// Default to badger
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// NewMemory creates an in-memory store for tests.
func NewMemory() *Store {
	return &Store{db: memdb.New()}
}

// Put stores a key-value pair
func (s *Store) Put(key, value []byte) error {
	return s.db.Put(key, value)
}

// Get retrieves a value by key
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.db.Get(key)
}

// Has checks if a key exists
func (s *Store) Has(key []byte) (bool, error) {
	return s.db.Has(key)
}

// Delete removes a key-value pair
func (s *Store) Delete(key []byte) error {
	return s.db.Delete(key)
}

// NewIteratorWithPrefix creates an iterator with a key prefix
func (s *Store) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return s.db.NewIteratorWithPrefix(prefix)
}

// NewBatch creates a new batch for atomic multi-record writes
func (s *Store) NewBatch() database.Batch {
	return s.db.NewBatch()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
