// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events is the durable log surface for off-chain indexers. Every
// state change in the vault emits exactly one typed event; an indexer that
// replays the journal in sequence order can reconstruct full history
// without re-deriving vault state.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veilgame/bountyvault/pkg/log"
)

// Type labels what happened.
type Type string

const (
	TypePlayerInscribed Type = "player_inscribed"
	TypeMysteryCreated  Type = "mystery_created"
	TypeAnswerSubmitted Type = "answer_submitted"
	TypeMysterySolved   Type = "mystery_solved"
	TypeProofRevealed   Type = "proof_revealed"
	TypeMysteryExpired  Type = "mystery_expired"
)

// Event carries a typed payload emitted after a committed state change.
// Seq is assigned by the vault and is strictly increasing with no gaps.
type Event struct {
	Seq  uint64         `json:"seq"`
	ID   string         `json:"id"`
	Type Type           `json:"type"`
	Time time.Time      `json:"time"`
	Data map[string]any `json:"data"`
}

// New builds an event with a fresh uuid. Seq is filled in at emit time.
func New(typ Type, at time.Time, data map[string]any) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: typ,
		Time: at,
		Data: data,
	}
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
	log      log.Logger
}

// NewEmitter creates an Emitter with no subscribers. A nil logger is
// replaced with the no-op logger.
func NewEmitter(logger log.Logger) *Emitter {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Emitter{
		handlers: make(map[Type][]Handler),
		log:      logger,
	}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ Type, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev to all subscribers synchronously. Each handler is
// guarded by panic recovery so a misbehaving subscriber cannot take the
// vault down mid-transaction.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.handlers[ev.Type])+len(e.all))
	handlers = append(handlers, e.handlers[ev.Type]...)
	handlers = append(handlers, e.all...)
	e.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Error(fmt.Sprintf("event handler panic on %s: %v", ev.Type, r))
				}
			}()
			h(ev)
		}()
	}
}
