// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/veilgame/bountyvault/pkg/events"
	"github.com/veilgame/bountyvault/pkg/log"
)

// stream fans vault events out to connected websocket clients. A slow
// client gets dropped rather than backing up the emitter.
type stream struct {
	mu      sync.Mutex
	clients map[chan events.Event]struct{}
	log     log.Logger
}

func newStream(logger log.Logger) *stream {
	return &stream{
		clients: make(map[chan events.Event]struct{}),
		log:     logger,
	}
}

// publish is wired into the vault emitter via SubscribeAll.
func (s *stream) publish(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- ev:
		default:
			delete(s.clients, ch)
			close(ch)
		}
	}
}

func (s *stream) subscribe() chan events.Event {
	ch := make(chan events.Event, 64)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *stream) unsubscribe(ch chan events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ch]; ok {
		delete(s.clients, ch)
		close(ch)
	}
}

func (s *stream) handleWS(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: " + err.Error())
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// Reads are discarded; the feed is one-way. The read loop exists to
	// notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
