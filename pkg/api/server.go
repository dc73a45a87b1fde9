// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the vault over HTTP: JSON endpoints for inscription,
// mystery management, submissions and views, plus a websocket feed of the
// event journal for live frontends.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/storage"
	"github.com/veilgame/bountyvault/pkg/vault"
)

// Server wires the vault behind a gin router.
type Server struct {
	vault  *vault.Vault
	store  *storage.Store
	log    log.Logger
	stream *stream
}

// Config configures the API server.
type Config struct {
	Vault *vault.Vault
	Store *storage.Store // event journal reads; may be nil
	Log   log.Logger
	Prod  bool
}

// NewServer creates a server and subscribes its websocket stream to the
// vault's emitter.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = log.NoOp()
	}
	s := &Server{
		vault:  cfg.Vault,
		store:  cfg.Store,
		log:    cfg.Log,
		stream: newStream(cfg.Log),
	}
	cfg.Vault.Events().SubscribeAll(s.stream.publish)
	if cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
	}
	return s
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api := router.Group("/api/v1")
	{
		// Players
		api.POST("/players", s.handleInscribe)
		api.GET("/players/:address", s.handleGetPlayer)
		api.GET("/leaderboard", s.handleLeaderboard)

		// Mysteries
		api.POST("/mysteries", s.handleCreateMystery)
		api.GET("/mysteries/active", s.handleActiveMysteries)
		api.GET("/mysteries/solved", s.handleSolvedMysteries)
		api.GET("/mysteries/:id", s.handleGetMystery)
		api.GET("/mysteries/:id/cost", s.handleSubmissionCost)
		api.POST("/mysteries/:id/submissions", s.handleSubmitAnswer)
		api.POST("/mysteries/:id/proof", s.handleRevealProof)
		api.POST("/mysteries/sweep", s.handleSweepExpired)

		// Treasury and journal
		api.GET("/treasury", s.handleTreasury)
		api.GET("/events", s.handleEvents)
	}

	router.GET("/ws", s.stream.handleWS)

	return router
}

// statusFor maps vault errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrNotOracle):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrMysteryNotFound),
		errors.Is(err, vault.ErrPlayerNotFound),
		errors.Is(err, vault.ErrNotInscribed):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrInsufficientPayment),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, vault.ErrAlreadyInscribed),
		errors.Is(err, vault.ErrMysteryExists),
		errors.Is(err, vault.ErrMysterySolved),
		errors.Is(err, vault.ErrProofRevealed),
		errors.Is(err, vault.ErrProofNotReady),
		errors.Is(err, vault.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, vault.ErrMysteryExpired):
		return http.StatusGone
	case errors.Is(err, vault.ErrProofMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vault.ErrInvalidDuration),
		errors.Is(err, vault.ErrEmptyHash),
		errors.Is(err, ledger.ErrNonPositiveAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
