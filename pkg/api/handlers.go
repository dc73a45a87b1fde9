// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/ids"
	"github.com/veilgame/bountyvault/pkg/vault"
)

// mysteryView is the wire shape of a mystery. Hashes travel as hex; the
// proof only appears once revealed.
type mysteryView struct {
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
	Proof         json.RawMessage `json:"proof,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

func viewOf(m vault.Mystery) mysteryView {
	v := mysteryView{
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
		Metadata:      m.Metadata,
	}
	if m.ProofRevealed {
		v.Proof = m.ProofData
	}
	return v
}

func parseHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, vault.ErrEmptyHash
	}
	copy(out[:], raw)
	return out, nil
}

func (s *Server) mysteryID(c *gin.Context) (ids.ID, bool) {
	id, err := ids.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mystery id"})
		return ids.Empty, false
	}
	return id, true
}

func (s *Server) handleInscribe(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
		Payment string `json:"payment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := decimal.NewFromString(req.Payment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment amount"})
		return
	}

	receipt, err := s.vault.InscribePlayer(req.Address, payment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"player":            receipt.Player,
		"payment":           receipt.Payment.String(),
		"pool_contribution": receipt.PoolContribution.String(),
		"pools_funded":      receipt.PoolsFunded,
		"treasury_share":    receipt.TreasuryShare.String(),
	})
}

func (s *Server) handleGetPlayer(c *gin.Context) {
	stats, err := s.vault.GetPlayerStats(c.Param("address"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":           stats.Address,
		"inscribed_at":      stats.InscribedAt,
		"mysteries_solved":  stats.MysteriesSolved,
		"total_bounty_won":  stats.TotalBountyWon.String(),
		"total_submissions": stats.TotalSubmissions,
		"reputation":        stats.Reputation,
	})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := 0
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	entries := s.vault.GetLeaderboard(limit)
	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"total":       len(entries),
	})
}

func (s *Server) handleCreateMystery(c *gin.Context) {
	var req struct {
		Caller          string          `json:"caller" binding:"required"`
		Name            string          `json:"name"`
		ID              string          `json:"id"`
		AnswerHash      string          `json:"answer_hash" binding:"required"`
		ProofHash       string          `json:"proof_hash" binding:"required"`
		DurationSeconds int64           `json:"duration_seconds" binding:"required"`
		Difficulty      uint8           `json:"difficulty"`
		Stake           string          `json:"stake"`
		Metadata        json.RawMessage `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var id ids.ID
	var err error
	switch {
	case req.ID != "":
		if id, err = ids.FromString(req.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mystery id"})
			return
		}
	case req.Name != "":
		id = answer.DeriveMysteryID(req.Name)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or id required"})
		return
	}

	answerHash, err := parseHash(req.AnswerHash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid answer hash"})
		return
	}
	proofHash, err := parseHash(req.ProofHash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proof hash"})
		return
	}
	stake := decimal.Zero
	if req.Stake != "" {
		if stake, err = decimal.NewFromString(req.Stake); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stake"})
			return
		}
	}

	m, err := s.vault.CreateMystery(req.Caller, vault.CreateMysteryRequest{
		ID:         id,
		AnswerHash: answerHash,
		ProofHash:  proofHash,
		Duration:   time.Duration(req.DurationSeconds) * time.Second,
		Difficulty: req.Difficulty,
		Stake:      stake,
		Metadata:   req.Metadata,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(*m))
}

func (s *Server) handleGetMystery(c *gin.Context) {
	id, ok := s.mysteryID(c)
	if !ok {
		return
	}
	m, err := s.vault.GetMystery(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(m))
}

func (s *Server) handleActiveMysteries(c *gin.Context) {
	s.listMysteries(c, s.vault.GetActiveMysteries())
}

func (s *Server) handleSolvedMysteries(c *gin.Context) {
	s.listMysteries(c, s.vault.GetSolvedMysteries())
}

func (s *Server) listMysteries(c *gin.Context, ms []vault.Mystery) {
	views := make([]mysteryView, 0, len(ms))
	for _, m := range ms {
		views = append(views, viewOf(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"mysteries": views,
		"total":     len(views),
	})
}

func (s *Server) handleSubmissionCost(c *gin.Context) {
	id, ok := s.mysteryID(c)
	if !ok {
		return
	}
	player := c.Query("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player required"})
		return
	}
	cost, err := s.vault.SubmissionCost(player, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mystery_id": id.String(),
		"player":     player,
		"fee":        cost.String(),
	})
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	id, ok := s.mysteryID(c)
	if !ok {
		return
	}
	var req struct {
		Player  string `json:"player" binding:"required"`
		Answer  string `json:"answer" binding:"required"`
		Payment string `json:"payment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := decimal.NewFromString(req.Payment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment amount"})
		return
	}

	result, err := s.vault.SubmitAnswer(req.Player, id, req.Answer, payment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correct":     result.Correct,
		"attempt":     result.Attempt,
		"fee":         result.Fee.String(),
		"paid":        result.Paid.String(),
		"payout":      result.Payout.String(),
		"bounty_pool": result.Pool.String(),
	})
}

func (s *Server) handleRevealProof(c *gin.Context) {
	id, ok := s.mysteryID(c)
	if !ok {
		return
	}
	var req struct {
		Caller string          `json:"caller" binding:"required"`
		Proof  json.RawMessage `json:"proof" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.vault.RevealProof(req.Caller, id, req.Proof); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mystery_id": id.String(),
		"revealed":   true,
	})
}

func (s *Server) handleSweepExpired(c *gin.Context) {
	n, err := s.vault.SweepExpired()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}

func (s *Server) handleTreasury(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"balance": s.vault.TreasuryBalance().String(),
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}, "total": 0})
		return
	}
	from := uint64(0)
	if q := c.Query("from"); q != "" {
		n, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		from = n
	}
	recs, err := s.store.Events(from)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": recs,
		"total":  len(recs),
	})
}
