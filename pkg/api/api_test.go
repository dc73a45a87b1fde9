// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/veilgame/bountyvault/pkg/answer"
	"github.com/veilgame/bountyvault/pkg/ids"
	"github.com/veilgame/bountyvault/pkg/ledger"
	"github.com/veilgame/bountyvault/pkg/log"
	"github.com/veilgame/bountyvault/pkg/storage"
	"github.com/veilgame/bountyvault/pkg/vault"
)

const oracleAddr = "0xoracle"

type apiEnv struct {
	router *gin.Engine
	ledger *ledger.Ledger
	vault  *vault.Vault
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	led := ledger.New()
	store := storage.NewMemory()
	v, err := vault.New(vault.Config{
		Oracle: oracleAddr,
		Ledger: led,
		Store:  store,
		Log:    log.NoOp(),
	})
	require.NoError(t, err)
	require.NoError(t, led.Mint(oracleAddr, decimal.NewFromInt(1000)))

	srv := NewServer(Config{Vault: v, Store: store, Log: log.NoOp()})
	return &apiEnv{router: srv.Router(), ledger: led, vault: v}
}

func (env *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (env *apiEnv) createMystery(t *testing.T, name, answerText string) string {
	t.Helper()
	proofHash := answer.HashProof([]byte("proof"))
	answerHash := answer.Hash(answerText)
	w := env.do(t, http.MethodPost, "/api/v1/mysteries", gin.H{
		"caller":           oracleAddr,
		"name":             name,
		"answer_hash":      hex.EncodeToString(answerHash[:]),
		"proof_hash":       hex.EncodeToString(proofHash[:]),
		"duration_seconds": 3600,
		"difficulty":       2,
		"stake":            "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode(t, w)["id"].(string)
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", decode(t, w)["status"])
}

func TestInscribeEndpoint(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)
	require.NoError(env.ledger.Mint("0xalice", decimal.NewFromInt(100)))

	w := env.do(t, http.MethodPost, "/api/v1/players", gin.H{
		"address": "0xalice",
		"payment": "10",
	})
	require.Equal(http.StatusCreated, w.Code)
	require.Equal("0xalice", decode(t, w)["player"])

	// Second inscription conflicts.
	w = env.do(t, http.MethodPost, "/api/v1/players", gin.H{
		"address": "0xalice",
		"payment": "10",
	})
	require.Equal(http.StatusConflict, w.Code)

	// Underpayment is a payment error.
	require.NoError(env.ledger.Mint("0xbob", decimal.NewFromInt(100)))
	w = env.do(t, http.MethodPost, "/api/v1/players", gin.H{
		"address": "0xbob",
		"payment": "9",
	})
	require.Equal(http.StatusPaymentRequired, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/players/0xalice", nil)
	require.Equal(http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/players/0xnobody", nil)
	require.Equal(http.StatusNotFound, w.Code)
}

func TestCreateMysteryEndpoint(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	id := env.createMystery(t, "harbor", "secret")

	w := env.do(t, http.MethodGet, "/api/v1/mysteries/"+id, nil)
	require.Equal(http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal("10", body["bounty_pool"])
	require.Equal(false, body["solved"])
	// Unrevealed proof is withheld.
	require.NotContains(body, "proof")

	// Non-oracle callers are rejected.
	answerHash := answer.Hash("x")
	w = env.do(t, http.MethodPost, "/api/v1/mysteries", gin.H{
		"caller":           "0xalice",
		"name":             "other",
		"answer_hash":      hex.EncodeToString(answerHash[:]),
		"proof_hash":       hex.EncodeToString(answerHash[:]),
		"duration_seconds": 60,
	})
	require.Equal(http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/mysteries/active", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal(float64(1), decode(t, w)["total"])
}

func TestSubmitEndpoint(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	id := env.createMystery(t, "harbor", "secret")
	require.NoError(env.ledger.Mint("0xalice", decimal.NewFromInt(100)))
	w := env.do(t, http.MethodPost, "/api/v1/players", gin.H{
		"address": "0xalice", "payment": "10",
	})
	require.Equal(http.StatusCreated, w.Code)

	// First attempt costs the base fee.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/mysteries/%s/cost?player=0xalice", id), nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal("1", decode(t, w)["fee"])

	w = env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/submissions", gin.H{
		"player": "0xalice", "answer": "wrong", "payment": "1",
	})
	require.Equal(http.StatusOK, w.Code)
	require.Equal(false, decode(t, w)["correct"])

	w = env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/submissions", gin.H{
		"player": "0xalice", "answer": "SECRET", "payment": "2",
	})
	require.Equal(http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(true, body["correct"])
	require.Equal("18", body["payout"])

	// Solved mysteries take no more submissions.
	w = env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/submissions", gin.H{
		"player": "0xalice", "answer": "secret", "payment": "5",
	})
	require.Equal(http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/leaderboard?limit=5", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal(float64(1), decode(t, w)["total"])
}

func TestSubmitRequiresInscription(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	id := env.createMystery(t, "harbor", "secret")
	w := env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/submissions", gin.H{
		"player": "0xghost", "answer": "secret", "payment": "1",
	})
	require.Equal(http.StatusNotFound, w.Code)
}

func TestRevealProofEndpoint(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	id := env.createMystery(t, "harbor", "secret")
	require.NoError(env.ledger.Mint("0xalice", decimal.NewFromInt(100)))
	env.do(t, http.MethodPost, "/api/v1/players", gin.H{
		"address": "0xalice", "payment": "10",
	})
	env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/submissions", gin.H{
		"player": "0xalice", "answer": "secret", "payment": "1",
	})

	// createMystery hashes the literal "proof" payload, which is not valid
	// JSON, so bind it as a JSON string here.
	w := env.do(t, http.MethodPost, "/api/v1/mysteries/"+id+"/proof", gin.H{
		"caller": oracleAddr,
		"proof":  json.RawMessage(`"not the artifact"`),
	})
	require.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestEventsEndpoint(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	env.createMystery(t, "harbor", "secret")

	w := env.do(t, http.MethodGet, "/api/v1/events", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal(float64(1), decode(t, w)["total"])

	w = env.do(t, http.MethodGet, "/api/v1/events?from=2", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal(float64(0), decode(t, w)["total"])
}

func TestBadRequests(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/players", gin.H{"address": "0xalice"})
	require.Equal(http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/mysteries/nothex", nil)
	require.Equal(http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/treasury", nil)
	require.Equal(http.StatusOK, w.Code)
	require.Equal("0", decode(t, w)["balance"])
}

func TestMysteryViewTimes(t *testing.T) {
	require := require.New(t)
	env := newAPIEnv(t)

	idStr := env.createMystery(t, "harbor", "secret")
	id, err := ids.FromString(idStr)
	require.NoError(err)
	m, err := env.vault.GetMystery(id)
	require.NoError(err)
	require.Equal(time.Hour, m.ExpiresAt.Sub(m.CreatedAt))
}
