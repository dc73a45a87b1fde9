// Copyright (C) 2025, Veilgame Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package answer is the shared normalization and hashing contract between
// the off-chain mystery generator and the on-chain verifier. Both sides
// must produce identical bytes or correct answers are silently rejected,
// so the rules here are deliberately minimal: lowercase, trim, UTF-8,
// SHA-256. Multi-field answers are pipe-joined before normalization.
package answer

import (
	"crypto/sha256"
	"strings"

	"github.com/veilgame/bountyvault/pkg/ids"
)

// FieldDelimiter joins the parts of a multi-field answer
// (e.g. WHO|WHAT|WHY|HOW) before hashing.
const FieldDelimiter = "|"

// Normalize lowercases and trims surrounding whitespace. Inner whitespace
// is preserved; the generator emits answers with single spaces.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// JoinFields assembles a multi-field answer into its canonical
// pipe-delimited form. Each field is normalized independently.
func JoinFields(fields ...string) string {
	normalized := make([]string, len(fields))
	for i, f := range fields {
		normalized[i] = Normalize(f)
	}
	return strings.Join(normalized, FieldDelimiter)
}

// Hash returns the digest the verifier compares against a mystery's stored
// answer hash: sha256 over the normalized UTF-8 text.
func Hash(text string) [32]byte {
	return sha256.Sum256([]byte(Normalize(text)))
}

// HashProof digests a proof artifact byte-exact. Proofs are canonical JSON
// produced off-chain; no normalization is applied.
func HashProof(proof []byte) [32]byte {
	return sha256.Sum256(proof)
}

// DeriveMysteryID maps a human-readable mystery name to its on-chain id.
func DeriveMysteryID(name string) ids.ID {
	return ids.ID(sha256.Sum256([]byte(name)))
}
