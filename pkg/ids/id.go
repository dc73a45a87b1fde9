package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID is an opaque 256-bit identifier. Mystery ids are derived off-chain
// (sha256 of a human-readable name) and treated as opaque bytes here.
type ID [32]byte

// Empty is the zero ID.
var Empty = ID{}

// GenerateTestID creates a random ID for testing
func GenerateTestID() ID {
	var id ID
	rand.Read(id[:])
	return id
}

// String returns the hex representation of the ID
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the byte representation of the ID
func (id ID) Bytes() []byte {
	return id[:]
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == Empty
}

// FromString creates an ID from a hex string, with or without a 0x prefix
func FromString(s string) (ID, error) {
	var id ID
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(bytes) != 32 {
		return id, fmt.Errorf("invalid ID length: expected 32, got %d", len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}

// FromBytes creates an ID from a 32-byte slice
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != 32 {
		return id, fmt.Errorf("invalid ID length: expected 32, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}
