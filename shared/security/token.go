package security

import (
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// HashToken returns the hex encoded BLAKE2b-512 digest of a raw verification token.
// Only digests are persisted; the raw token exists in the e-mailed link alone.
func HashToken(token []byte) string {
	sum := blake2b.Sum512(token)
	return hex.EncodeToString(sum[:])
}

// HashTokenString parses a token in its e-mailed form and hashes its raw bytes.
// It returns false for strings that are not well-formed tokens.
func HashTokenString(token string) (string, bool) {
	id, err := uuid.Parse(token)
	if err != nil {
		return "", false
	}

	return HashToken(id[:]), true
}

// TokenSource issues fresh verification tokens.
type TokenSource interface {
	NewToken() (uuid.UUID, error)
}

// RandomTokenSource issues random (version 4) UUIDs read from crypto/rand.
type RandomTokenSource struct{}

// NewToken returns a new random token.
func (RandomTokenSource) NewToken() (uuid.UUID, error) {
	return uuid.NewRandom()
}
