// Package token issues and checks admin API tokens. Configuration may hold
// either the token itself or only its SHA-256 hash.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

// Prefix marks helpdesk admin tokens so they are recognisable in logs and
// secret scanners.
const Prefix = "hd_"

const tokenRandomBytes = 32

type Generator struct {
	rand io.Reader
}

func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Generate returns a new token and the hash to put in admin_token_hash.
func (g *Generator) Generate() (plainToken string, hash string, err error) {
	randomBytes := make([]byte, tokenRandomBytes)
	if _, err := io.ReadFull(g.rand, randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plainToken = Prefix + hex.EncodeToString(randomBytes)
	return plainToken, Hash(plainToken), nil
}

func Hash(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

// Verifier accepts tokens matching any configured secret.
type Verifier struct {
	hashes [][]byte
}

// NewVerifier takes a plain secret, a hex SHA-256 hash, or both. Empty values
// are ignored; with neither set every token is accepted.
func NewVerifier(plain, hash string) *Verifier {
	v := &Verifier{}
	if plain != "" {
		v.hashes = append(v.hashes, []byte(Hash(plain)))
	}
	if hash != "" {
		v.hashes = append(v.hashes, []byte(hash))
	}
	return v
}

func (v *Verifier) Enabled() bool {
	return len(v.hashes) > 0
}

func (v *Verifier) Verify(plainToken string) bool {
	if !v.Enabled() {
		return true
	}
	computed := []byte(Hash(plainToken))
	ok := 0
	for _, h := range v.hashes {
		ok |= subtle.ConstantTimeCompare(computed, h)
	}
	return ok == 1
}
