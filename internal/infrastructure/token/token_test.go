package token

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	plain, hash, err := g.Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plain, Prefix))
	assert.Len(t, plain, len(Prefix)+tokenRandomBytes*2)
	assert.Equal(t, Hash(plain), hash)
	assert.Len(t, hash, 64)

	other, _, err := g.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, plain, other)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGenerator_RandomFailure(t *testing.T) {
	g := &Generator{rand: failingReader{}}
	_, _, err := g.Generate()
	assert.Error(t, err)
}

func TestGenerator_Deterministic(t *testing.T) {
	g := &Generator{rand: bytes.NewReader(make([]byte, tokenRandomBytes))}
	plain, _, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, Prefix+strings.Repeat("0", tokenRandomBytes*2), plain)
}

func TestVerifier(t *testing.T) {
	hashed := "hd_from_hash"

	tests := []struct {
		name     string
		verifier *Verifier
		token    string
		want     bool
	}{
		{"disabled accepts anything", NewVerifier("", ""), "whatever", true},
		{"plain match", NewVerifier("s3cret", ""), "s3cret", true},
		{"plain mismatch", NewVerifier("s3cret", ""), "S3CRET", false},
		{"hash match", NewVerifier("", Hash(hashed)), hashed, true},
		{"hash mismatch", NewVerifier("", Hash(hashed)), "s3cret", false},
		{"either secret", NewVerifier("s3cret", Hash(hashed)), hashed, true},
		{"empty token", NewVerifier("s3cret", ""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.verifier.Verify(tt.token))
		})
	}

	assert.False(t, NewVerifier("", "").Enabled())
	assert.True(t, NewVerifier("", Hash(hashed)).Enabled())
}
