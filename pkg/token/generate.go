package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// DefaultSize is the number of random bytes behind a token.
const DefaultSize = 32

// Random returns DefaultSize random bytes encoded as unpadded base64url.
func Random() string {
	b := make([]byte, DefaultSize)
	// crypto/rand.Read never returns an error since Go 1.24
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Hash returns the hex SHA-256 digest of a token. Tokens are high-entropy, so
// an unsalted digest is enough to keep a database leak from exposing them.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
