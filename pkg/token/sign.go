package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Sign returns "value.signature" using HMAC-SHA256 with secret.
func Sign(value, secret string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(mac(value, secret))
}

// Verify checks a value produced by Sign and returns the original value.
func Verify(signed, secret string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 || i == len(signed)-1 {
		return "", ErrInvalidToken
	}
	value := signed[:i]

	sig, err := base64.RawURLEncoding.DecodeString(signed[i+1:])
	if err != nil {
		return "", ErrInvalidToken
	}
	if !hmac.Equal(sig, mac(value, secret)) {
		return "", ErrSignatureInvalid
	}
	return value, nil
}

func mac(value, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return h.Sum(nil)
}
