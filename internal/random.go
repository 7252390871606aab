package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenRawSize is the entropy of opaque session and reset tokens.
const tokenRawSize = 32

// NewToken returns a fresh opaque token: 32 random bytes, base64url
// without padding (43 characters on the wire).
func NewToken() (string, error) {
	var raw [tokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
