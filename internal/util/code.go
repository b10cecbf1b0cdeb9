package util

import (
	"crypto/rand"
	"encoding/hex"
)

const codeEntropyBytes = 32

// GenerateCode returns a hex-encoded random token with 32 bytes of
// entropy, safe to embed in a verification or reset link path.
func GenerateCode() (string, error) {
	buf := make([]byte, codeEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
