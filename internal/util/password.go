package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost 10. Digests embed their own salt, so a single opaque string
// is stored per account.
const bcryptCost = 10

func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password cannot be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func VerifyPassword(password, digest string) bool {
	if len(password) == 0 || len(digest) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
