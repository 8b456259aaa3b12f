package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the salt rounds the rest of the stack was provisioned
// with. Raising it invalidates nothing (bcrypt encodes the cost in the hash)
// but slows every login.
const bcryptCost = 10

// HashPassword produces a salted bcrypt hash of the plaintext. Each call
// embeds a fresh random salt, so hashing the same password twice yields two
// different strings.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
