// Package auth provides password hashing and the in-memory session
// store that binds HTTP requests and websocket upgrades to an identity.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. Changing them invalidates every stored hash, so
// they are fixed.
const (
	scryptN      = 1 << 14
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

// NewSalt returns a fresh random salt, hex encoded.
func NewSalt() (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives the stored hash for a password and hex salt.
func HashPassword(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("auth: bad salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("auth: scrypt: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// VerifyPassword reports whether the password matches the stored
// salt+hash pair, in constant time.
func VerifyPassword(password, saltHex, hashHex string) bool {
	candidate, err := HashPassword(password, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hashHex)) == 1
}
