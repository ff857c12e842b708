// Package auth covers credential verification and session tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the SHA-256 digest of the password, hex encoded.
// This is the digest format stored in the credential store.
func HashPassword(password string) string {
	digest := sha256.Sum256([]byte(password))
	return hex.EncodeToString(digest[:])
}

// VerifyPassword checks a plaintext password against a stored hash.
//
// Two stored formats are accepted: the canonical 64-char SHA-256 hex digest,
// and bcrypt ("$2..."), which older user files carry. SHA-256 comparison is
// constant-time with regard to the stored digest.
func VerifyPassword(password, storedHash string) bool {
	if strings.HasPrefix(storedHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	}

	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
