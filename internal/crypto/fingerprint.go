// Package crypto derives identifier fingerprints and client secrets for verification sessions.
package crypto

import (
	"encoding/hex"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/blake2b"
)

// Client secrets must match [0-9a-zA-Z.=_-] and be at most 255 characters.
const (
	secretAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	secretLength   = 32
)

// Fingerprint returns a stable hash of a (medium, address) pair.
// Addresses are case-folded so that Alice@Example.org and alice@example.org collide.
func Fingerprint(medium, address string) []byte {
	sum := blake2b.Sum256([]byte(medium + "\x00" + strings.ToLower(strings.TrimSpace(address))))
	return sum[:]
}

// FingerprintHex is Fingerprint encoded for logs and cache keys.
func FingerprintHex(medium, address string) string {
	return hex.EncodeToString(Fingerprint(medium, address))
}

// Redact masks an address for logging, keeping its first character and domain.
func Redact(address string) string {
	if address == "" {
		return ""
	}
	if at := strings.LastIndexByte(address, '@'); at > 0 {
		return address[:1] + "***" + address[at:]
	}
	if len(address) <= 4 {
		return "***"
	}
	return "***" + address[len(address)-4:]
}

// NewClientSecret returns a fresh client secret for an identity server validation session.
func NewClientSecret() (string, error) {
	return gonanoid.Generate(secretAlphabet, secretLength)
}
