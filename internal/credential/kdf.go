// Package credential implements C1, the Credential Store: issuing opaque
// tenant API keys, hashing them at rest with a password-grade KDF, and
// verifying presented keys in constant time.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// keyPrefixLen is the number of leading characters of the plaintext key
// kept as the display prefix shown alongside a tenant's credential (e.g. in `GET /connections`).
const keyPrefixLen = 6

// keyEntropyBytes gives the plaintext key >= 256 bits of entropy before
// URL-safe base64 encoding.
const keyEntropyBytes = 32

// fixedKeyToken prefixes every issued plaintext key so credentials are
// recognizable (and greppable) in transit logs without revealing material.
const fixedKeyToken = "ilgk_"

// saltBytes is the per-record salt length for the KDF.
const saltBytes = 16

// kdfKeyLen is the derived digest length in bytes.
const kdfKeyLen = 32

// generatePlaintextKey returns a new high-entropy, URL-safe credential.
func generatePlaintextKey() (string, error) {
	buf := make([]byte, keyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: generate key: %w", err)
	}

	return fixedKeyToken + base64.RawURLEncoding.EncodeToString(buf), nil
}

// keyPrefix returns the first keyPrefixLen characters of the plaintext key,
// safe to persist and display (never enough to brute-force).
func keyPrefix(plaintextKey string) string {
	if len(plaintextKey) <= keyPrefixLen {
		return plaintextKey
	}

	return plaintextKey[:keyPrefixLen]
}

// newSalt returns a fresh per-record KDF salt.
func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: generate salt: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// deriveDigest runs PBKDF2-HMAC-SHA256 over the presented key with the
// given hex-encoded salt and iteration count, returning a hex digest.
//
// Grounded on original_source/backend/app/security/encryption.py's
// EncryptionManager._derive_key (PBKDF2HMAC, SHA256, default 100000
// iterations) — the teacher's own GetTenantByAPIKey is a bare SHA-256
// lookup with no KDF, which is why this package exists instead of reusing
// it directly.
func deriveDigest(presentedKey, hexSalt string, iterations int) (string, error) {
	salt, err := hex.DecodeString(hexSalt)
	if err != nil {
		return "", fmt.Errorf("credential: decode salt: %w", err)
	}

	digest := pbkdf2.Key([]byte(presentedKey), salt, iterations, kdfKeyLen, sha256.New)

	return hex.EncodeToString(digest), nil
}

// verifyDigest recomputes the KDF digest for presentedKey and compares it
// to storedHash in constant time.
func verifyDigest(presentedKey, hexSalt, storedHash string, iterations int) (bool, error) {
	computed, err := deriveDigest(presentedKey, hexSalt, iterations)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1, nil
}
