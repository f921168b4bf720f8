package utils

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 fingerprinting of opaque tokens
    "encoding/hex"  // hex encoding for tokens and digests
)

// NewInviteToken returns a cryptographically secure random token handed to
// an invited user.  Only its fingerprint is stored in the database.
func NewInviteToken() (string, error) {
    return randomHex(32) // 32 bytes -> 64 hex chars
}

// FingerprintToken returns the SHA-256 hash of a raw token as a hex
// string.  Invite tokens and refresh tokens are stored only as
// fingerprints so database entries cannot be replayed.
func FingerprintToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
