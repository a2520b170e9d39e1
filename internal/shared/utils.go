// Package shared holds small helpers used by both the server and the CLI client.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MakeRandHexString returns size random bytes encoded as hex, so the result
// is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewRequestID returns a short random identifier for correlating log lines.
// An empty string is returned if the system random source fails.
func NewRequestID() string {
	id, err := MakeRandHexString(8)
	if err != nil {
		return ""
	}
	return id
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Uniqueness of accounts is defined over the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// WipeByteArray zeroes b in place. Used to drop passwords read from the
// terminal once they have been sent.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
