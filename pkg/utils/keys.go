package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey creates a SHA256 hash of a value.
// This is useful for creating consistent, safe keys for Redis.
func HashKey(value string) string {
	h := sha256.New()
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// RandomID returns a short random hex identifier, used to correlate a listing
// candidate with its resolution outcome within one scan.
func RandomID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(buf)
}

// NormalizeDomain lowercases a merchant domain and strips surrounding noise so
// lookups and persistence agree on the key.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, "/")
}
