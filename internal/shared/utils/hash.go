package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	// Extensible: add more algorithms here
)

// Hasher computes deterministic content hashes for committed files and
// blueprint identity checks.
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	default:
		// Fallback to SHA256
		hash := sha256.Sum256(data)
		return hex.EncodeToString(hash[:])
	}
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// ShortHash returns the first 8 characters of a full hash, for log output.
func ShortHash(fullHash string) string {
	if len(fullHash) < 8 {
		return fullHash
	}
	return fullHash[:8]
}
