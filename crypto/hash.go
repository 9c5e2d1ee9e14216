package crypto

import (
	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a keccak256 digest.
const HashSize = 32

// Keccak256 returns the legacy keccak256 hash of all given chunks
// concatenated.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		// hash.Hash never returns an error.
		_, _ = h.Write(d)
	}
	return h.Sum(nil)
}
