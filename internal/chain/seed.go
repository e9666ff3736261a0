package chain

import (
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// SeedBytes is the entropy of a derivation seed.
const SeedBytes = 16

// RandomSeed returns 16 random bytes encoded as base58, suitable as a
// createAccountWithSeed seed (at most 32 characters).
func RandomSeed() (string, error) {
	buf := make([]byte, SeedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return base58.Encode(buf), nil
}
