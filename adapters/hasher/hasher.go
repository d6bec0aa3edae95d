// Package hasher hashes and verifies actor bearer tokens.
package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/confsync/ports"
)

// Bcrypt uses bcrypt for token hashes.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost. Out-of-range
// costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the work factor in use.
func (h *Bcrypt) Cost() int {
	return h.cost
}

// Hash generates a bcrypt hash of a token. bcrypt ignores input past 72
// bytes, so longer tokens are refused.
func (h *Bcrypt) Hash(token string) ([]byte, error) {
	if len(token) > 72 {
		return nil, fmt.Errorf("token is %d bytes, bcrypt accepts at most 72", len(token))
	}
	return bcrypt.GenerateFromPassword([]byte(token), h.cost)
}

// Compare checks if token matches hash.
func (h *Bcrypt) Compare(hash []byte, token string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(token)) == nil
}

// Ensure interface compliance.
var _ ports.Hasher = (*Bcrypt)(nil)

// Fake stores tokens verbatim (NOT FOR PRODUCTION).
type Fake struct{}

// Hash returns the token as bytes.
func (Fake) Hash(token string) ([]byte, error) {
	return []byte(token), nil
}

// Compare does simple equality check.
func (Fake) Compare(hash []byte, token string) bool {
	return string(hash) == token
}

// Ensure interface compliance.
var _ ports.Hasher = Fake{}
