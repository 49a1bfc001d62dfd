package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
	// dummy is compared against when there is no real hash to check so that
	// unknown accounts take as long to reject as wrong passwords.
	dummy []byte
}

// NewHasher creates a Hasher using the given bcrypt cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password cost %d outside of [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("turnstile"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reference hash: %w", err)
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash generates the hash for a given password. It errors if the password is
// longer than [MaxPasswordBytes].
func (h *Hasher) Hash(password string) ([]byte, error) {
	return HashPassword(password, h.cost)
}

// Verify reports whether password resolves to hash. Malformed hashes never
// match.
func (h *Hasher) Verify(password string, hash []byte) bool {
	return ComparePassword(password, hash) == nil
}

// VerifyNothing spends the same time as a failed [Hasher.Verify] and always
// returns false.
func (h *Hasher) VerifyNothing(password string) bool {
	_ = ComparePassword(password, h.dummy)
	return false
}

// ComparePassword returns an error if the provided password does not resolve to
// the given hash.
func ComparePassword[T ~string | ~[]byte](password T, hash []byte) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// HashPassword generates the hash for a given password and cost. It errors if
// the password is longer than 72 bytes.
func HashPassword[T ~string | ~[]byte](password T, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	return hash, err
}
