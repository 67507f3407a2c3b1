package security

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt over a SHA-256 pre-digest.
// bcrypt only looks at the first 72 bytes of its input; hashing the
// fixed-size hex digest instead of the raw password keeps the scheme
// length-independent without losing entropy of long passwords.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digest(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. A malformed
// stored hash verifies as false; bcrypt's comparison is constant-time.
func (h PasswordHasher) Verify(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), digest(password)) == nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}
