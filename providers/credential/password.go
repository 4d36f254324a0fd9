package credential

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is the password hashing capability. The provider treats it
// as a black box: Hash produces a digest, Verify checks a password against
// one.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// BcryptHasher hashes passwords with bcrypt at the default cost. It is the
// hasher used when Config.Hasher is nil.
type BcryptHasher struct {
	// Cost overrides bcrypt.DefaultCost when non-zero.
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
