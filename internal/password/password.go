// Package password hashes and verifies user passwords.
//
// Verification is a pure function of the plaintext and the stored hash: it
// never reads user records and never returns an error on mismatch.
package password

import (
	"errors"
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var (
	ErrEmptyPassword   = errors.New("password must not be empty")
	ErrPasswordTooLong = errors.New("password is too long")
)

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, encoded string) bool
}

// Multi hashes new passwords with its primary algorithm and verifies
// against whichever algorithm produced the stored hash.
type Multi struct {
	primary Hasher
	bcrypt  *Bcrypt
	argon2  *Argon2
}

func NewHasher(algorithm string) (*Multi, error) {
	bcryptHasher, err := NewBcrypt(DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	argonHasher, err := NewArgon2(DefaultArgon2Params)
	if err != nil {
		return nil, err
	}

	m := &Multi{bcrypt: bcryptHasher, argon2: argonHasher}
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		m.primary = bcryptHasher
	case AlgorithmArgon2id:
		m.primary = argonHasher
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}

	return m, nil
}

func (m *Multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *Multi) Verify(plaintext string, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$"+AlgorithmArgon2id+"$"):
		return m.argon2.Verify(plaintext, encoded)
	case isBcryptHash(encoded):
		return m.bcrypt.Verify(plaintext, encoded)
	default:
		return false
	}
}
