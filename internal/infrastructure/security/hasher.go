// Package security implements one-way password hashing.
//
// New hashes are produced by the configured algorithm; verification accepts
// any algorithm the package knows, picked by the stored hash prefix, so a
// deployment can switch algorithms without invalidating existing accounts.
package security

import (
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

type hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// MultiHasher hashes with one algorithm and verifies with all of them.
type MultiHasher struct {
	primary hasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

// NewHasher returns a MultiHasher whose new hashes use algorithm.
func NewHasher(algorithm string, bcryptCost int, params Argon2Params) (*MultiHasher, error) {
	m := &MultiHasher{
		bcrypt: NewBcryptHasher(bcryptCost),
		argon2: NewArgon2Hasher(params),
	}
	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		m.primary = m.bcrypt
	case AlgorithmArgon2id:
		m.primary = m.argon2
	default:
		return nil, fmt.Errorf("unknown password hash algorithm %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(plain string) (string, error) {
	return m.primary.Hash(plain)
}

func (m *MultiHasher) Verify(plain, hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return m.argon2.Verify(plain, hash)
	}
	return m.bcrypt.Verify(plain, hash)
}
