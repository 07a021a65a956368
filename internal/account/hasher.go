// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password digests. The value is
// carried over from the original service as a compatibility contract;
// it is well below bcrypt.DefaultCost and should be raised together
// with a rehash-on-login migration if that contract is ever dropped.
const BcryptCost = 5

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeInvalidInput).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the digest.
	// A malformed digest verifies as false, never as an error.
	Verify(password, digest string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the fixed BcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

// Hash produces a bcrypt digest of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(digest), nil
}

// Verify reports whether the password matches the digest.
// bcrypt embeds salt and cost in the digest, and the comparison is
// constant-time. Any parse failure counts as a mismatch.
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
