// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultRole is assigned when registration does not specify a role.
const DefaultRole = "USER"

// User represents a registered account.
//
// PasswordHash is deliberately excluded from JSON: the original service
// returned digests in list responses, which this implementation treats
// as a defect rather than a contract.
type User struct {
	ID           ulid.ULID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser creates a validated User with a fresh ULID.
// Role defaults to DefaultRole when empty. The password must already be
// hashed; NewUser never sees plaintext.
func NewUser(email, passwordHash, role, name string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hash cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("name cannot be empty")
	}
	if role == "" {
		role = DefaultRole
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. The store's unique email constraint is
	// the arbiter for concurrent registrations: the loser gets an error
	// wrapping ErrEmailTaken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-sensitive equality).
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users.
	List(ctx context.Context) ([]*User, error)

	// UpdatePassword replaces only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// Delete removes a user. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error
}
