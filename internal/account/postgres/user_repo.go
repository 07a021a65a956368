// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package postgres implements account repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it, keeping unit tests off a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements account.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user. The unique index on email arbitrates
// concurrent registrations: the loser gets account.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Name,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code(account.CodeEmailTaken).
				With("email", user.Email).
				Wrap(account.ErrEmailTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, role, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(account.CodeNotFound).
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email. Equality is case-sensitive by
// contract: two emails differing only in case are distinct records.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, role, name, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(account.CodeNotFound).
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*account.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, password_hash, role, name, created_at, updated_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	var users []*account.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(err)
	}
	return users, nil
}

// UpdatePassword replaces only the password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code(account.CodeNotFound).
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM users WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code(account.CodeNotFound).
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*account.User, error) {
	var (
		idStr        string
		email        string
		passwordHash string
		role         string
		name         string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&idStr, &email, &passwordHash, &role, &name, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	return &account.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Name:         name,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// Compile-time interface check.
var _ account.UserRepository = (*UserRepository)(nil)
