// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/pkg/errutil"
)

func userRow(user *account.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at"}).
		AddRow(user.ID.String(), user.Email, user.PasswordHash, user.Role, user.Name, user.CreatedAt, user.UpdatedAt)
}

func sampleUser(t *testing.T) *account.User {
	t.Helper()
	user, err := account.NewUser("ann@example.com", "digest", "USER", "Ann")
	require.NoError(t, err)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := sampleUser(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Email, user.PasswordHash, user.Role, user.Name, user.CreatedAt, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewUserRepository(mock)
		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrEmailTaken", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := sampleUser(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Email, user.PasswordHash, user.Role, user.Name, user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

		repo := postgres.NewUserRepository(mock)
		createErr := repo.Create(ctx, user)
		require.Error(t, createErr)
		assert.ErrorIs(t, createErr, account.ErrEmailTaken)
		errutil.AssertErrorCode(t, createErr, account.CodeEmailTaken)
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := sampleUser(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID.String(), user.Email, user.PasswordHash, user.Role, user.Name, user.CreatedAt, user.UpdatedAt).
			WillReturnError(errors.New("connection refused"))

		repo := postgres.NewUserRepository(mock)
		createErr := repo.Create(ctx, user)
		require.Error(t, createErr)
		assert.NotErrorIs(t, createErr, account.ErrEmailTaken)
		assert.Contains(t, createErr.Error(), "connection refused")
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := sampleUser(t)
		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WithArgs(user.ID.String()).
			WillReturnRows(userRow(user))

		repo := postgres.NewUserRepository(mock)
		got, getErr := repo.GetByID(ctx, user.ID)
		require.NoError(t, getErr)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at"}))

		repo := postgres.NewUserRepository(mock)
		_, getErr := repo.GetByID(ctx, id)
		assert.ErrorIs(t, getErr, account.ErrNotFound)
	})

	t.Run("bad stored id surfaces as scan failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at"}).
			AddRow("not-a-ulid", "a@x.com", "digest", "USER", "A", time.Now(), time.Now())
		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WithArgs(id.String()).
			WillReturnRows(rows)

		repo := postgres.NewUserRepository(mock)
		_, getErr := repo.GetByID(ctx, id)
		require.Error(t, getErr)
		assert.NotErrorIs(t, getErr, account.ErrNotFound)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns user by exact email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := sampleUser(t)
		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WithArgs(user.Email).
			WillReturnRows(userRow(user))

		repo := postgres.NewUserRepository(mock)
		got, getErr := repo.GetByEmail(ctx, user.Email)
		require.NoError(t, getErr)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing email is ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at"}))

		repo := postgres.NewUserRepository(mock)
		_, getErr := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, getErr, account.ErrNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns all users", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		u1 := sampleUser(t)
		u2, err := account.NewUser("bob@example.com", "digest2", "ADMIN", "Bob")
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "role", "name", "created_at", "updated_at"}).
			AddRow(u1.ID.String(), u1.Email, u1.PasswordHash, u1.Role, u1.Name, u1.CreatedAt, u1.UpdatedAt).
			AddRow(u2.ID.String(), u2.Email, u2.PasswordHash, u2.Role, u2.Name, u2.CreatedAt, u2.UpdatedAt)
		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).WillReturnRows(rows)

		repo := postgres.NewUserRepository(mock)
		users, listErr := repo.List(ctx)
		require.NoError(t, listErr)
		require.Len(t, users, 2)
		assert.Equal(t, "ann@example.com", users[0].Email)
		assert.Equal(t, "bob@example.com", users[1].Email)
	})

	t.Run("database error surfaces", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`(?s)SELECT .+ FROM users`).
			WillReturnError(errors.New("connection refused"))

		repo := postgres.NewUserRepository(mock)
		_, listErr := repo.List(ctx)
		require.Error(t, listErr)
		assert.Contains(t, listErr.Error(), "connection refused")
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("updates hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs(id.String(), "newdigest", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewUserRepository(mock)
		require.NoError(t, repo.UpdatePassword(ctx, id, "newdigest"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows is ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs(id.String(), "newdigest", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewUserRepository(mock)
		err = repo.UpdatePassword(ctx, id, "newdigest")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec("DELETE FROM users").
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		repo := postgres.NewUserRepository(mock)
		require.NoError(t, repo.Delete(ctx, id))
	})

	t.Run("zero rows is ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectExec("DELETE FROM users").
			WithArgs(id.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		repo := postgres.NewUserRepository(mock)
		err = repo.Delete(ctx, id)
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}
