// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetSender delivers a password-reset link to a user's email address.
// Delivery is best-effort, at-most-once; failures surface to the caller.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, toEmail, resetLink string) error
}

// Service orchestrates the account operations. It is stateless between
// calls; the user store is the only shared mutable resource.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	signer    *TokenSigner
	sender    ResetSender
	baseURL   string
	logger    *slog.Logger
	dummyHash string
}

// NewService creates a Service and validates its dependencies.
// baseURL is the public origin used to build reset links.
func NewService(users UserRepository, hasher PasswordHasher, signer *TokenSigner, sender ResetSender, baseURL string, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if signer == nil {
		return nil, oops.Errorf("token signer is required")
	}
	if sender == nil {
		return nil, oops.Errorf("reset sender is required")
	}
	if baseURL == "" {
		return nil, oops.Errorf("public base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Hash an arbitrary value once so Login can burn the same CPU when
	// the email does not resolve, keeping response time uniform.
	dummyHash, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, oops.Wrap(err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		signer:    signer,
		sender:    sender,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

// Register creates a new user and returns a session token.
// Role defaults to DefaultRole when empty. A duplicate email fails with
// CodeEmailTaken; the store's unique constraint decides races.
func (s *Service) Register(ctx context.Context, email, password, role, name string) (string, error) {
	if email == "" || password == "" || name == "" {
		return "", oops.Code(CodeInvalidInput).Errorf("email, password and name are required")
	}

	// Friendly pre-check; the authoritative answer is Create below.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", oops.Code(CodeEmailTaken).With("email", email).Errorf("a user with this email already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return "", oops.Code(CodeStoreFailed).With("operation", "get user by email").Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	user, err := NewUser(email, digest, role, name)
	if err != nil {
		return "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return "", oops.Code(CodeEmailTaken).With("email", email).Errorf("a user with this email already exists")
		}
		return "", oops.Code(CodeStoreFailed).With("operation", "create user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String(), "role", user.Role)

	token, err := s.signer.IssueSession(user)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Login verifies credentials and returns a fresh session token.
// Unknown email and wrong password fail with the same code and message;
// the lookup miss still runs a digest comparison to keep timing uniform.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", oops.Code(CodeInvalidInput).Errorf("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return "", oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
		}
		return "", oops.Code(CodeStoreFailed).With("operation", "get user by email").Wrap(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())

	return s.signer.IssueSession(user)
}

// DeleteAccount removes the authenticated user's own record.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	id, err := ulid.Parse(userID)
	if err != nil {
		return oops.Code(CodeNotFound).With("user_id", userID).Errorf("user not found")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("user_id", userID).Errorf("user not found")
		}
		return oops.Code(CodeStoreFailed).With("operation", "delete user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

// ListUsers returns all user records. Password digests never leave the
// service: User serializes without the hash field.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.Code(CodeStoreFailed).With("operation", "list users").Wrap(err)
	}
	return users, nil
}

// RefreshSession issues a fresh session token for already-verified claims.
func (s *Service) RefreshSession(claims *SessionClaims) (string, error) {
	return s.signer.ReissueSession(claims)
}

// RequestPasswordReset issues a reset token for the user with the given
// email and sends a reset link. The token is not stored anywhere; a
// sink failure surfaces as CodeDeliveryFailed and is not retried.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return oops.Code(CodeInvalidInput).Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("email", email).Errorf("no user with this email")
		}
		return oops.Code(CodeStoreFailed).With("operation", "get user by email").Wrap(err)
	}

	token, err := s.signer.IssueReset(user.ID.String(), user.Email)
	if err != nil {
		return err
	}

	link := s.baseURL + "/resetPassword/" + token
	if err := s.sender.SendPasswordReset(ctx, user.Email, link); err != nil {
		return oops.Code(CodeDeliveryFailed).With("user_id", user.ID.String()).Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	return nil
}

// ResetPassword consumes a reset token and replaces the user's password.
// The token must verify and its id+email must still resolve to a live
// record. Nothing marks the token used; replay within the window
// performs the same change again.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return oops.Code(CodeInvalidInput).Errorf("token and new password are required")
	}

	claims, err := s.signer.VerifyReset(token)
	if err != nil {
		return err
	}

	id, err := ulid.Parse(claims.UserID)
	if err != nil {
		return oops.Code(CodeTokenInvalid).Wrap(err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("user_id", claims.UserID).Errorf("user not found")
		}
		return oops.Code(CodeStoreFailed).With("operation", "get user by id").Wrap(err)
	}
	if user.Email != claims.Email {
		return oops.Code(CodeNotFound).With("user_id", claims.UserID).Errorf("user not found")
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, id, digest); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeNotFound).With("user_id", claims.UserID).Errorf("user not found")
		}
		return oops.Code(CodeStoreFailed).With("operation", "update password").Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset performed", "user_id", claims.UserID)
	return nil
}
