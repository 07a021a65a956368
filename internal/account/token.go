// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Token validity windows.
const (
	SessionTokenTTL = 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// Token purpose markers. Each token kind carries its purpose as a claim
// so a reset token can never be presented as a session and vice versa.
const (
	tokenTypeSession = "session"
	tokenTypeReset   = "reset"
)

// SessionClaims are the identity claims carried by a session token.
type SessionClaims struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// ResetClaims are the claims carried by a password-reset token.
// Resets carry only enough to re-resolve the live user record.
type ResetClaims struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies stateless HMAC-signed bearer tokens.
// Tokens are never persisted; validity is signature plus expiry only,
// so there is no revocation and a reset token can be replayed within
// its window.
type TokenSigner struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// SignerOption configures a TokenSigner.
type SignerOption func(*TokenSigner)

// WithSessionTTL overrides the session token validity window.
func WithSessionTTL(ttl time.Duration) SignerOption {
	return func(s *TokenSigner) { s.sessionTTL = ttl }
}

// WithResetTTL overrides the reset token validity window.
func WithResetTTL(ttl time.Duration) SignerOption {
	return func(s *TokenSigner) { s.resetTTL = ttl }
}

// WithClock overrides the time source for issuance and verification.
func WithClock(now func() time.Time) SignerOption {
	return func(s *TokenSigner) { s.now = now }
}

// NewTokenSigner creates a TokenSigner with the given signing secret.
func NewTokenSigner(secret []byte, opts ...SignerOption) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_EMPTY").Errorf("signing secret is required")
	}
	s := &TokenSigner{
		secret:     secret,
		sessionTTL: SessionTokenTTL,
		resetTTL:   ResetTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueSession signs a session token carrying the user's identity claims.
func (s *TokenSigner) IssueSession(user *User) (string, error) {
	if user == nil {
		return "", oops.Code(CodeInvalidInput).Errorf("user is required")
	}
	now := s.now()
	claims := SessionClaims{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
		Name:      user.Name,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return s.sign(claims)
}

// ReissueSession signs a fresh session token with the same identity claims.
func (s *TokenSigner) ReissueSession(claims *SessionClaims) (string, error) {
	if claims == nil {
		return "", oops.Code(CodeInvalidInput).Errorf("claims are required")
	}
	now := s.now()
	fresh := SessionClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		Name:      claims.Name,
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return s.sign(fresh)
}

// VerifySession checks signature and expiry and returns the claims.
// Fails closed: any structural or cryptographic defect is reported as
// an invalid token, never as a panic or a pass.
func (s *TokenSigner) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeSession {
		return nil, oops.Code(CodeTokenInvalid).Errorf("token is not a session token")
	}
	return claims, nil
}

// IssueReset signs a single-purpose password-reset token.
func (s *TokenSigner) IssueReset(userID, email string) (string, error) {
	if userID == "" || email == "" {
		return "", oops.Code(CodeInvalidInput).Errorf("user id and email are required")
	}
	now := s.now()
	claims := ResetClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}
	return s.sign(claims)
}

// VerifyReset checks signature and expiry and returns the reset claims.
func (s *TokenSigner) VerifyReset(token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeReset {
		return nil, oops.Code(CodeTokenInvalid).Errorf("token is not a reset token")
	}
	return claims, nil
}

func (s *TokenSigner) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

func (s *TokenSigner) parse(token string, claims jwt.Claims) error {
	if token == "" {
		return oops.Code(CodeTokenInvalid).Errorf("token cannot be empty")
	}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return oops.Code(CodeTokenInvalid).Wrap(err)
	}
	if !parsed.Valid {
		return oops.Code(CodeTokenInvalid).Errorf("token is not valid")
	}
	return nil
}
