// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package account provides the user-account domain for accountd.
//
// # Domain Types
//
// User records are created through NewUser, which validates required
// fields and assigns a ULID. Direct struct initialization bypasses
// validation and may create invalid state. Repository implementations
// receive pre-validated values from the constructor.
//
// # Tokens
//
// Sessions and password resets are stateless: TokenSigner issues signed
// bearer tokens (24h for sessions, 1h for resets) and verification is
// signature plus expiry only. Nothing is persisted per token, so a reset
// token stays replayable until it expires; that trade-off is deliberate.
//
// # Service
//
// Service coordinates the repository, hasher, signer, and mail sender
// into the account operations: Register, Login, DeleteAccount,
// ListUsers, RefreshSession, RequestPasswordReset, ResetPassword.
package account
