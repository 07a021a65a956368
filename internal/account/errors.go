// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when a create hits the unique email constraint.
var ErrEmailTaken = errors.New("email already registered")

// Error codes attached to oops errors. The HTTP boundary maps these to
// response statuses; see httpapi.
const (
	CodeInvalidInput       = "ACCOUNT_INVALID_INPUT"
	CodeEmailTaken         = "ACCOUNT_EMAIL_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeNotFound           = "ACCOUNT_NOT_FOUND"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeDeliveryFailed     = "MAIL_DELIVERY_FAILED"
	CodeStoreFailed        = "STORE_FAILED"
)
