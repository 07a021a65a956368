// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package errutil provides helpers for logging and testing structured errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code, and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}

// Code returns the oops error code for err, or the empty string if err is
// not an oops error or carries no code.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}
