// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/pkg/errutil"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(v)
}

// statusForCode maps domain error codes to HTTP status codes. Unknown
// codes are treated as internal failures.
func statusForCode(code string) int {
	switch code {
	case account.CodeInvalidInput, account.CodeTokenInvalid:
		return http.StatusBadRequest
	case account.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case account.CodeNotFound:
		return http.StatusNotFound
	case account.CodeEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a service error into a JSON error response.
// Server-side failures get a generic body so internals never reach the
// client; the full error still goes to the log.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusForCode(errutil.Code(err))
	if status >= http.StatusInternalServerError {
		errutil.LogError(logger, "request failed", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
