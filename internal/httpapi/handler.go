// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package httpapi exposes the account service over HTTP.
package httpapi

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/pkg/errutil"
)

//go:embed reset_form.html.tmpl
var resetFormSrc string

var resetFormTmpl = template.Must(template.New("reset_form").Parse(resetFormSrc))

// Handler holds the HTTP handlers for the account API.
type Handler struct {
	service *account.Service
	signer  *account.TokenSigner
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates a Handler. metrics may be nil; recording is then
// skipped.
func NewHandler(service *account.Service, signer *account.TokenSigner, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, signer: signer, logger: logger, metrics: metrics}
}

// Routes builds the request mux for the API.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/user/registration", h.handleRegister)
	mux.HandleFunc("POST /api/user/login", h.handleLogin)
	mux.HandleFunc("GET /api/user/auth", h.requireSession(h.handleRefresh))
	mux.HandleFunc("DELETE /api/user", h.requireSession(h.handleDelete))
	mux.HandleFunc("GET /api/user/users", h.requireSession(h.handleList))
	mux.HandleFunc("POST /api/user/requestPasswordReset", h.handleRequestReset)
	mux.HandleFunc("POST /api/user/resetPassword", h.handleResetPassword)
	mux.HandleFunc("GET /resetPassword/{token}", h.handleResetPage)

	return mux
}

// record counts a finished operation. The status label is "ok" or the
// domain error code, which keeps cardinality bounded.
func (h *Handler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		if status = errutil.Code(err); status == "" {
			status = "error"
		}
	}
	h.metrics.RequestsTotal.WithLabelValues(operation, status).Inc()
}

func (h *Handler) recordReset(result string) {
	if h.metrics == nil {
		return
	}
	h.metrics.PasswordResetsTotal.WithLabelValues(result).Inc()
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return oops.Code(account.CodeInvalidInput).Wrapf(err, "malformed request body")
	}
	return nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.record("register", err)
		writeError(w, h.logger, err)
		return
	}

	token, err := h.service.Register(r.Context(), req.Email, req.Password, req.Role, req.Name)
	h.record("register", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.record("login", err)
		writeError(w, h.logger, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	h.record("login", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	token, err := h.service.RefreshSession(claims)
	h.record("refresh", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	err := h.service.DeleteAccount(r.Context(), claims.UserID)
	h.record("delete", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	h.record("list", err)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type requestResetRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.record("request_reset", err)
		writeError(w, h.logger, err)
		return
	}

	err := h.service.RequestPasswordReset(r.Context(), req.Email)
	h.record("request_reset", err)
	if err != nil {
		h.recordReset("request_failed")
		writeError(w, h.logger, err)
		return
	}
	h.recordReset("requested")
	writeJSON(w, http.StatusOK, messageResponse{Message: "password reset email sent"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.record("reset_password", err)
		writeError(w, h.logger, err)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	h.record("reset_password", err)
	if err != nil {
		h.recordReset("failed")
		writeError(w, h.logger, err)
		return
	}
	h.recordReset("completed")
	writeJSON(w, http.StatusOK, messageResponse{Message: "password has been reset"})
}

// handleResetPage serves the HTML form a reset link lands on. The token
// is embedded in the form and submitted to the JSON endpoint; token
// validity is only checked on submit.
func (h *Handler) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := resetFormTmpl.Execute(w, struct{ Token string }{Token: token}); err != nil {
		errutil.LogError(h.logger, "render reset form", err)
	}
}
