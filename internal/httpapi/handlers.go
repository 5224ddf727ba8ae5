// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/account"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/pkg/errutil"
)

// Response messages. The wording (including the trailing space on the
// registration message) is part of the wire contract clients already
// parse; do not "fix" it.
const (
	msgAccountCreated    = "Account created. Please verify your email. "
	msgAlreadyRegistered = "user Email is already registered"
	msgRegisterError     = "An error occurred while creating the account"
	msgLoginSuccess      = "Login successful"
	msgNotVerified       = "Please verify your email before logging in."
	msgInvalidCreds      = "Invalid credentials"
	msgServerError       = "Server error"
	msgEmailVerified     = "Email verified successfully. You can now log in."
	msgInvalidToken      = "Invalid or expired token"
	msgVerifyError       = "Error verifying email"
	msgResetEmailSent    = "Password reset email sent. Please check your inbox."
	msgAccountNotFound   = "Account not found"
	msgEnterNewPassword  = "Please enter your new password"
	msgUserNotFound      = "User not found"
	msgPasswordUpdated   = "Password updated successfully. You can now log in."
	msgProtectedAccess   = "You have access to this protected route"
	msgMissingBearer     = "Missing authorization token"
	msgInvalidBearer     = "Invalid authorization token"
)

// handlers holds the route handlers' dependencies.
type handlers struct {
	svc     *account.Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type findAccountRequest struct {
	Email string `json:"email"`
}

type updatePasswordRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// accountRef is the subset of an account exposed after reset redemption.
type accountRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *handlers) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort banner write
	w.Write([]byte("App is running..."))
}

func (h *handlers) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	_, created, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if isValidationError(err) {
			h.writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		errutil.LogError(h.logger, "registration failed", err)
		h.metrics.RecordOperation("register", "error")
		h.writeMessage(w, r, http.StatusInternalServerError, msgRegisterError)
		return
	}

	if !created {
		// Success-shaped on purpose: the legacy contract answers 201 for a
		// duplicate email, and clients depend on it.
		h.metrics.RecordOperation("register", "duplicate")
		h.writeMessage(w, r, http.StatusCreated, msgAlreadyRegistered)
		return
	}

	h.metrics.RecordOperation("register", "created")
	h.writeMessage(w, r, http.StatusCreated, msgAccountCreated)
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	_, bearer, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch errutil.Code(err) {
		case "ACCOUNT_NOT_VERIFIED":
			h.metrics.RecordOperation("login", "not_verified")
			h.writeMessage(w, r, http.StatusForbidden, msgNotVerified)
		case "ACCOUNT_INVALID_CREDENTIALS":
			h.metrics.RecordOperation("login", "invalid_credentials")
			h.writeMessage(w, r, http.StatusBadRequest, msgInvalidCreds)
		default:
			errutil.LogError(h.logger, "login failed", err)
			h.metrics.RecordOperation("login", "error")
			h.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	h.metrics.RecordOperation("login", "success")
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"message": msgLoginSuccess,
		"token":   bearer,
	})
}

func (h *handlers) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	_, err := h.svc.VerifyEmail(r.Context(), token)
	if err != nil {
		if errutil.Code(err) == "ACCOUNT_TOKEN_INVALID" {
			h.metrics.RecordOperation("verify_email", "invalid_token")
			h.writeMessage(w, r, http.StatusBadRequest, msgInvalidToken)
			return
		}
		errutil.LogError(h.logger, "email verification failed", err)
		h.metrics.RecordOperation("verify_email", "error")
		h.writeMessage(w, r, http.StatusInternalServerError, msgVerifyError)
		return
	}

	h.metrics.RecordOperation("verify_email", "success")
	h.writeMessage(w, r, http.StatusCreated, msgEmailVerified)
}

func (h *handlers) handleFindAccount(w http.ResponseWriter, r *http.Request) {
	var req findAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	_, err := h.svc.RequestReset(r.Context(), req.Email)
	if err != nil {
		// Unlike registration, an unknown email is reported here. The
		// asymmetry is inherited contract, pinned by tests.
		if errutil.Code(err) == "ACCOUNT_NOT_FOUND" {
			h.metrics.RecordOperation("reset_request", "not_found")
			h.writeMessage(w, r, http.StatusForbidden, msgAccountNotFound)
			return
		}
		errutil.LogError(h.logger, "reset request failed", err)
		h.metrics.RecordOperation("reset_request", "error")
		h.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	h.metrics.RecordOperation("reset_request", "success")
	h.writeMessage(w, r, http.StatusCreated, msgResetEmailSent)
}

func (h *handlers) handleRedeemReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	acct, err := h.svc.RedeemReset(r.Context(), token)
	if err != nil {
		if errutil.Code(err) == "ACCOUNT_TOKEN_INVALID" {
			h.metrics.RecordOperation("reset_redeem", "invalid_token")
			h.writeMessage(w, r, http.StatusBadRequest, msgInvalidToken)
			return
		}
		errutil.LogError(h.logger, "reset redemption failed", err)
		h.metrics.RecordOperation("reset_redeem", "error")
		h.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	h.metrics.RecordOperation("reset_redeem", "success")
	h.writeJSON(w, r, http.StatusCreated, map[string]any{
		"message": msgEnterNewPassword,
		"result": accountRef{
			ID:    acct.ID.String(),
			Email: acct.Email,
		},
	})
}

func (h *handlers) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	id, err := ulid.Parse(req.ID)
	if err != nil {
		// An unparseable id cannot belong to any account.
		h.metrics.RecordOperation("update_password", "not_found")
		h.writeMessage(w, r, http.StatusBadRequest, msgUserNotFound)
		return
	}

	_, err = h.svc.UpdatePassword(r.Context(), id, req.Password)
	if err != nil {
		switch errutil.Code(err) {
		case "ACCOUNT_NOT_FOUND":
			h.metrics.RecordOperation("update_password", "not_found")
			h.writeMessage(w, r, http.StatusBadRequest, msgUserNotFound)
		case "ACCOUNT_EMPTY_PASSWORD":
			h.metrics.RecordOperation("update_password", "invalid_input")
			h.writeMessage(w, r, http.StatusBadRequest, err.Error())
		default:
			errutil.LogError(h.logger, "password update failed", err)
			h.metrics.RecordOperation("update_password", "error")
			h.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	h.metrics.RecordOperation("update_password", "success")
	h.writeMessage(w, r, http.StatusCreated, msgPasswordUpdated)
}

func (h *handlers) handleProtected(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		// The middleware guarantees an identity; reaching here is a wiring bug.
		h.writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"message": msgProtectedAccess,
		"user":    identity,
	})
}

// isValidationError reports whether err is an input validation failure
// rather than a server-side fault.
func isValidationError(err error) bool {
	switch errutil.Code(err) {
	case "ACCOUNT_INVALID_USERNAME", "ACCOUNT_INVALID_EMAIL", "ACCOUNT_EMPTY_PASSWORD":
		return true
	}
	return false
}

func (h *handlers) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, map[string]any{"message": message})
}

func (h *handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errutil.LogError(h.logger, "response encoding failed", oops.With("path", r.URL.Path).Wrap(err))
	}
}
