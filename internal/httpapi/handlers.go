// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"net/http"

	"github.com/holomush/authcore/internal/auth"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.auth.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, h.logger, "register", err)
		return
	}
	writeOK(w, "User registered.")
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

func (h *handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	available, err := h.auth.UsernameAvailable(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		kind := auth.KindOf(err)
		if kind == auth.KindInternal {
			writeError(w, h.logger, "check_username", err)
			return
		}
		writeJSON(w, statusFor(kind), availabilityResponse{
			Message: auth.PublicMessage(err, fallbackMessage(kind)),
		})
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Available: available})
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (h *handler) createUsername(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.ClaimUsername(r.Context(), accountID(r.Context()), req.Username); err != nil {
		writeError(w, h.logger, "create_username", err)
		return
	}
	writeOK(w, "Username updated")
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := h.auth.PasswordLogin(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, h.logger, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login successful",
		UserID:  account.ID,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *handler) sendLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.auth.RequestLoginOTP(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, "send_login_otp", err)
		return
	}
	h.metrics.OTPIssued()
	writeOK(w, "OTP sent to your email")
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (h *handler) verifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.auth.VerifyLoginOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, h.logger, "verify_login_otp", err)
		return
	}
	h.metrics.TokenIssued()
	writeJSON(w, http.StatusOK, tokenResponse{
		Success: true,
		Message: "OTP verified",
		Token:   token,
	})
}

type publicAccount struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

type sessionResponse struct {
	User publicAccount `json:"user"`
}

func (h *handler) checkAuth(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.SessionCheck(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, h.logger, "check_auth", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: publicAccount{
		ID:       account.ID,
		Email:    account.Email,
		Username: account.Username,
	}})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeError(w, h.logger, "logout", err)
		return
	}
	writeOK(w, "Logged out")
}

type usernameStatusResponse struct {
	Username *string `json:"username"`
}

func (h *handler) usernameStatus(w http.ResponseWriter, r *http.Request) {
	username, err := h.auth.UsernameStatus(r.Context(), accountID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "username_status", err)
		return
	}
	writeJSON(w, http.StatusOK, usernameStatusResponse{Username: username})
}

func (h *handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, "password_forgot", err)
		return
	}
	writeOK(w, "If that email is registered, a reset token has been sent")
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.resets.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, h.logger, "password_reset", err)
		return
	}
	writeOK(w, "Password updated")
}
