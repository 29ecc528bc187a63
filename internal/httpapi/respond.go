// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

const serverErrorMessage = "server error"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindBadRequest:
		return http.StatusBadRequest
	case auth.KindUnauthorized:
		return http.StatusUnauthorized
	case auth.KindNotFound:
		return http.StatusNotFound
	case auth.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: message})
}

// writeError maps err to a status and public message. Internal errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, operation string, err error) {
	kind := auth.KindOf(err)
	if kind == auth.KindInternal {
		errutil.LogError(logger.With("operation", operation), "request failed", err)
	}
	writeJSON(w, statusFor(kind), messageResponse{
		Message: auth.PublicMessage(err, fallbackMessage(kind)),
	})
}

func fallbackMessage(kind auth.Kind) string {
	switch kind {
	case auth.KindBadRequest:
		return "bad request"
	case auth.KindUnauthorized:
		return "unauthorized"
	case auth.KindNotFound:
		return "not found"
	case auth.KindConflict:
		return "conflict"
	default:
		return serverErrorMessage
	}
}

// decode reads a JSON body into v. On failure it answers 400 and returns
// false. An empty body decodes as an empty request.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	return false
}
