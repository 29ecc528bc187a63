// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/observability"
)

// Config holds the collaborators behind the routes.
type Config struct {
	Auth *auth.Service
	// Resets enables the password reset routes when non-nil.
	Resets *auth.PasswordResetService
	// Metrics may be nil.
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

type handler struct {
	auth    *auth.Service
	resets  *auth.PasswordResetService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRouter builds the chi router serving the auth API.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("HTTP_CONFIG_INVALID").Errorf("auth service is required")
	}
	if cfg.Logger == nil {
		return nil, oops.Code("HTTP_CONFIG_INVALID").Errorf("logger is required")
	}

	h := &handler{
		auth:    cfg.Auth,
		resets:  cfg.Resets,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.instrument("register", h.register))
		r.Get("/check-username", h.instrument("check_username", h.checkUsername))
		r.Post("/login", h.instrument("login", h.login))
		r.Post("/send-login-otp", h.instrument("send_login_otp", h.sendLoginOTP))
		r.Post("/verify-login-otp", h.instrument("verify_login_otp", h.verifyLoginOTP))
		r.Get("/check-auth", h.instrument("check_auth", h.checkAuth))
		r.Post("/logout", h.instrument("logout", h.logout))

		r.With(h.requireBearer("create_username")).
			Post("/create-username", h.instrument("create_username", h.createUsername))

		if h.resets != nil {
			r.Post("/password/forgot", h.instrument("password_forgot", h.forgotPassword))
			r.Post("/password/reset", h.instrument("password_reset", h.resetPassword))
		}
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(h.requireBearer("username_status"))
		r.Get("/check-username-is-created", h.instrument("username_status", h.usernameStatus))
	})

	return r, nil
}

// instrument records the outcome and latency of operation.
func (h *handler) instrument(operation string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		h.metrics.ObserveRequest(operation, outcome(ww.Status()), time.Since(start))
	}
}

func outcome(status int) string {
	switch status {
	case 0, http.StatusOK, http.StatusCreated:
		return "ok"
	case http.StatusBadRequest:
		return auth.KindBadRequest.String()
	case http.StatusUnauthorized:
		return auth.KindUnauthorized.String()
	case http.StatusNotFound:
		return auth.KindNotFound.String()
	case http.StatusConflict:
		return auth.KindConflict.String()
	default:
		return auth.KindInternal.String()
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.DebugContext(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
