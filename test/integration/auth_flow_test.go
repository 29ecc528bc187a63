// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/authtest"
	authpg "github.com/holomush/authcore/internal/auth/postgres"
	authredis "github.com/holomush/authcore/internal/auth/redis"
	"github.com/holomush/authcore/internal/httpapi"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// apiClient drives the HTTP API of a freshly wired server.
type apiClient struct {
	server *httptest.Server
	sender *authtest.CaptureSender
}

func newAPIClient(otpStore auth.OTPStore) *apiClient {
	logger := slog.New(slog.DiscardHandler)
	accounts := authpg.NewAccountRepository(pool())
	sender := authtest.NewCaptureSender()
	hasher := auth.NewArgon2idHasher()

	tokens, err := auth.NewTokenIssuer([]byte(testSecret))
	Expect(err).NotTo(HaveOccurred())

	svc, err := auth.NewService(auth.ServiceConfig{
		Accounts: accounts,
		IDs:      auth.NewIdentifierAllocator(accounts),
		OTPs:     auth.NewOTPLedger(otpStore),
		Tokens:   tokens,
		Hasher:   hasher,
		Sender:   sender,
		Logger:   logger,
	})
	Expect(err).NotTo(HaveOccurred())

	resets, err := auth.NewPasswordResetService(accounts, authpg.NewPasswordResetRepository(pool()), hasher, sender, logger)
	Expect(err).NotTo(HaveOccurred())

	router, err := httpapi.NewRouter(httpapi.Config{Auth: svc, Resets: resets, Logger: logger})
	Expect(err).NotTo(HaveOccurred())

	return &apiClient{server: httptest.NewServer(router), sender: sender}
}

func (c *apiClient) do(method, path string, body any, token string) (int, map[string]any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var out map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return resp.StatusCode, out
}

func (c *apiClient) register(email, password string) {
	status, body := c.do(http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": password, "firstName": "Ada", "lastName": "Lovelace",
	}, "")
	Expect(status).To(Equal(http.StatusOK), "register: %v", body)
}

func (c *apiClient) loginWithOTP(email string) string {
	status, _ := c.do(http.MethodPost, "/auth/send-login-otp", map[string]string{"email": email}, "")
	Expect(status).To(Equal(http.StatusOK))

	status, body := c.do(http.MethodPost, "/auth/verify-login-otp", map[string]string{
		"email": email, "otp": c.sender.LoginCode(email),
	}, "")
	Expect(status).To(Equal(http.StatusOK), "verify: %v", body)
	token, ok := body["token"].(string)
	Expect(ok).To(BeTrue())
	return token
}

func describeAuthFlow(backend string, newStore func() auth.OTPStore) bool {
	return Describe("auth API with "+backend+" OTP challenges", func() {
		var (
			ctx    context.Context
			client *apiClient
		)

		BeforeEach(func() {
			ctx = context.Background()
			truncateAll(ctx)
			client = newAPIClient(newStore())
			DeferCleanup(client.server.Close)
		})

		It("registers, logs in by password and rejects duplicate emails", func() {
			client.register("ada@example.com", "correct horse")

			status, body := client.do(http.MethodPost, "/auth/login", map[string]string{
				"identifier": "ADA@example.com", "password": "correct horse",
			}, "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body["userId"]).To(HaveLen(36))

			status, body = client.do(http.MethodPost, "/auth/login", map[string]string{
				"identifier": "ada@example.com", "password": "wrong",
			}, "")
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(body["success"]).To(BeFalse())

			status, _ = client.do(http.MethodPost, "/auth/register", map[string]string{
				"email": "Ada@Example.com", "password": "x", "firstName": "Ada",
			}, "")
			Expect(status).To(Equal(http.StatusConflict))
		})

		It("issues a session through the OTP flow and claims a username", func() {
			client.register("grace@example.com", "pw")
			token := client.loginWithOTP("grace@example.com")

			status, body := client.do(http.MethodGet, "/user/check-username-is-created", nil, token)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body["username"]).To(BeNil())

			status, body = client.do(http.MethodGet, "/auth/check-username?username=grace", nil, "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body["available"]).To(BeTrue())

			status, _ = client.do(http.MethodPost, "/auth/create-username", map[string]string{"username": "grace"}, token)
			Expect(status).To(Equal(http.StatusOK))

			status, body = client.do(http.MethodGet, "/auth/check-username?username=grace", nil, "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body["available"]).To(BeFalse())

			status, body = client.do(http.MethodGet, "/auth/check-auth", nil, token)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body["user"]).To(HaveKeyWithValue("username", "grace"))

			status, _ = client.do(http.MethodPost, "/auth/login", map[string]string{
				"identifier": "grace", "password": "pw",
			}, "")
			Expect(status).To(Equal(http.StatusOK))
		})

		It("accepts an OTP code only once", func() {
			client.register("linus@example.com", "pw")

			status, _ := client.do(http.MethodPost, "/auth/send-login-otp", map[string]string{"email": "linus@example.com"}, "")
			Expect(status).To(Equal(http.StatusOK))
			code := client.sender.LoginCode("linus@example.com")

			verify := map[string]string{"email": "linus@example.com", "otp": code}
			status, _ = client.do(http.MethodPost, "/auth/verify-login-otp", verify, "")
			Expect(status).To(Equal(http.StatusOK))

			status, body := client.do(http.MethodPost, "/auth/verify-login-otp", verify, "")
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body["success"]).To(BeFalse())
		})

		It("replaces an earlier code when a new one is requested", func() {
			client.register("barbara@example.com", "pw")

			_, _ = client.do(http.MethodPost, "/auth/send-login-otp", map[string]string{"email": "barbara@example.com"}, "")
			first := client.sender.LoginCode("barbara@example.com")
			_, _ = client.do(http.MethodPost, "/auth/send-login-otp", map[string]string{"email": "barbara@example.com"}, "")
			second := client.sender.LoginCode("barbara@example.com")

			if first != second {
				status, _ := client.do(http.MethodPost, "/auth/verify-login-otp",
					map[string]string{"email": "barbara@example.com", "otp": first}, "")
				Expect(status).To(Equal(http.StatusBadRequest))
			}
			status, _ := client.do(http.MethodPost, "/auth/verify-login-otp",
				map[string]string{"email": "barbara@example.com", "otp": second}, "")
			Expect(status).To(Equal(http.StatusOK))
		})

		It("resets a password with an emailed token", func() {
			client.register("ken@example.com", "old-password")

			status, _ := client.do(http.MethodPost, "/auth/password/forgot", map[string]string{"email": "ken@example.com"}, "")
			Expect(status).To(Equal(http.StatusOK))
			resetToken := client.sender.ResetToken("ken@example.com")
			Expect(resetToken).NotTo(BeEmpty())

			status, _ = client.do(http.MethodPost, "/auth/password/reset", map[string]string{
				"token": resetToken, "password": "new-password",
			}, "")
			Expect(status).To(Equal(http.StatusOK))

			status, _ = client.do(http.MethodPost, "/auth/login", map[string]string{
				"identifier": "ken@example.com", "password": "new-password",
			}, "")
			Expect(status).To(Equal(http.StatusOK))

			status, _ = client.do(http.MethodPost, "/auth/password/reset", map[string]string{
				"token": resetToken, "password": "again",
			}, "")
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})
}

var _ = describeAuthFlow("postgres", func() auth.OTPStore {
	return authpg.NewOTPStore(pool())
})

var _ = describeAuthFlow("redis", func() auth.OTPStore {
	return authredis.NewOTPStore(env.redis)
})
