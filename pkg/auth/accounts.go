package auth

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
	"github.com/dmitrymomot/storekit/pkg/credstore"
)

// Account management flows. These endpoints answer 401 as a verdict
// rather than an expired-token symptom, so none of them use the
// automatic refresh-and-resend path.

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a new customer account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

// VerifyEmailRequest confirms a registration with the emailed code.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest completes a forgot-password flow.
type ResetPasswordRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest rotates the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PasswordLogin exchanges credentials for a session. On success the
// token and profile are persisted and the session becomes
// authenticated.
func (m *Manager) PasswordLogin(ctx context.Context, creds Credentials) (*credstore.User, error) {
	var raw json.RawMessage
	if err := m.client.Post(ctx, "/auth/login", creds, &raw, apiclient.WithoutRetry()); err != nil {
		return nil, err
	}

	token := ExtractAccessToken(raw)
	if token == "" {
		return nil, ErrMissingAccessToken
	}
	user := ExtractUser(raw)
	m.Login(token, user)
	return user, nil
}

// Register creates an account. Backends that return a token alongside
// the profile get an immediate login; otherwise the caller proceeds to
// email verification.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*credstore.User, error) {
	var raw json.RawMessage
	if err := m.client.Post(ctx, "/auth/register", req, &raw, apiclient.WithoutRetry()); err != nil {
		return nil, err
	}
	user := ExtractUser(raw)
	if token := ExtractAccessToken(raw); token != "" {
		m.Login(token, user)
	}
	return user, nil
}

// CreateAdmin provisions an admin account; requires an authenticated
// admin session on the backend side.
func (m *Manager) CreateAdmin(ctx context.Context, req RegisterRequest) (*credstore.User, error) {
	var raw json.RawMessage
	if err := m.client.Post(ctx, "/auth/create-admin", req, &raw, apiclient.WithoutRetry()); err != nil {
		return nil, err
	}
	return ExtractUser(raw), nil
}

// VerifyEmail confirms a freshly registered address.
func (m *Manager) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	return m.client.Post(ctx, "/auth/verify-email", req, nil, apiclient.WithoutRetry())
}

// ResendVerification requests another verification email.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return m.client.Post(ctx, "/auth/resend-verification", body, nil, apiclient.WithoutRetry())
}

// ForgotPassword starts a password reset flow.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return m.client.Post(ctx, "/auth/forgot-password", body, nil, apiclient.WithoutRetry())
}

// ResetPassword completes a password reset. The account email travels
// in the query string per the backend contract.
func (m *Manager) ResetPassword(ctx context.Context, email string, req ResetPasswordRequest) error {
	path := "/auth/reset-password?email=" + url.QueryEscape(email)
	return m.client.Post(ctx, path, req, nil, apiclient.WithoutRetry())
}

// ChangePassword rotates the signed-in user's password.
func (m *Manager) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return m.client.Post(ctx, "/auth/change-password", req, nil, apiclient.WithoutRetry())
}
