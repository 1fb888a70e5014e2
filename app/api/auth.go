package api

import (
	"context"
	"net/http"

	"pressroom/app/models"
)

// Login exchanges credentials for tokens and the user profile.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	r := post("/auth/login", "/auth/login", LoginRequest{Email: email, Password: password})
	r.anonymous = true
	err := c.do(ctx, r, &out)
	return out, err
}

// Register creates an account. The account has to verify its email before
// gated content opens up.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var out RegisterResponse
	r := post("/auth/register", "/auth/register", req)
	r.anonymous = true
	err := c.do(ctx, r, &out)
	return out, err
}

// VerifyEmail confirms the address with the emailed token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	r := post("/auth/verify-email", "/auth/verify-email", map[string]string{"token": token})
	r.anonymous = true
	return c.do(ctx, r, nil)
}

// ResendVerification mails a new verification link.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	r := post("/auth/resend-verification", "/auth/resend-verification", map[string]string{"email": email})
	r.anonymous = true
	return c.do(ctx, r, nil)
}

// ForgotPassword starts a password reset.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	r := post("/auth/forgot-password", "/auth/forgot-password", map[string]string{"email": email})
	r.anonymous = true
	return c.do(ctx, r, nil)
}

// ResetPassword sets a new password with the emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	r := post("/auth/reset-password", "/auth/reset-password", map[string]string{"token": token, "password": password})
	r.anonymous = true
	return c.do(ctx, r, nil)
}

// Logout revokes the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	r := post("/auth/logout", "/auth/logout", nil)
	r.noRefresh = true
	return c.do(ctx, r, nil)
}

// Me fetches the current profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out userEnvelope
	r := request{method: http.MethodGet, route: "/auth/me", path: "/auth/me", noRefresh: true}
	err := c.do(ctx, r, &out)
	return out.User, err
}
