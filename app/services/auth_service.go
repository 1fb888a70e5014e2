package services

import (
	"context"
	"fmt"
	"strings"

	"pressroom/app/api"
	"pressroom/app/models"
	"pressroom/app/session"
	"pressroom/app/signup"

	"go.uber.org/zap"
)

// AuthService logs users in and out and keeps the session cache current.
type AuthService struct {
	api     AuthAPI
	session *session.Manager
	logger  *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(a AuthAPI, sess *session.Manager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{api: a, session: sess, logger: logger.Named("auth")}
}

// Login authenticates and stores the new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", ErrInvalid)
	}
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.session.Save(resp.Token, resp.RefreshToken, resp.User); err != nil {
		return models.User{}, err
	}
	s.logger.Info("logged in", zap.String("user_id", resp.User.ID), zap.String("role", string(resp.User.Role)))
	return resp.User, nil
}

// Logout tells the server and clears the cache. The cache is cleared even
// when the server cannot be reached.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.session.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed", zap.Error(err))
		}
	}
	return s.session.Clear()
}

// Register submits a completed signup form.
func (s *AuthService) Register(ctx context.Context, f signup.Form) (api.RegisterResponse, error) {
	resp, err := signup.Run(ctx, s.api, f)
	if err != nil {
		return api.RegisterResponse{}, err
	}
	s.logger.Info("registered", zap.String("user_id", resp.User.ID), zap.String("role", string(resp.User.Role)))
	return resp, nil
}

// VerifyEmail confirms an address. A cached profile is refreshed so the
// gate opens without logging in again.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", ErrInvalid)
	}
	if err := s.api.VerifyEmail(ctx, token); err != nil {
		return err
	}
	if s.session.Token() != "" {
		if _, err := s.Me(ctx); err != nil {
			s.logger.Warn("refresh profile after verification", zap.Error(err))
		}
	}
	return nil
}

// ResendVerification mails a new verification link.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	return s.api.ResendVerification(ctx, email)
}

// ForgotPassword starts a password reset.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	return s.api.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset. The new password follows the signup rules.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", ErrInvalid)
	}
	if errs := signup.CheckPassword(password, confirm); errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return s.api.ResetPassword(ctx, token, password)
}

// Me refreshes the cached profile from the server.
func (s *AuthService) Me(ctx context.Context) (models.User, error) {
	u, err := s.api.Me(ctx)
	if err != nil {
		return models.User{}, err
	}
	if err := s.session.UpdateUser(u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
