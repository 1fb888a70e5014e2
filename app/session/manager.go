// Package session owns the cached login: the access token, the refresh token
// and the user profile. Manager is the only writer; everything else reads
// through its typed accessors or a Snapshot.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pressroom/app/models"
	"pressroom/app/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrNoUser means no profile is cached.
	ErrNoUser = errors.New("session: no cached user")
	// ErrCorruptUser means the cached profile could not be decoded.
	ErrCorruptUser = errors.New("session: cached user is unreadable")
)

// Manager reads and writes the session cache.
type Manager struct {
	mu     sync.RWMutex
	repo   repositories.KVRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewManager returns a manager over repo.
func NewManager(repo repositories.KVRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, logger: logger.Named("session"), now: time.Now}
}

// Save stores a fresh login.
func (m *Manager) Save(token, refreshToken string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.Set(repositories.TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if refreshToken != "" {
		if err := m.repo.Set(repositories.RefreshTokenKey, []byte(refreshToken)); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	} else if err := m.repo.Delete(repositories.RefreshTokenKey); err != nil {
		return fmt.Errorf("drop refresh token: %w", err)
	}
	if err := m.repo.Set(repositories.UserKey, data); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	m.logger.Debug("session saved", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return nil
}

// UpdateTokens replaces the tokens after a refresh. An empty refreshToken
// keeps the current one; refresh endpoints do not always rotate it.
func (m *Manager) UpdateTokens(token, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.Set(repositories.TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if refreshToken != "" {
		if err := m.repo.Set(repositories.RefreshTokenKey, []byte(refreshToken)); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
	}
	return nil
}

// UpdateUser replaces the cached profile, keeping the tokens.
func (m *Manager) UpdateUser(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := repositories.SetEntity(m.repo, repositories.UserKey, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Clear removes the whole session.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.repo.Delete(repositories.SessionKeys()...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.logger.Debug("session cleared")
	return nil
}

// Token returns the cached access token or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(repositories.TokenKey)
}

// RefreshToken returns the cached refresh token or "".
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(repositories.RefreshTokenKey)
}

// User returns the cached profile.
func (m *Manager) User() (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user()
}

// Credentials returns the tokens as an oauth2 token. Expiry comes from the
// access token's exp claim; the signature cannot be checked on the client,
// so the claim is only a hint for refreshing early.
func (m *Manager) Credentials() *oauth2.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	access := m.get(repositories.TokenKey)
	if access == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: m.get(repositories.RefreshTokenKey),
		Expiry:       TokenExpiry(access),
	}
}

// Expired reports whether the access token's exp claim has passed.
func (m *Manager) Expired() bool {
	tok := m.Credentials()
	if tok == nil || tok.Expiry.IsZero() {
		return false
	}
	return !m.now().Before(tok.Expiry)
}

// Snapshot reads the session in one go.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, err := m.user()
	return Snapshot{
		Token:   m.get(repositories.TokenKey),
		User:    user,
		UserErr: err,
	}
}

func (m *Manager) get(key string) string {
	v, err := m.repo.Get(key)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			m.logger.Warn("read session key", zap.String("key", key), zap.Error(err))
		}
		return ""
	}
	return string(v)
}

func (m *Manager) user() (models.User, error) {
	var user models.User
	err := repositories.GetEntity(m.repo, repositories.UserKey, &user)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return models.User{}, ErrNoUser
	case err != nil:
		return models.User{}, fmt.Errorf("%w: %v", ErrCorruptUser, err)
	}
	return user, nil
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Token   string
	User    models.User
	UserErr error
}

// LoggedIn reports whether a token and a readable user are present.
func (s Snapshot) LoggedIn() bool {
	return s.Token != "" && s.UserErr == nil
}

// TokenExpiry returns the exp claim of a JWT without verifying it, or the
// zero time when the token carries none.
func TokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0)
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}
		}
		return time.Unix(v, 0)
	}
	return time.Time{}
}
