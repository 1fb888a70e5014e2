package session

import (
	"errors"
	"testing"
	"time"

	"pressroom/app/models"
	"pressroom/app/repositories"
	"pressroom/app/repositories/mock"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func testUser() models.User {
	return models.User{
		ID:         "u1",
		Email:      "jane@example.com",
		Role:       models.RoleJournalist,
		IsVerified: true,
		Status:     models.StatusActive,
	}
}

func TestManagerSaveAndRead(t *testing.T) {
	repo := mock.NewKVRepository()
	m := NewManager(repo, nil)

	require.NoError(t, m.Save("access", "refresh", testUser()))

	assert.Equal(t, "access", m.Token())
	assert.Equal(t, "refresh", m.RefreshToken())
	user, err := m.User()
	require.NoError(t, err)
	assert.Equal(t, testUser(), user)

	keys, _ := repo.Keys()
	assert.ElementsMatch(t, repositories.SessionKeys(), keys)
}

func TestManagerSaveWithoutRefreshDropsOldOne(t *testing.T) {
	m := NewManager(mock.NewKVRepository(), nil)
	require.NoError(t, m.Save("a1", "r1", testUser()))
	require.NoError(t, m.Save("a2", "", testUser()))

	assert.Equal(t, "a2", m.Token())
	assert.Empty(t, m.RefreshToken())
}

func TestManagerEmpty(t *testing.T) {
	m := NewManager(mock.NewKVRepository(), nil)

	assert.Empty(t, m.Token())
	assert.Empty(t, m.RefreshToken())
	assert.Nil(t, m.Credentials())
	_, err := m.User()
	assert.ErrorIs(t, err, ErrNoUser)
	assert.False(t, m.Snapshot().LoggedIn())
}

func TestManagerCorruptUser(t *testing.T) {
	repo := mock.NewKVRepository()
	require.NoError(t, repo.Set(repositories.TokenKey, []byte("access")))
	require.NoError(t, repo.Set(repositories.UserKey, []byte("{broken")))
	m := NewManager(repo, nil)

	_, err := m.User()
	assert.ErrorIs(t, err, ErrCorruptUser)

	snap := m.Snapshot()
	assert.Equal(t, "access", snap.Token)
	assert.ErrorIs(t, snap.UserErr, ErrCorruptUser)
	assert.False(t, snap.LoggedIn())
}

func TestManagerUpdateTokensKeepsRefresh(t *testing.T) {
	m := NewManager(mock.NewKVRepository(), nil)
	require.NoError(t, m.Save("a1", "r1", testUser()))

	require.NoError(t, m.UpdateTokens("a2", ""))
	assert.Equal(t, "a2", m.Token())
	assert.Equal(t, "r1", m.RefreshToken())

	require.NoError(t, m.UpdateTokens("a3", "r2"))
	assert.Equal(t, "r2", m.RefreshToken())
}

func TestManagerUpdateUser(t *testing.T) {
	m := NewManager(mock.NewKVRepository(), nil)
	require.NoError(t, m.Save("a1", "r1", testUser()))

	u := testUser()
	u.FirstName = "Jane"
	require.NoError(t, m.UpdateUser(u))

	got, err := m.User()
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "a1", m.Token())
}

func TestManagerClear(t *testing.T) {
	repo := mock.NewKVRepository()
	require.NoError(t, repo.Set("unrelated", []byte("keep")))
	m := NewManager(repo, nil)
	require.NoError(t, m.Save("a1", "r1", testUser()))

	require.NoError(t, m.Clear())

	keys, _ := repo.Keys()
	assert.Equal(t, []string{"unrelated"}, keys)
}

func TestManagerWriteFailure(t *testing.T) {
	repo := mock.NewKVRepository()
	repo.FailWrites = true
	m := NewManager(repo, nil)

	err := m.Save("a1", "r1", testUser())
	assert.True(t, errors.Is(err, mock.ErrWrite))
}

func TestCredentialsExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	m := NewManager(mock.NewKVRepository(), nil)
	require.NoError(t, m.Save(tok, "r1", testUser()))

	creds := m.Credentials()
	require.NotNil(t, creds)
	assert.Equal(t, tok, creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
	assert.Equal(t, "Bearer", creds.TokenType)
	assert.True(t, exp.Equal(creds.Expiry))
	assert.False(t, m.Expired())

	m.now = func() time.Time { return exp.Add(time.Second) }
	assert.True(t, m.Expired())
}

func TestTokenExpiry(t *testing.T) {
	assert.True(t, TokenExpiry("not-a-jwt").IsZero())
	assert.True(t, TokenExpiry(signed(t, jwt.MapClaims{"sub": "u1"})).IsZero())

	exp := time.Unix(1893456000, 0)
	assert.True(t, exp.Equal(TokenExpiry(signed(t, jwt.MapClaims{"exp": exp.Unix()}))))
}

func TestOpaqueTokenNeverExpires(t *testing.T) {
	m := NewManager(mock.NewKVRepository(), nil)
	require.NoError(t, m.Save("opaque", "", testUser()))
	assert.False(t, m.Expired())
}
