package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"pressroom/app/api/apitest"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/repositories/mock"
	"pressroom/app/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv     *apitest.Server
	sess    *session.Manager
	client  *Client
	metrics *metrics.Metrics
	user    models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	user := srv.AddUser(models.User{
		Email:      "jane@example.com",
		Role:       models.RoleJournalist,
		IsVerified: true,
		Status:     models.StatusActive,
	}, "correct horse")
	sess := session.NewManager(mock.NewKVRepository(), nil)
	m := metrics.New()
	client, err := New(Options{BaseURL: srv.URL(), Timeout: 5 * time.Second, Metrics: m}, sess)
	require.NoError(t, err)
	return &fixture{srv: srv, sess: sess, client: client, metrics: m, user: user}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	access, refresh := f.srv.IssueToken(f.user.ID)
	require.NoError(t, f.sess.Save(access, refresh, f.user))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setup(t)

	resp, err := f.client.Login(context.Background(), "jane@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, f.user.ID, resp.User.ID)
}

func TestLoginWrongPasswordDoesNotRefresh(t *testing.T) {
	f := setup(t)
	f.login(t)

	_, err := f.client.Login(context.Background(), "jane@example.com", "wrong")

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 0, f.srv.Hits("POST /auth/refresh"))
	assert.NotEmpty(t, f.sess.Token())
}

func TestUnauthorizedRefreshesAndRetries(t *testing.T) {
	f := setup(t)
	f.login(t)
	before := f.sess.Token()
	f.srv.ExpireTokens()

	_, err := f.client.Bookmarks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, f.srv.Hits("POST /auth/refresh"))
	assert.Equal(t, 2, f.srv.Hits("GET /blog/bookmarks"))
	assert.NotEqual(t, before, f.sess.Token())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionRefreshes.WithLabelValues("ok")))
}

func TestFailedRefreshForcesLogout(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.srv.ExpireTokens()
	f.srv.RevokeRefreshTokens()

	_, err := f.client.Bookmarks(context.Background())

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, f.sess.Token())
	assert.Empty(t, f.sess.RefreshToken())
	_, userErr := f.sess.User()
	assert.ErrorIs(t, userErr, session.ErrNoUser)
}

func TestSecondUnauthorizedForcesLogout(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.srv.Fail("GET /blog/bookmarks", http.StatusUnauthorized, 2)

	_, err := f.client.Bookmarks(context.Background())

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, f.srv.Hits("POST /auth/refresh"))
	assert.Empty(t, f.sess.Token())
}

func TestProactiveRefreshOnExpiredToken(t *testing.T) {
	f := setup(t)
	f.srv.TokenTTL = -time.Minute
	f.login(t)
	f.srv.TokenTTL = time.Hour
	require.True(t, f.sess.Expired())

	_, err := f.client.Bookmarks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, f.srv.Hits("POST /auth/refresh"))
	assert.Equal(t, 1, f.srv.Hits("GET /blog/bookmarks"))
	assert.False(t, f.sess.Expired())
}

func TestConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.srv.ExpireTokens()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.client.Bookmarks(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.srv.Hits("POST /auth/refresh"))
}

func TestNetworkErrorKeepsSession(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.srv.FailNetwork("GET /blog/bookmarks", 1)

	_, err := f.client.Bookmarks(context.Background())

	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusCode(err))
	assert.NotEmpty(t, f.sess.Token())
}

func TestErrorStatusMapping(t *testing.T) {
	f := setup(t)
	f.login(t)

	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f.srv.Fail("GET /blog/bookmarks", tt.status, 1)

			_, err := f.client.Bookmarks(context.Background())

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, StatusCode(err))
			var ae *Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, "scripted failure", ae.Message)
			assert.NotEmpty(t, ae.RequestID)
		})
	}
}

func TestNotFoundPost(t *testing.T) {
	f := setup(t)

	_, err := f.client.Post(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	f := setup(t)
	p := f.srv.AddPost(models.Post{Title: "Hello world"})

	_, err := f.client.Post(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.APIRequests.WithLabelValues("GET", "/blog/posts/{id}", "200")))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	f := setup(t)
	client, err := New(Options{BaseURL: f.srv.URL(), RateLimit: 0.001, Burst: 1}, nil)
	require.NoError(t, err)

	_, err = client.Posts(context.Background(), PostQuery{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Posts(ctx, PostQuery{})
	assert.True(t, IsNetwork(err))
}
