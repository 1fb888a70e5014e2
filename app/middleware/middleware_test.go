package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pressroom/app/guard"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/repositories"
	"pressroom/app/repositories/mock"
	"pressroom/app/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/test", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(15), fields["bytes"])
	assert.Equal(t, "abc-123", fields["request_id"])
}

func TestLoggerWarnsOnServerError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/x", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := Recoverer(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error\n", w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic").Len())
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "given", seen)

	req.Header.Set(RequestIDHeader, strings.Repeat("x", 65))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedHeader string
	}{
		{name: "API route", path: "/api/test", expectedHeader: "application/json"},
		{name: "API root", path: "/api", expectedHeader: "application/json"},
		{name: "Dashboard", path: "/dashboard/admin", expectedHeader: "application/json"},
		{name: "Non-API route", path: "/test", expectedHeader: ""},
		{name: "Short path", path: "/", expectedHeader: ""},
		{name: "Lookalike prefix", path: "/apiary", expectedHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()

			ContentTypeJSON(okHandler).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedHeader, w.Header().Get("Content-Type"))
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	logger := zap.NewNop()
	handler := Logger(logger)(Recoverer(logger)(ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "panic") {
			panic("test panic")
		}
		w.WriteHeader(http.StatusOK)
	}))))

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedType   string
	}{
		{name: "Normal API request", path: "/api/test", expectedStatus: http.StatusOK, expectedType: "application/json"},
		{name: "Panic request", path: "/api/panic", expectedStatus: http.StatusInternalServerError, expectedType: "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedType, w.Header().Get("Content-Type"))
		})
	}
}

func gated(t *testing.T, user *models.User, roles ...models.Role) (*session.Manager, repositories.KVRepository, *metrics.Metrics, http.Handler) {
	t.Helper()
	repo := mock.NewKVRepository()
	sess := session.NewManager(repo, nil)
	if user != nil {
		require.NoError(t, sess.Save("token", "refresh", *user))
	}
	m := metrics.New()
	return sess, repo, m, RequireRole(sess, m, zap.NewNop(), roles...)(okHandler)
}

func activeUser(role models.Role) *models.User {
	return &models.User{ID: "u1", Email: "u1@example.com", Role: role, IsVerified: true, Status: models.StatusActive}
}

func deny(t *testing.T, w *httptest.ResponseRecorder) Denial {
	t.Helper()
	var d Denial
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	return d
}

func TestRequireRoleAllows(t *testing.T) {
	_, _, _, h := gated(t, activeUser(models.RoleAdmin), models.RoleAdmin)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard/admin", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleDenials(t *testing.T) {
	unverified := activeUser(models.RoleJournalist)
	unverified.IsVerified = false
	suspended := activeUser(models.RoleJournalist)
	suspended.Status = models.StatusSuspended

	tests := []struct {
		name     string
		user     *models.User
		status   int
		reason   guard.Reason
		redirect string
	}{
		{"no session", nil, http.StatusUnauthorized, guard.ReasonNoToken, guard.LoginPath},
		{"unverified", unverified, http.StatusUnauthorized, guard.ReasonUnverified, guard.VerifyEmailPath},
		{"inactive", suspended, http.StatusUnauthorized, guard.ReasonInactive, guard.InactivePath},
		{"wrong role", activeUser(models.RoleComms), http.StatusForbidden, guard.ReasonRoleMismatch, guard.UnauthorizedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, m, h := gated(t, tt.user, models.RoleJournalist)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", "/dashboard/journalist", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			d := deny(t, w)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.redirect, d.Redirect)
			assert.NotEmpty(t, d.Error)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.GuardDenials.WithLabelValues(string(tt.reason))))
		})
	}
}

func TestRequireRoleClearsCorruptSession(t *testing.T) {
	sess, repo, _, h := gated(t, activeUser(models.RoleAdmin))
	require.NoError(t, repo.Set(repositories.UserKey, []byte("{not json")))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/posts", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, guard.ReasonCorruptUser, deny(t, w).Reason)
	assert.Empty(t, sess.Token())
}
