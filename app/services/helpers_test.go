package services

import (
	"testing"
	"time"

	"pressroom/app/api"
	"pressroom/app/api/apitest"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/repositories/mock"
	"pressroom/app/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testTimeout = time.Second
	testTick    = 5 * time.Millisecond
)

type env struct {
	srv     *apitest.Server
	sess    *session.Manager
	client  *api.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
	logs    *observer.ObservedLogs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New(t)
	sess := session.NewManager(mock.NewKVRepository(), nil)
	m := metrics.New()
	client, err := api.New(api.Options{BaseURL: srv.URL(), Timeout: 5 * time.Second}, sess)
	require.NoError(t, err)
	core, logs := observer.New(zap.DebugLevel)
	return &env{srv: srv, sess: sess, client: client, metrics: m, logger: zap.New(core), logs: logs}
}

// loginAs seeds an account of role and caches its session.
func (e *env) loginAs(t *testing.T, role models.Role) models.User {
	t.Helper()
	u := e.srv.AddUser(models.User{
		Email:        string(role) + "@example.com",
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsVerified:   true,
		Status:       models.StatusActive,
		Organization: "Acme",
	}, "pa55word")
	access, refresh := e.srv.IssueToken(u.ID)
	require.NoError(t, e.sess.Save(access, refresh, u))
	return u
}

// otherReader returns a client logged in as a second journalist, standing in
// for another user of the portal.
func (e *env) otherReader(t *testing.T) *api.Client {
	t.Helper()
	u := e.srv.AddUser(models.User{
		Email:      "other@example.com",
		Role:       models.RoleJournalist,
		IsVerified: true,
		Status:     models.StatusActive,
	}, "pa55word")
	sess := session.NewManager(mock.NewKVRepository(), nil)
	access, refresh := e.srv.IssueToken(u.ID)
	require.NoError(t, sess.Save(access, refresh, u))
	client, err := api.New(api.Options{BaseURL: e.srv.URL(), Timeout: 5 * time.Second}, sess)
	require.NoError(t, err)
	return client
}
