package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"pressroom/app/api/apitest"
	"pressroom/app/config"
	"pressroom/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Cache:   config.CacheConfig{InMemory: true},
		Gateway: config.GatewayConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
	}
}

func TestNewWiresServices(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(models.User{Email: "j@example.com", Role: models.RoleJournalist, IsVerified: true, Status: models.StatusActive}, "pa55word")

	app, err := New(testConfig(srv.URL()), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close()

	u, err := app.Auth.Login(context.Background(), "j@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, u.Email, app.Session.Snapshot().User.Email)
	assert.Empty(t, app.Repo.Path())
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(testConfig("not a url"), nil)
	assert.Error(t, err)
}

func TestServeShutsDownGracefully(t *testing.T) {
	srv := apitest.New(t)
	app, err := New(testConfig(srv.URL()), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get("http://" + ln.Addr().String() + "/healthz")
	assert.Error(t, err)
}
