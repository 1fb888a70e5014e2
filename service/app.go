// Package service assembles the running pieces of pressroom from a
// configuration: the session cache, the API client and the gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pressroom/app/api"
	"pressroom/app/config"
	"pressroom/app/metrics"
	"pressroom/app/repositories"
	"pressroom/app/routes"
	"pressroom/app/services"
	"pressroom/app/session"

	"go.uber.org/zap"
)

// App holds the long-lived objects of one process.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Repo    *repositories.Repository
	Session *session.Manager
	Client  *api.Client

	Auth      *services.AuthService
	Feed      *services.FeedService
	Comments  *services.CommentService
	Admin     *services.AdminService
	Releases  *services.ReleaseService
	Dashboard *services.DashboardService
}

// New opens the cache and builds the client. Close releases the cache.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Cache.Path
	if cfg.Cache.InMemory {
		path = ""
	}
	repo, err := repositories.NewRepository(path)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	sess := session.NewManager(repo.KV(), logger)
	client, err := api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Logger:    logger,
		Metrics:   m,
	}, sess)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Repo:      repo,
		Session:   sess,
		Client:    client,
		Auth:      services.NewAuthService(client, sess, logger),
		Feed:      services.NewFeedService(client, sess, logger, m),
		Comments:  services.NewCommentService(client, sess, logger, m),
		Admin:     services.NewAdminService(client, logger),
		Releases:  services.NewReleaseService(client, sess),
		Dashboard: services.NewDashboardService(client, sess),
	}, nil
}

// Close releases the cache.
func (a *App) Close() error {
	return a.Repo.Close()
}

// Handler returns the gateway router.
func (a *App) Handler() http.Handler {
	return routes.SetupRoutes(routes.Deps{
		Client:  a.Client,
		Session: a.Session,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})
}

// RunAppServer listens on the configured gateway address and serves until
// ctx is cancelled.
func (a *App) RunAppServer(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Gateway.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Config.Gateway.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the gateway on ln. When ctx ends, in-flight requests get the
// configured shutdown timeout to finish.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("gateway listening", zap.String("addr", ln.Addr().String()), zap.String("api", a.Config.API.BaseURL))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := a.Config.Gateway.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.Logger.Info("gateway shutting down", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown gateway: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
