// Package routes wires the gateway's controllers and middleware into one
// router.
package routes

import (
	"net/http"

	"pressroom/app/api"
	"pressroom/app/controllers"
	"pressroom/app/metrics"
	"pressroom/app/middleware"
	"pressroom/app/models"
	"pressroom/app/services"
	"pressroom/app/session"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps is what the gateway is built from.
type Deps struct {
	Client  *api.Client
	Session *session.Manager
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// SetupRoutes defines the gateway's routes and returns a router.
func SetupRoutes(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	feed := services.NewFeedService(d.Client, d.Session, logger, d.Metrics)
	comments := services.NewCommentService(d.Client, d.Session, logger, d.Metrics)
	auth := services.NewAuthService(d.Client, d.Session, logger)
	admin := services.NewAdminService(d.Client, logger)
	releases := services.NewReleaseService(d.Client, d.Session)
	dashboards := services.NewDashboardService(d.Client, d.Session)

	sessionController := controllers.NewSessionController(auth, d.Session)
	postController := controllers.NewPostController(feed)
	commentController := controllers.NewCommentController(comments)
	dashboardController := controllers.NewDashboardController(dashboards, admin, releases)

	gate := func(roles ...models.Role) mux.MiddlewareFunc {
		return mux.MiddlewareFunc(middleware.RequireRole(d.Session, d.Metrics, logger, roles...))
	}

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(mux.MiddlewareFunc(middleware.Logger(logger)))
	router.Use(mux.MiddlewareFunc(middleware.Recoverer(logger)))
	router.Use(middleware.ContentTypeJSON)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	if d.Metrics != nil {
		router.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Open API routes
	open := router.PathPrefix("/api").Subrouter()
	open.HandleFunc("/session", sessionController.Login).Methods(http.MethodPost)
	open.HandleFunc("/session", sessionController.Show).Methods(http.MethodGet)
	open.HandleFunc("/session", sessionController.Logout).Methods(http.MethodDelete)
	open.HandleFunc("/session/verify", sessionController.Verify).Methods(http.MethodPost)
	open.HandleFunc("/signup", sessionController.Signup).Methods(http.MethodPost)
	open.HandleFunc("/password/forgot", sessionController.ForgotPassword).Methods(http.MethodPost)
	open.HandleFunc("/password/reset", sessionController.ResetPassword).Methods(http.MethodPost)
	// Comments take guests: without a session the author is the guest named in the body
	open.HandleFunc("/posts/{postId}/comments", commentController.Index).Methods(http.MethodGet)
	open.HandleFunc("/posts/{postId}/comments", commentController.Create).Methods(http.MethodPost)

	// Feed and comments, any verified active role
	members := router.PathPrefix("/api").Subrouter()
	members.Use(gate())
	posts := members.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", postController.Index).Methods(http.MethodGet)
	posts.HandleFunc("/{id}", postController.Show).Methods(http.MethodGet)
	posts.HandleFunc("/{id}/like", postController.Like).Methods(http.MethodPost)
	posts.HandleFunc("/{id}/share", postController.Share).Methods(http.MethodPost)
	posts.HandleFunc("/{id}/bookmark", postController.Bookmark).Methods(http.MethodPost)
	posts.HandleFunc("/{id}/report", postController.Report).Methods(http.MethodPost)
	members.HandleFunc("/bookmarks", postController.Bookmarks).Methods(http.MethodGet)
	members.HandleFunc("/comments/{id}", commentController.Edit).Methods(http.MethodPut)
	members.HandleFunc("/comments/{id}", commentController.Delete).Methods(http.MethodDelete)
	members.HandleFunc("/comments/{id}/like", commentController.Like).Methods(http.MethodPost)

	// Admin tools
	adminAPI := router.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(gate(models.RoleAdmin))
	adminAPI.HandleFunc("/users", dashboardController.Users).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users/{id}", dashboardController.SetUserStatus).Methods(http.MethodPatch)
	adminAPI.HandleFunc("/releases", dashboardController.AdminReleases).Methods(http.MethodGet)
	adminAPI.HandleFunc("/releases/{id}", dashboardController.SetReleaseStatus).Methods(http.MethodPatch)
	adminAPI.HandleFunc("/whistleblower", dashboardController.Reports).Methods(http.MethodGet)
	adminAPI.HandleFunc("/whistleblower/{id}", dashboardController.SetReportStatus).Methods(http.MethodPatch)
	adminAPI.HandleFunc("/bulk/{kind}", dashboardController.Upload).Methods(http.MethodPost)

	// Communications tools
	commsAPI := router.PathPrefix("/api/releases").Subrouter()
	commsAPI.Use(gate(models.RoleComms))
	commsAPI.HandleFunc("", dashboardController.MyReleases).Methods(http.MethodGet)
	commsAPI.HandleFunc("", dashboardController.CreateRelease).Methods(http.MethodPost)

	// Dashboards, one per role
	for _, role := range []models.Role{models.RoleAdmin, models.RoleComms, models.RoleJournalist} {
		sub := router.PathPrefix("/dashboard/" + string(role)).Subrouter()
		sub.Use(gate(role))
		sub.HandleFunc("", dashboardController.Show).Methods(http.MethodGet)
	}

	return router
}
