package services

import (
	"context"
	"errors"

	"pressroom/app/api"
	"pressroom/app/models"
)

var (
	// ErrNotLoggedIn is returned by actions that need a cached user.
	ErrNotLoggedIn = errors.New("services: not logged in")
	// ErrInvalid wraps local validation failures.
	ErrInvalid = errors.New("services: invalid input")
)

// AuthAPI is the authentication part of the portal API.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.User, error)
}

// BlogAPI is the feed and comments part of the portal API.
type BlogAPI interface {
	Posts(ctx context.Context, q api.PostQuery) (api.PostPage, error)
	Post(ctx context.Context, id string) (models.Post, error)
	LikePost(ctx context.Context, id string) (api.LikeResult, error)
	SharePost(ctx context.Context, id string, platform models.SharePlatform) (api.ShareResult, error)
	BookmarkPost(ctx context.Context, id string) (api.BookmarkResult, error)
	Bookmarks(ctx context.Context) ([]models.Post, error)
	ReportPost(ctx context.Context, id string, report models.ContentReport) error
	Comments(ctx context.Context, postID string) ([]models.Comment, error)
	AddComment(ctx context.Context, postID string, nc api.NewComment) (models.Comment, error)
	EditComment(ctx context.Context, id, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	LikeComment(ctx context.Context, id string) (api.LikeResult, error)
}

// AdminAPI is the moderation part of the portal API.
type AdminAPI interface {
	Users(ctx context.Context, q api.UserQuery) ([]models.User, error)
	SetUserStatus(ctx context.Context, id, status string) (models.User, error)
	AdminReleases(ctx context.Context, status string) ([]models.Release, error)
	SetReleaseStatus(ctx context.Context, id string, d api.ReleaseDecision) (models.Release, error)
	WhistleblowerReports(ctx context.Context) ([]models.WhistleblowerReport, error)
	SetReportStatus(ctx context.Context, id, status string) (models.WhistleblowerReport, error)
	BulkUpload(ctx context.Context, kind, filename string, csv []byte) (api.BulkResult, error)
}

// ReleaseAPI is the communications part of the portal API.
type ReleaseAPI interface {
	MyReleases(ctx context.Context) ([]models.Release, error)
	CreateRelease(ctx context.Context, rel models.Release) (models.Release, error)
}

// Session is the read side of the cached login the services need.
type Session interface {
	User() (models.User, error)
}

func currentUser(s Session) (models.User, error) {
	u, err := s.User()
	if err != nil {
		return models.User{}, ErrNotLoggedIn
	}
	return u, nil
}
