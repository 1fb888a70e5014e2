package api

import "pressroom/app/models"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         models.User `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Role         models.Role `json:"role"`
	Organization string      `json:"organization"`
	JobTitle     string      `json:"jobTitle,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Country      string      `json:"country,omitempty"`
	Interests    []string    `json:"interests,omitempty"`
	Newsletter   bool        `json:"newsletter"`
	AcceptTerms  bool        `json:"acceptTerms"`
}

// RegisterResponse is returned by register. New accounts start unverified.
type RegisterResponse struct {
	Message string      `json:"message,omitempty"`
	User    models.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

// PostQuery filters the post list.
type PostQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

// PostPage is one page of posts.
type PostPage struct {
	Posts      []models.Post `json:"posts"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// LikeResult is the server's like state after a toggle.
type LikeResult struct {
	LikesCount int  `json:"likesCount"`
	UserLiked  bool `json:"userLiked"`
}

// ShareResult is the server's share counter after a share.
type ShareResult struct {
	Shares int `json:"shares"`
}

// BookmarkResult is the server's bookmark state after a toggle.
type BookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

// NewComment is the body of POST /blog/posts/{id}/comments. Guests fill in
// GuestName and GuestEmail.
type NewComment struct {
	Content    string `json:"content"`
	ParentID   string `json:"parentId,omitempty"`
	GuestName  string `json:"guestName,omitempty"`
	GuestEmail string `json:"guestEmail,omitempty"`
}

// UserQuery filters the admin user list.
type UserQuery struct {
	Role   models.Role
	Status string
}

// ReleaseDecision is the body of PATCH /admin/releases/{id}/status.
type ReleaseDecision struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// BulkResult is what the bulk endpoints report.
type BulkResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type statusBody struct {
	Status string `json:"status"`
}
