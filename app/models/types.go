package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared struct validator so other packages apply the
// same tag rules and registered aliases.
func Validator() *validator.Validate {
	return validate
}

// Role is the portal role a user signed up with.
type Role string

const (
	RoleJournalist Role = "journalist"
	RoleComms      Role = "comms"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleJournalist, RoleComms, RoleAdmin:
		return true
	}
	return false
}

// User account statuses.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
	StatusInactive  = "inactive"
)

// User is the session-scoped profile cached after login.
type User struct {
	ID           string    `json:"id" validate:"required"`
	Email        string    `json:"email" validate:"required,email"`
	FirstName    string    `json:"firstName,omitempty" validate:"max=60"`
	LastName     string    `json:"lastName,omitempty" validate:"max=60"`
	Role         Role      `json:"role" validate:"required,oneof=journalist comms admin"`
	IsVerified   bool      `json:"isVerified"`
	Status       string    `json:"status,omitempty" validate:"omitempty,oneof=active pending suspended inactive"`
	Organization string    `json:"organization,omitempty"`
	JobTitle     string    `json:"jobTitle,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Country      string    `json:"country,omitempty"`
	Interests    []string  `json:"interests,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Author identifies who wrote a comment. Registered users carry an ID,
// guests only a name and email.
type Author struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	GuestName  string `json:"guestName,omitempty"`
	GuestEmail string `json:"guestEmail,omitempty"`
}

// Comment is one node of a comment tree. Replies have the same shape.
type Comment struct {
	ID         string    `json:"id" validate:"required"`
	PostID     string    `json:"postId,omitempty"`
	ParentID   string    `json:"parentId,omitempty"`
	Content    string    `json:"content" validate:"required,min=1,max=2000"`
	Author     Author    `json:"author"`
	Likes      []string  `json:"likes"`
	LikesCount int       `json:"likesCount" validate:"gte=0"`
	UserLiked  bool      `json:"userLiked"`
	Edited     bool      `json:"edited"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
	Replies    []Comment `json:"replies,omitempty" validate:"-"`
}

// Engagement holds the counters a post shows next to its content.
type Engagement struct {
	Views      int      `json:"views"`
	Likes      []string `json:"likes,omitempty"`
	LikesCount int      `json:"likesCount"`
	Shares     int      `json:"shares"`
	UserLiked  bool     `json:"userLiked"`
	Bookmarked bool     `json:"bookmarked"`
}

// Post is a blog post in the content feed.
type Post struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Slug        string    `json:"slug,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Content     string    `json:"content,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Author      Author    `json:"author"`
	CoverImage  string    `json:"coverImage,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitempty"`
	Engagement
}

// Release statuses.
const (
	ReleaseDraft     = "draft"
	ReleasePending   = "pending"
	ReleaseApproved  = "approved"
	ReleaseRejected  = "rejected"
	ReleasePublished = "published"
)

// Release is a press release submitted by a communications professional.
type Release struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title" validate:"required,min=5,max=200"`
	Summary      string     `json:"summary,omitempty" validate:"max=500"`
	Body         string     `json:"body" validate:"required,min=20"`
	Organization string     `json:"organization" validate:"required"`
	Status       string     `json:"status,omitempty" validate:"omitempty,oneof=draft pending approved rejected published"`
	EmbargoAt    *time.Time `json:"embargoAt,omitempty"`
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
}

// Whistleblower report statuses.
const (
	ReportNew       = "new"
	ReportReviewing = "reviewing"
	ReportEscalated = "escalated"
	ReportClosed    = "closed"
)

// WhistleblowerReport is a tip submitted through the portal's secure channel.
type WhistleblowerReport struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Details   string    `json:"details"`
	Status    string    `json:"status" validate:"required,oneof=new reviewing escalated closed"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentReport flags a post for moderation.
type ContentReport struct {
	Reason  string `json:"reason" validate:"required,oneof=spam harassment misinformation copyright other"`
	Details string `json:"details,omitempty" validate:"required_if=Reason other,max=1000"`
}

// SharePlatform is where a post was shared to.
type SharePlatform string

const (
	ShareTwitter  SharePlatform = "twitter"
	ShareLinkedIn SharePlatform = "linkedin"
	ShareFacebook SharePlatform = "facebook"
	ShareEmail    SharePlatform = "email"
	ShareCopy     SharePlatform = "copy"
)

// Valid reports whether p is a supported share target.
func (p SharePlatform) Valid() bool {
	switch p {
	case ShareTwitter, ShareLinkedIn, ShareFacebook, ShareEmail, ShareCopy:
		return true
	}
	return false
}
