package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// MaxReplyDepth is the deepest level at which the reply affordance is still
// offered. The tree itself may be deeper.
const MaxReplyDepth = 3

// IsGuest reports whether the author has no registered account.
func (a Author) IsGuest() bool {
	return a.ID == ""
}

// Label is the name shown next to a comment.
func (a Author) Label() string {
	if a.IsGuest() {
		return a.GuestName
	}
	return a.Name
}

// Validate checks the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.validateBody()
}

// ValidateDraft checks a comment that has not been stored yet and so has no
// ID.
func (c *Comment) ValidateDraft() error {
	if err := validate.StructExcept(c, "ID"); err != nil {
		return err
	}
	return c.validateBody()
}

func (c *Comment) validateBody() error {
	if strings.TrimSpace(c.Content) == "" {
		return errors.New("content cannot be blank")
	}
	if c.Author.IsGuest() {
		if strings.TrimSpace(c.Author.GuestName) == "" {
			return errors.New("guest name is required")
		}
		if _, err := mail.ParseAddress(c.Author.GuestEmail); err != nil {
			return errors.New("guest email is invalid")
		}
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Likes == nil {
		c.Likes = []string{}
	}
}

// CanReply reports whether a comment at depth (top level is 0) still offers
// a reply action.
func CanReply(depth int) bool {
	return depth < MaxReplyDepth
}

// LikedBy reports whether userID is in the comment's like-set.
func (c *Comment) LikedBy(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
