package models

import "strings"

// Active reports whether the account may use gated pages. An empty status
// comes from records created before statuses existed and counts as active.
func (u *User) Active() bool {
	return u.Status == "" || u.Status == StatusActive
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Validate checks the cached profile shape.
func (u *User) Validate() error {
	return validate.Struct(u)
}
