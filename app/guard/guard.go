// Package guard decides whether gated content may be shown for the cached
// session. It only reads local state and is a convenience gate, not a
// security boundary; the API enforces access on its side.
package guard

import (
	"slices"

	"pressroom/app/models"
	"pressroom/app/session"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNoToken      Reason = "no_token"
	ReasonCorruptUser  Reason = "corrupt_user"
	ReasonUnverified   Reason = "unverified"
	ReasonInactive     Reason = "inactive"
	ReasonRoleMismatch Reason = "role_mismatch"
)

// Redirect targets.
const (
	LoginPath        = "/login"
	VerifyEmailPath  = "/login?message=verify-email"
	InactivePath     = "/login?message=account-inactive"
	UnauthorizedPath = "/unauthorized"
)

// Decision is the outcome of Check.
type Decision struct {
	Allow    bool
	Reason   Reason
	Redirect string
	// ClearSession asks the caller to drop the cached session before
	// redirecting.
	ClearSession bool
}

// Check applies the gate to s. With no required roles any logged-in,
// verified and active user passes.
func Check(s session.Snapshot, required ...models.Role) Decision {
	if s.Token == "" {
		return Decision{Reason: ReasonNoToken, Redirect: LoginPath}
	}
	if s.UserErr != nil {
		return Decision{Reason: ReasonCorruptUser, Redirect: LoginPath, ClearSession: true}
	}
	if !s.User.IsVerified {
		return Decision{Reason: ReasonUnverified, Redirect: VerifyEmailPath}
	}
	if !s.User.Active() {
		return Decision{Reason: ReasonInactive, Redirect: InactivePath}
	}
	if len(required) > 0 && !slices.Contains(required, s.User.Role) {
		return Decision{Reason: ReasonRoleMismatch, Redirect: UnauthorizedPath}
	}
	return Decision{Allow: true}
}

// DashboardPath is the landing route for role.
func DashboardPath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/dashboard/admin"
	case models.RoleComms:
		return "/dashboard/comms"
	case models.RoleJournalist:
		return "/dashboard/journalist"
	}
	return LoginPath
}
