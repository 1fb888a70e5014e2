package controllers

import (
	"net/http"

	"pressroom/app/guard"
	"pressroom/app/models"
	"pressroom/app/services"
	"pressroom/app/session"
	"pressroom/app/signup"
)

// SessionController logs users in and out and runs signup.
type SessionController struct {
	auth    *services.AuthService
	session *session.Manager
}

// NewSessionController creates a new SessionController
func NewSessionController(auth *services.AuthService, sess *session.Manager) *SessionController {
	return &SessionController{auth: auth, session: sess}
}

// SessionView is the cached login as the gateway reports it.
type SessionView struct {
	User      models.User `json:"user"`
	Dashboard string      `json:"dashboard"`
}

// Login handles POST /api/session
func (sc *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := sc.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, SessionView{User: u, Dashboard: guard.DashboardPath(u.Role)})
}

// Show handles GET /api/session
func (sc *SessionController) Show(w http.ResponseWriter, r *http.Request) {
	snap := sc.session.Snapshot()
	if !snap.LoggedIn() {
		sendJSON(w, http.StatusUnauthorized, ErrorBody{Error: "not logged in", Redirect: guard.LoginPath})
		return
	}
	sendJSON(w, http.StatusOK, SessionView{User: snap.User, Dashboard: guard.DashboardPath(snap.User.Role)})
}

// Logout handles DELETE /api/session
func (sc *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := sc.auth.Logout(r.Context()); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Signup handles POST /api/signup with the whole wizard in one body.
func (sc *SessionController) Signup(w http.ResponseWriter, r *http.Request) {
	var form signup.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	resp, err := sc.auth.Register(r.Context(), form)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, resp)
}

// Verify handles POST /api/session/verify
func (sc *SessionController) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sc.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword handles POST /api/password/forgot
func (sc *SessionController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sc.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword handles POST /api/password/reset
func (sc *SessionController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sc.auth.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
