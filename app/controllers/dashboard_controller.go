package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pressroom/app/api"
	"pressroom/app/models"
	"pressroom/app/services"

	"github.com/gorilla/mux"
)

// maxUpload caps multipart bulk uploads.
const maxUpload = 10 << 20

// DashboardController serves role dashboards and the admin and comms tools
// behind them.
type DashboardController struct {
	dashboards *services.DashboardService
	admin      *services.AdminService
	releases   *services.ReleaseService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(d *services.DashboardService, a *services.AdminService, rel *services.ReleaseService) *DashboardController {
	return &DashboardController{dashboards: d, admin: a, releases: rel}
}

// Show handles GET /dashboard/{role}
func (dc *DashboardController) Show(w http.ResponseWriter, r *http.Request) {
	d, err := dc.dashboards.Build(r.Context(), queryInt(r, "days", services.DefaultDashboardDays))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, d)
}

// Users handles GET /api/admin/users
func (dc *DashboardController) Users(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := dc.admin.Users(r.Context(), api.UserQuery{Role: models.Role(q.Get("role")), Status: q.Get("status")})
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"users": users})
}

// SetUserStatus handles PATCH /api/admin/users/{id}
func (dc *DashboardController) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := dc.admin.SetUserStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, u)
}

// AdminReleases handles GET /api/admin/releases
func (dc *DashboardController) AdminReleases(w http.ResponseWriter, r *http.Request) {
	rels, err := dc.admin.Releases(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"releases": rels})
}

// SetReleaseStatus handles PATCH /api/admin/releases/{id}
func (dc *DashboardController) SetReleaseStatus(w http.ResponseWriter, r *http.Request) {
	var req api.ReleaseDecision
	if !decodeJSON(w, r, &req) {
		return
	}
	id := mux.Vars(r)["id"]
	var (
		rel models.Release
		err error
	)
	switch req.Status {
	case models.ReleaseApproved:
		rel, err = dc.admin.Approve(r.Context(), id)
	case models.ReleaseRejected:
		rel, err = dc.admin.Reject(r.Context(), id, strings.TrimSpace(req.Reason))
	case models.ReleasePublished:
		rel, err = dc.admin.Publish(r.Context(), id)
	default:
		err = fmt.Errorf("%w: status must be approved, rejected or published", services.ErrInvalid)
	}
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, rel)
}

// Reports handles GET /api/admin/whistleblower
func (dc *DashboardController) Reports(w http.ResponseWriter, r *http.Request) {
	reports, err := dc.admin.Reports(r.Context())
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// SetReportStatus handles PATCH /api/admin/whistleblower/{id}
func (dc *DashboardController) SetReportStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rep, err := dc.admin.SetReportStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, rep)
}

// Upload handles POST /api/admin/bulk/{kind} with a multipart "file" field.
func (dc *DashboardController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorBody{Error: "file is required"})
		return
	}
	defer f.Close()

	res, err := dc.admin.Upload(r.Context(), mux.Vars(r)["kind"], hdr.Filename, f)
	if err != nil {
		status, body := describe(err)
		if errors.Is(err, services.ErrNothingToUpload) {
			body.Rejected = res.Rejected
		}
		sendJSON(w, status, body)
		return
	}
	sendJSON(w, http.StatusOK, res)
}

// MyReleases handles GET /api/releases
func (dc *DashboardController) MyReleases(w http.ResponseWriter, r *http.Request) {
	rels, err := dc.releases.Mine(r.Context())
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]any{"releases": rels})
}

// CreateRelease handles POST /api/releases
func (dc *DashboardController) CreateRelease(w http.ResponseWriter, r *http.Request) {
	var rel models.Release
	if !decodeJSON(w, r, &rel) {
		return
	}
	created, err := dc.releases.Create(r.Context(), rel)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, created)
}
