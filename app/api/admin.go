package api

import (
	"context"
	"net/http"
	"net/url"

	"pressroom/app/models"
)

// Users lists accounts for moderation.
func (c *Client) Users(ctx context.Context, q UserQuery) ([]models.User, error) {
	r := get("/admin/users", "/admin/users")
	r.query = url.Values{}
	if q.Role != "" {
		r.query.Set("role", string(q.Role))
	}
	if q.Status != "" {
		r.query.Set("status", q.Status)
	}
	var out struct {
		Users []models.User `json:"users"`
	}
	err := c.do(ctx, r, &out)
	return out.Users, err
}

// SetUserStatus activates or suspends an account.
func (c *Client) SetUserStatus(ctx context.Context, id, status string) (models.User, error) {
	var out models.User
	err := c.do(ctx, patch("/admin/users/{id}/status", "/admin/users/"+url.PathEscape(id)+"/status", statusBody{Status: status}), &out)
	return out, err
}

// AdminReleases lists releases awaiting or past review.
func (c *Client) AdminReleases(ctx context.Context, status string) ([]models.Release, error) {
	r := get("/admin/releases", "/admin/releases")
	if status != "" {
		r.query = url.Values{"status": {status}}
	}
	var out struct {
		Releases []models.Release `json:"releases"`
	}
	err := c.do(ctx, r, &out)
	return out.Releases, err
}

// SetReleaseStatus approves, rejects or publishes a release.
func (c *Client) SetReleaseStatus(ctx context.Context, id string, d ReleaseDecision) (models.Release, error) {
	var out models.Release
	err := c.do(ctx, patch("/admin/releases/{id}/status", "/admin/releases/"+url.PathEscape(id)+"/status", d), &out)
	return out, err
}

// WhistleblowerReports lists submitted tips.
func (c *Client) WhistleblowerReports(ctx context.Context) ([]models.WhistleblowerReport, error) {
	var out struct {
		Reports []models.WhistleblowerReport `json:"reports"`
	}
	err := c.do(ctx, get("/admin/whistleblower", "/admin/whistleblower"), &out)
	return out.Reports, err
}

// SetReportStatus moves a tip through review.
func (c *Client) SetReportStatus(ctx context.Context, id, status string) (models.WhistleblowerReport, error) {
	var out models.WhistleblowerReport
	err := c.do(ctx, patch("/admin/whistleblower/{id}", "/admin/whistleblower/"+url.PathEscape(id), statusBody{Status: status}), &out)
	return out, err
}

func patch(route, path string, body any) request {
	return request{method: http.MethodPatch, route: route, path: path, body: body}
}
